package vision

import (
	"fmt"
	"image"
)

// Point 表示二维坐标点
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// NewPoint 创建新的 Point
func NewPoint(x, y int) Point {
	return Point{X: x, Y: y}
}

// Rectangle 表示矩形区域（四个角点）
type Rectangle struct {
	TopLeft     Point `json:"top_left"`
	BottomLeft  Point `json:"bottom_left"`
	BottomRight Point `json:"bottom_right"`
	TopRight    Point `json:"top_right"`
}

// NewRectangle 从左上角坐标和宽高创建矩形
func NewRectangle(x, y, w, h int) Rectangle {
	return Rectangle{
		TopLeft:     Point{X: x, Y: y},
		BottomLeft:  Point{X: x, Y: y + h},
		BottomRight: Point{X: x + w, Y: y + h},
		TopRight:    Point{X: x + w, Y: y},
	}
}

// Center 返回矩形中心点
func (r Rectangle) Center() Point {
	return Point{
		X: (r.TopLeft.X + r.BottomRight.X) / 2,
		Y: (r.TopLeft.Y + r.BottomRight.Y) / 2,
	}
}

// Width 返回矩形宽度
func (r Rectangle) Width() int {
	return r.TopRight.X - r.TopLeft.X
}

// Height 返回矩形高度
func (r Rectangle) Height() int {
	return r.BottomLeft.Y - r.TopLeft.Y
}

// ToImageRect 转换为 image.Rectangle
func (r Rectangle) ToImageRect() image.Rectangle {
	return image.Rect(r.TopLeft.X, r.TopLeft.Y, r.BottomRight.X, r.BottomRight.Y)
}

// MatchResult 模板匹配结果
type MatchResult struct {
	// Result 匹配到的中心点坐标
	Result Point `json:"result"`
	// Rectangle 匹配区域的四个角点
	// Wrap / Mirror 策略下靠近边缘的匹配可能超出场景范围
	Rectangle Rectangle `json:"rectangle"`
	// Confidence NCC 分数 [-1, 1]
	Confidence float64 `json:"confidence"`
	// HashDistance 模板与匹配区域差异哈希的汉明距离，越小越相似
	HashDistance int `json:"hash_distance"`
	// Time 匹配耗时（毫秒）
	Time float64 `json:"time,omitempty"`
}

// ImageSizeError 模板尺寸大于场景
type ImageSizeError struct {
	SceneSize   [2]int // 宽, 高
	PatternSize [2]int
}

func (e *ImageSizeError) Error() string {
	return fmt.Sprintf("模板尺寸 %dx%d 大于场景 %dx%d",
		e.PatternSize[0], e.PatternSize[1], e.SceneSize[0], e.SceneSize[1])
}
