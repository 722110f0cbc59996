// Package screen 提供屏幕截图，截图可直接作为匹配场景
package screen

import (
	"fmt"
	"image"

	"github.com/go-vgo/robotgo"

	"github.com/zoeyai/patternsearch/pkg/vision/gray"
	"github.com/zoeyai/patternsearch/pkg/vision/ncc"
)

// CaptureScreen 截取全屏
func CaptureScreen() (image.Image, error) {
	img, err := robotgo.CaptureImg()
	if err != nil {
		return nil, fmt.Errorf("截屏失败: %w", err)
	}
	return img, nil
}

// CaptureRegion 截取屏幕区域
func CaptureRegion(x, y, width, height int) (image.Image, error) {
	if err := checkRegion(x, y, width, height); err != nil {
		return nil, err
	}
	img, err := robotgo.CaptureImg(x, y, width, height)
	if err != nil {
		return nil, fmt.Errorf("截取区域失败: %w", err)
	}
	return img, nil
}

// CaptureGrid 截取全屏并转换为灰度网格
func CaptureGrid() (*ncc.Grid, error) {
	img, err := CaptureScreen()
	if err != nil {
		return nil, err
	}
	return gray.FromImage(img)
}

// GetScreenSize 获取主屏幕尺寸
func GetScreenSize() (width, height int) {
	return robotgo.GetScreenSize()
}

// GetDisplayCount 获取显示器数量
func GetDisplayCount() int {
	return robotgo.DisplaysNum()
}

// checkRegion 检查截图区域是否合法
func checkRegion(x, y, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("截图区域尺寸无效: %dx%d", width, height)
	}
	if x < 0 || y < 0 {
		return fmt.Errorf("截图区域起点无效: (%d, %d)", x, y)
	}
	return nil
}
