// Package render 将匹配结果绘制成图像: 标注框与相似度热力图
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	// LineWidth 标注框线宽（像素）
	LineWidth = 2
	// FontSize 标签字号（磅）
	FontSize = 12.0
)

// DefaultColor 默认标注颜色
var DefaultColor = color.RGBA{R: 255, G: 0, B: 0, A: 255}

// Box 一个待绘制的标注框
type Box struct {
	Rect  image.Rectangle
	Label string
	Color color.Color // 为 nil 时使用 DefaultColor
}

var loadFont = sync.OnceValues(func() (*truetype.Font, error) {
	return truetype.Parse(goregular.TTF)
})

// Annotate 在图像副本上绘制标注框与标签，原图不变
func Annotate(img image.Image, boxes ...Box) (*image.RGBA, error) {
	bounds := img.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, img, bounds.Min, draw.Src)

	for _, b := range boxes {
		c := b.Color
		if c == nil {
			c = DefaultColor
		}
		drawOutline(dst, b.Rect, c)
		if b.Label != "" {
			if err := drawLabel(dst, b.Rect, b.Label, c); err != nil {
				return nil, err
			}
		}
	}
	return dst, nil
}

// drawOutline 绘制矩形边框，线条向内收缩，超出图像的部分被裁剪
func drawOutline(dst *image.RGBA, r image.Rectangle, c color.Color) {
	src := image.NewUniform(c)
	w := min(LineWidth, r.Dx(), r.Dy())
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+w), // 上
		image.Rect(r.Min.X, r.Max.Y-w, r.Max.X, r.Max.Y), // 下
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+w, r.Max.Y), // 左
		image.Rect(r.Max.X-w, r.Min.Y, r.Max.X, r.Max.Y), // 右
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(dst.Bounds()), src, image.Point{}, draw.Src)
	}
}

// drawLabel 在框的上方绘制标签，上方空间不足时画在框内
func drawLabel(dst *image.RGBA, r image.Rectangle, label string, c color.Color) error {
	f, err := loadFont()
	if err != nil {
		return fmt.Errorf("加载字体失败: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(f)
	ctx.SetFontSize(FontSize)
	ctx.SetClip(dst.Bounds())
	ctx.SetDst(dst)
	ctx.SetSrc(image.NewUniform(c))
	ctx.SetHinting(font.HintingFull)

	height := int(ctx.PointToFixed(FontSize) >> 6)
	y := r.Min.Y - 2
	if y-height < dst.Bounds().Min.Y {
		y = r.Min.Y + LineWidth + height
	}

	if _, err := ctx.DrawString(label, freetype.Pt(r.Min.X, y)); err != nil {
		return fmt.Errorf("绘制标签失败: %w", err)
	}
	return nil
}
