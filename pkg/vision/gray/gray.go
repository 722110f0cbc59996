// Package gray 负责彩色图像与灰度网格之间的相互转换
//
// 灰度值取 R、G、B 三通道的整数平均（截断），与相似度计算使用的网格一一对应:
// 网格的行对应图像的 y，列对应图像的 x。
package gray

import (
	"errors"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/parallel"

	"github.com/zoeyai/patternsearch/pkg/vision/ncc"
)

// ErrEmptyImage 图像宽或高为 0
var ErrEmptyImage = errors.New("图像为空")

// FromImage 将图像转换为灰度网格
func FromImage(img image.Image) (*ncc.Grid, error) {
	if img == nil {
		return nil, ErrEmptyImage
	}
	b := img.Bounds()
	if b.Dx() < 1 || b.Dy() < 1 {
		return nil, ErrEmptyImage
	}

	grid := ncc.NewGrid(b.Dx(), b.Dy())
	parallel.Line(b.Dy(), func(start, end int) {
		for y := start; y < end; y++ {
			row := grid.Row(y)
			for x := range row {
				r, g, bl := channels(img, b.Min.X+x, b.Min.Y+y)
				row[x] = Value(r, g, bl)
			}
		}
	})
	return grid, nil
}

// Value 返回单个像素的灰度值，各通道先截断到 [0, 255]
func Value(r, g, b int) float64 {
	return float64((clamp(r) + clamp(g) + clamp(b)) / 3)
}

// channels 读取 8 位 RGB 通道，忽略 alpha
func channels(img image.Image, x, y int) (r, g, b int) {
	switch m := img.(type) {
	case *image.NRGBA:
		i := m.PixOffset(x, y)
		return int(m.Pix[i]), int(m.Pix[i+1]), int(m.Pix[i+2])
	case *image.RGBA:
		i := m.PixOffset(x, y)
		return int(m.Pix[i]), int(m.Pix[i+1]), int(m.Pix[i+2])
	case *image.Gray:
		v := int(m.Pix[m.PixOffset(x, y)])
		return v, v, v
	default:
		c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
		return int(c.R), int(c.G), int(c.B)
	}
}

// ToImage 将灰度网格转换为 8 位灰度图，数值先截断取整再限制到 [0, 255]
func ToImage(grid *ncc.Grid) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, grid.Width(), grid.Height()))
	parallel.Line(grid.Height(), func(start, end int) {
		for y := start; y < end; y++ {
			dst := img.Pix[y*img.Stride : y*img.Stride+grid.Width()]
			for x, v := range grid.Row(y) {
				dst[x] = toByte(v)
			}
		}
	})
	return img
}

// MapToImage 将相似度图按 [min, max] 线性映射到 [0, 255] 后转换为灰度图
// min == max 时所有像素为 0
func MapToImage(m *ncc.Grid, min, max float64) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.Width(), m.Height()))
	span := max - min
	if span == 0 {
		return img
	}
	for y := 0; y < m.Height(); y++ {
		dst := img.Pix[y*img.Stride : y*img.Stride+m.Width()]
		for x, v := range m.Row(y) {
			dst[x] = toByte((v - min) / span * 255)
		}
	}
	return img
}

func toByte(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(int(v))
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
