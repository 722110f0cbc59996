package render

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/zoeyai/patternsearch/pkg/vision/ncc"
)

// gridXYZ 将相似度图适配为 plotter.GridXYZ，列为 X，行为 Y
type gridXYZ struct {
	m *ncc.Grid
}

func (g gridXYZ) Dims() (c, r int)   { return g.m.Width(), g.m.Height() }
func (g gridXYZ) Z(c, r int) float64 { return g.m.At(r, c) }
func (g gridXYZ) X(c int) float64    { return float64(c) }
func (g gridXYZ) Y(r int) float64    { return float64(r) }

// HeatmapOptions 热力图选项
type HeatmapOptions struct {
	Title  string
	Colors int       // 调色板颜色数
	Width  vg.Length // 图像宽度
	Height vg.Length // 图像高度
}

// DefaultHeatmapOptions 默认热力图选项
var DefaultHeatmapOptions = HeatmapOptions{
	Title:  "NCC similarity",
	Colors: 12,
	Width:  8 * vg.Inch,
	Height: 6 * vg.Inch,
}

// NewHeatmap 构造相似度图的热力图，色阶固定为 [-1, 1]，Y 轴向下与图像行方向一致
func NewHeatmap(m *ncc.Grid, opts HeatmapOptions) *plot.Plot {
	if opts.Colors < 2 {
		opts.Colors = DefaultHeatmapOptions.Colors
	}

	h := plotter.NewHeatMap(gridXYZ{m: m}, palette.Heat(opts.Colors, 1))
	h.Min, h.Max = -1, 1

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "col"
	p.Y.Label.Text = "row"
	p.Y.Scale = plot.InvertedScale{Normalizer: p.Y.Scale}
	p.Add(h)
	return p
}

// SaveHeatmap 将相似度图保存为热力图，格式由扩展名决定 (.png / .svg / .pdf 等)
func SaveHeatmap(m *ncc.Grid, filename string, opts HeatmapOptions) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = DefaultHeatmapOptions.Width, DefaultHeatmapOptions.Height
	}

	// 确保目录存在
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	p := NewHeatmap(m, opts)
	if err := p.Save(opts.Width, opts.Height, filename); err != nil {
		return fmt.Errorf("保存热力图失败: %w", err)
	}
	return nil
}
