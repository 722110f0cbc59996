package render

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/zoeyai/patternsearch/pkg/vision/ncc"
)

func grayImage(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func TestAnnotateOutline(t *testing.T) {
	src := grayImage(50, 40, 100)
	box := Box{Rect: image.Rect(10, 10, 30, 25)}

	out, err := Annotate(src, box)
	if err != nil {
		t.Fatalf("Annotate 失败: %v", err)
	}

	red := color.RGBA{R: 255, A: 255}
	background := color.RGBA{R: 100, G: 100, B: 100, A: 255}

	tests := []struct {
		name string
		x, y int
		want color.RGBA
	}{
		{"top-left corner", 10, 10, red},
		{"top edge", 20, 11, red},
		{"bottom edge", 20, 24, red},
		{"right edge", 29, 17, red},
		{"interior", 20, 17, background},
		{"outside", 5, 5, background},
	}
	for _, tt := range tests {
		if got := out.RGBAAt(tt.x, tt.y); got != tt.want {
			t.Errorf("%s (%d, %d) = %v, want %v", tt.name, tt.x, tt.y, got, tt.want)
		}
	}

	// 原图不变
	if src.GrayAt(10, 10).Y != 100 {
		t.Error("Annotate 不应修改原图")
	}
}

func TestAnnotateClipped(t *testing.T) {
	src := grayImage(20, 20, 0)
	box := Box{Rect: image.Rect(15, 15, 30, 30), Color: color.RGBA{G: 255, A: 255}}

	out, err := Annotate(src, box)
	if err != nil {
		t.Fatalf("超出图像的框应被裁剪: %v", err)
	}
	if got := out.RGBAAt(16, 15); got.G != 255 {
		t.Errorf("(16, 15) = %v, 应为绿色", got)
	}
}

func TestAnnotateLabel(t *testing.T) {
	src := grayImage(120, 60, 0)
	rect := image.Rect(10, 30, 60, 55)

	plain, err := Annotate(src, Box{Rect: rect})
	if err != nil {
		t.Fatalf("Annotate 失败: %v", err)
	}
	labelled, err := Annotate(src, Box{Rect: rect, Label: "0.987", Color: color.White})
	if err != nil {
		t.Fatalf("Annotate(label) 失败: %v", err)
	}

	changed := 0
	for y := 0; y < rect.Min.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if labelled.RGBAAt(x, y) != plain.RGBAAt(x, y) {
				changed++
			}
		}
	}
	if changed == 0 {
		t.Error("标签应绘制在框上方")
	}
	t.Logf("标签覆盖 %d 个像素", changed)
}

func TestSaveHeatmap(t *testing.T) {
	m := ncc.MustFromRows([][]float64{
		{-1, -0.5, 0},
		{0.25, 0.5, 1},
	})
	path := filepath.Join(t.TempDir(), "plots", "map.png")

	opts := DefaultHeatmapOptions
	opts.Width, opts.Height = 0, 0
	if err := SaveHeatmap(m, path, opts); err != nil {
		t.Fatalf("SaveHeatmap 失败: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("热力图文件不存在: %v", err)
	}
	if info.Size() == 0 {
		t.Error("热力图文件为空")
	}
}

func TestGridXYZ(t *testing.T) {
	m := ncc.MustFromRows([][]float64{{1, 2, 3}, {4, 5, 6}})
	g := gridXYZ{m: m}

	c, r := g.Dims()
	if c != 3 || r != 2 {
		t.Fatalf("Dims = (%d, %d), want (3, 2)", c, r)
	}
	if g.Z(2, 1) != 6 || g.X(2) != 2 || g.Y(1) != 1 {
		t.Errorf("坐标映射错误: Z(2,1)=%v X(2)=%v Y(1)=%v", g.Z(2, 1), g.X(2), g.Y(1))
	}
}
