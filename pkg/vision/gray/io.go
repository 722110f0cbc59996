package gray

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/zoeyai/patternsearch/pkg/vision/ncc"
)

// jpegQuality 保存 JPEG 时使用的质量
const jpegQuality = 95

// LoadImage 读取图像文件，支持 PNG、JPEG、GIF、BMP、TIFF、WebP
func LoadImage(filename string) (image.Image, error) {
	img, err := imgio.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("无法读取图像 %s: %w", filename, err)
	}
	return img, nil
}

// Load 读取图像文件并转换为灰度网格
func Load(filename string) (*ncc.Grid, error) {
	img, err := LoadImage(filename)
	if err != nil {
		return nil, err
	}
	grid, err := FromImage(img)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return grid, nil
}

// Save 保存图像文件，编码格式由扩展名决定 (.png / .jpg / .jpeg / .bmp)
func Save(filename string, img image.Image) error {
	encoder, err := encoderFor(filename)
	if err != nil {
		return err
	}

	// 确保目录存在
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	if err := imgio.Save(filename, img, encoder); err != nil {
		return fmt.Errorf("保存图像失败 %s: %w", filename, err)
	}
	return nil
}

func encoderFor(filename string) (imgio.Encoder, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return imgio.PNGEncoder(), nil
	case ".jpg", ".jpeg":
		return imgio.JPEGEncoder(jpegQuality), nil
	case ".bmp":
		return imgio.BMPEncoder(), nil
	default:
		return nil, fmt.Errorf("不支持的图像格式: %s", filename)
	}
}
