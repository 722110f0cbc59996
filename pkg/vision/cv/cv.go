// Package cv 使用 OpenCV 计算参考相似度图，用于交叉校验 NCC 实现
//
// OpenCV 的 TM_CCOEFF_NORMED 与 Default 策略下的 NCC 定义一致，
// 但以 float32 计算，且对零方差窗口的处理不同，因此比较时跳过哨兵值。
//
// 基本用法:
//
//	cmp, err := cv.Compare(pattern, scene)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("最大偏差: %.2e\n", cmp.MaxDeviation)
package cv

import (
	"errors"
	"fmt"
	"math"

	"gocv.io/x/gocv"

	"github.com/zoeyai/patternsearch/pkg/vision/ncc"
)

// GridToMat 将网格转换为单通道 float32 Mat，调用方负责 Close
func GridToMat(g *ncc.Grid) gocv.Mat {
	mat := gocv.NewMatWithSize(g.Height(), g.Width(), gocv.MatTypeCV32F)
	for i := 0; i < g.Height(); i++ {
		for j, v := range g.Row(i) {
			mat.SetFloatAt(i, j, float32(v))
		}
	}
	return mat
}

// MatToGrid 将单通道 float32 Mat 转换为网格
func MatToGrid(mat gocv.Mat) (*ncc.Grid, error) {
	if mat.Empty() {
		return nil, errors.New("Mat 为空")
	}
	if mat.Type() != gocv.MatTypeCV32F {
		return nil, fmt.Errorf("不支持的 Mat 类型: %v", mat.Type())
	}

	g := ncc.NewGrid(mat.Cols(), mat.Rows())
	for i := 0; i < mat.Rows(); i++ {
		row := g.Row(i)
		for j := range row {
			row[j] = float64(mat.GetFloatAt(i, j))
		}
	}
	return g, nil
}

// ReferenceMatrix 使用 TM_CCOEFF_NORMED 计算 Default 策略下的相似度图
func ReferenceMatrix(pattern, scene *ncc.Grid) (*ncc.Grid, error) {
	if err := ncc.Validate(pattern, scene); err != nil {
		return nil, err
	}

	sceneMat := GridToMat(scene)
	defer sceneMat.Close()
	patternMat := GridToMat(pattern)
	defer patternMat.Close()

	mask := gocv.NewMat()
	defer mask.Close()
	result := gocv.NewMat()
	defer result.Close()

	gocv.MatchTemplate(sceneMat, patternMat, &result, gocv.TmCcoeffNormed, mask)
	return MatToGrid(result)
}

// Comparison NCC 相似度图与 OpenCV 参考结果的比较
type Comparison struct {
	MaxDeviation float64 // 最大绝对偏差
	Row, Col     int     // 最大偏差出现的位置
	Compared     int     // 参与比较的位置数
	Skipped      int     // 因哨兵值跳过的位置数
}

// Compare 计算 Default 策略下的相似度图并与 OpenCV 结果逐点比较
func Compare(pattern, scene *ncc.Grid, opts ...ncc.Option) (*Comparison, error) {
	ref, err := ReferenceMatrix(pattern, scene)
	if err != nil {
		return nil, err
	}
	ours := ncc.SimilarityMatrix(pattern, scene, ncc.Default, opts...)
	return MaxDeviation(ours, ref)
}

// MaxDeviation 逐点比较两个同尺寸的相似度图，跳过 ours 中的哨兵值
func MaxDeviation(ours, ref *ncc.Grid) (*Comparison, error) {
	if ours.Width() != ref.Width() || ours.Height() != ref.Height() {
		return nil, fmt.Errorf("相似度图尺寸不一致: %dx%d != %dx%d",
			ours.Width(), ours.Height(), ref.Width(), ref.Height())
	}

	c := &Comparison{}
	for i := 0; i < ours.Height(); i++ {
		for j := 0; j < ours.Width(); j++ {
			v := ours.At(i, j)
			if v == ncc.Undefined {
				c.Skipped++
				continue
			}
			c.Compared++
			if d := math.Abs(v - ref.At(i, j)); d > c.MaxDeviation {
				c.MaxDeviation, c.Row, c.Col = d, i, j
			}
		}
	}
	return c, nil
}
