package ncc

import (
	"errors"
	"fmt"
)

// Grid 行优先存储的二维灰度网格
// 生成后视为只读，Set 仅供构造方填充数据使用
type Grid struct {
	width  int
	height int
	data   []float64
}

// NewGrid 创建 width × height 的零值网格
func NewGrid(width, height int) *Grid {
	if width < 1 || height < 1 {
		panic(&PreconditionError{
			Op:     "NewGrid",
			Reason: fmt.Sprintf("网格尺寸必须大于 0: width=%d, height=%d", width, height),
		})
	}
	return &Grid{
		width:  width,
		height: height,
		data:   make([]float64, width*height),
	}
}

// FromRows 从二维切片创建网格（复制数据）
func FromRows(rows [][]float64) (*Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.New("网格不能为空")
	}

	width := len(rows[0])
	g := NewGrid(width, len(rows))
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("第 %d 行长度为 %d, 期望 %d", i, len(row), width)
		}
		copy(g.data[i*width:(i+1)*width], row)
	}
	return g, nil
}

// MustFromRows 与 FromRows 相同，出错时 panic
func MustFromRows(rows [][]float64) *Grid {
	g, err := FromRows(rows)
	if err != nil {
		panic(err)
	}
	return g
}

// Width 返回列数
func (g *Grid) Width() int {
	return g.width
}

// Height 返回行数
func (g *Grid) Height() int {
	return g.height
}

// At 返回 (row, col) 处的值
func (g *Grid) At(row, col int) float64 {
	return g.data[row*g.width+col]
}

// Set 设置 (row, col) 处的值
func (g *Grid) Set(row, col int, v float64) {
	g.data[row*g.width+col] = v
}

// Row 返回第 row 行（共享底层存储，调用方不得修改）
func (g *Grid) Row(row int) []float64 {
	return g.data[row*g.width : (row+1)*g.width]
}

// Rows 返回网格数据的深拷贝
func (g *Grid) Rows() [][]float64 {
	rows := make([][]float64, g.height)
	for i := range rows {
		rows[i] = append([]float64(nil), g.Row(i)...)
	}
	return rows
}

// Data 返回行优先的底层数据（调用方不得修改）
func (g *Grid) Data() []float64 {
	return g.data
}

// Mean 返回所有元素的算术平均值
func (g *Grid) Mean() float64 {
	sum := 0.0
	for _, v := range g.data {
		sum += v
	}
	return sum / float64(len(g.data))
}

// String 返回字符串表示
func (g *Grid) String() string {
	return fmt.Sprintf("Grid(%dx%d)", g.width, g.height)
}
