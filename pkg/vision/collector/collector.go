// Package collector 从相似度图中挑选最佳匹配位置
package collector

import (
	"cmp"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/zoeyai/patternsearch/pkg/vision/ncc"
)

// Position 相似度图中的一个位置及其分数
type Position struct {
	Row   int     `json:"row"`
	Col   int     `json:"col"`
	Score float64 `json:"score"`
}

// FindBest 返回分数最大（smallestFirst 为 true 时最小）的位置
// 多个位置分数相同时取行优先顺序中的第一个
func FindBest(m *ncc.Grid, smallestFirst bool) Position {
	data := m.Data()
	var k int
	if smallestFirst {
		k = floats.MinIdx(data)
	} else {
		k = floats.MaxIdx(data)
	}
	return Position{Row: k / m.Width(), Col: k % m.Width(), Score: data[k]}
}

// FindNBest 按分数从好到差返回前 n 个位置，分数相同时保持行优先顺序
// n 大于元素个数时返回全部位置，n <= 0 时返回 nil
func FindNBest(n int, m *ncc.Grid, smallestFirst bool) []Position {
	if n <= 0 {
		return nil
	}

	data := m.Data()
	positions := make([]Position, len(data))
	for k, v := range data {
		positions[k] = Position{Row: k / m.Width(), Col: k % m.Width(), Score: v}
	}

	slices.SortStableFunc(positions, func(a, b Position) int {
		if smallestFirst {
			return cmp.Compare(a.Score, b.Score)
		}
		return cmp.Compare(b.Score, a.Score)
	})
	return positions[:min(n, len(positions))]
}

// Stats 相似度图的统计信息
type Stats struct {
	Count     int     `json:"count"`     // 有效分数个数
	Undefined int     `json:"undefined"` // 哨兵值个数
	Mean      float64 `json:"mean"`
	StdDev    float64 `json:"std_dev"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
}

// Summary 统计相似度图中除哨兵值外的分数
// 恰好为 -1 的真实分数与哨兵值无法区分，同样计入 Undefined
func Summary(m *ncc.Grid) Stats {
	defined := make([]float64, 0, len(m.Data()))
	for _, v := range m.Data() {
		if v != ncc.Undefined {
			defined = append(defined, v)
		}
	}

	s := Stats{
		Count:     len(defined),
		Undefined: len(m.Data()) - len(defined),
	}
	if len(defined) == 0 {
		return s
	}

	s.Mean, s.StdDev = stat.MeanStdDev(defined, nil)
	if len(defined) == 1 {
		s.StdDev = 0
	}
	s.Min = floats.Min(defined)
	s.Max = floats.Max(defined)
	return s
}
