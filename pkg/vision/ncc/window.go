package ncc

// axis 缓存一个维度上连续索引的解析结果
type axis []int

func newAxis(start, span, maxLength int, strategy Strategy) axis {
	a := make(axis, span)
	for k := range a {
		a[k] = strategy.Resolve(start+k, maxLength)
	}
	return a
}

// WindowMean 计算左上角为 (row, col)、大小为 width × height 的窗口均值
// Wrap / Mirror 产生的重复像素逐个计入，不做去重
func WindowMean(grid *Grid, row, col, width, height int, strategy Strategy) float64 {
	checkWindow("WindowMean", grid, row, col, width, height, strategy)

	rows := newAxis(row, height, grid.height, strategy)
	cols := newAxis(col, width, grid.width, strategy)
	return windowMean(grid, rows, cols)
}

func windowMean(grid *Grid, rows, cols axis) float64 {
	sum := 0.0
	for _, r := range rows {
		line := grid.Row(r)
		for _, c := range cols {
			sum += line[c]
		}
	}
	return sum / float64(len(rows)*len(cols))
}

// Extract 按策略取出窗口内容，返回新的网格
func Extract(grid *Grid, row, col, width, height int, strategy Strategy) *Grid {
	checkWindow("Extract", grid, row, col, width, height, strategy)

	rows := newAxis(row, height, grid.height, strategy)
	cols := newAxis(col, width, grid.width, strategy)

	out := NewGrid(width, height)
	for i, r := range rows {
		line := grid.Row(r)
		dst := out.Row(i)
		for j, c := range cols {
			dst[j] = line[c]
		}
	}
	return out
}
