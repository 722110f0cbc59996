package ncc

import "math"

// Undefined 零方差（模板或窗口为平坦区域）时返回的哨兵分数
const Undefined = -1.0

// patternStats 模板的统计量，对同一模板的所有放置位置只计算一次
type patternStats struct {
	width      int
	height     int
	mean       float64
	centered   []float64 // 行优先，cell - mean
	sumSquares float64
}

func newPatternStats(pattern *Grid) *patternStats {
	p := &patternStats{
		width:    pattern.width,
		height:   pattern.height,
		mean:     pattern.Mean(),
		centered: make([]float64, len(pattern.data)),
	}
	for k, v := range pattern.data {
		d := v - p.mean
		p.centered[k] = d
		p.sumSquares += d * d
	}
	return p
}

// NormalizedCrossCorrelation 计算模板左上角放在场景 (row, col) 处时的 NCC 分数
//
// 返回值在 [-1, 1] 内: 1 为完全正相关，-1 为完全负相关，接近 0 为不相关。
// 模板或窗口方差为 0 时返回 Undefined。
func NormalizedCrossCorrelation(row, col int, pattern, scene *Grid, strategy Strategy) float64 {
	if pattern == nil {
		fail("NormalizedCrossCorrelation", "模板为空")
	}
	checkWindow("NormalizedCrossCorrelation", scene, row, col, pattern.width, pattern.height, strategy)

	rows := newAxis(row, pattern.height, scene.height, strategy)
	cols := newAxis(col, pattern.width, scene.width, strategy)
	return correlate(newPatternStats(pattern), scene, rows, cols)
}

// correlate rows / cols 为已解析的场景索引，长度分别等于模板高和宽
func correlate(p *patternStats, scene *Grid, rows, cols axis) float64 {
	sceneMean := windowMean(scene, rows, cols)

	var cross, sceneSS float64
	for i, r := range rows {
		line := scene.Row(r)
		centered := p.centered[i*p.width : (i+1)*p.width]
		for j, c := range cols {
			d := line[c] - sceneMean
			cross += d * centered[j]
			sceneSS += d * d
		}
	}

	denominator := sceneSS * p.sumSquares
	if denominator == 0 {
		return Undefined
	}
	return cross / math.Sqrt(denominator)
}
