package vision

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/corona10/goimagehash"

	"github.com/zoeyai/patternsearch/internal/logger"
	"github.com/zoeyai/patternsearch/pkg/vision/collector"
	"github.com/zoeyai/patternsearch/pkg/vision/gray"
	"github.com/zoeyai/patternsearch/pkg/vision/ncc"
)

const (
	// MaxResultCount 最大匹配结果数量
	MaxResultCount = 10
)

// TemplateMatching 基于 NCC 相似度图的模板匹配器
type TemplateMatching struct {
	pattern   *ncc.Grid
	scene     *ncc.Grid
	threshold float64
	cfg       *matchConfig

	similarity  *ncc.Grid
	patternHash *goimagehash.ImageHash
}

// NewTemplateMatching 创建模板匹配器
// threshold 覆盖 opts 中的 WithThreshold
func NewTemplateMatching(pattern, scene *ncc.Grid, threshold float64, opts ...Option) *TemplateMatching {
	cfg := newMatchConfig(opts)
	cfg.threshold = threshold
	return &TemplateMatching{
		pattern:   pattern,
		scene:     scene,
		threshold: threshold,
		cfg:       cfg,
	}
}

// SimilarityMap 返回相似度图，结果在首次计算后缓存
// 计算只受调用方 ctx 控制，FindTimeout 仅用于 MatchLoop
func (t *TemplateMatching) SimilarityMap(ctx context.Context) (*ncc.Grid, error) {
	if t.similarity != nil {
		return t.similarity, nil
	}

	// 检查图像尺寸
	if err := checkSceneLargerThanPattern(t.scene, t.pattern); err != nil {
		return nil, err
	}

	startTime := time.Now()
	m, err := ncc.SimilarityMatrixContext(ctx, t.pattern, t.scene, t.cfg.strategy, ncc.WithWorkers(t.cfg.workers))
	elapsed := float64(time.Since(startTime).Microseconds()) / 1000
	if err != nil {
		logger.LogEvent("NCC", false, elapsed, err.Error())
		return nil, fmt.Errorf("计算相似度图失败: %w", err)
	}
	logger.LogEvent("NCC", true, elapsed, fmt.Sprintf("%s %dx%d", t.cfg.strategy, m.Width(), m.Height()))

	t.similarity = m
	return m, nil
}

// SetSimilarityMap 使用已有的相似度图（例如远端计算的结果），尺寸必须与 MapSize 一致
func (t *TemplateMatching) SetSimilarityMap(m *ncc.Grid) error {
	if err := checkSceneLargerThanPattern(t.scene, t.pattern); err != nil {
		return err
	}
	if m == nil {
		return errors.New("相似度图为空")
	}
	w, h := ncc.MapSize(t.pattern, t.scene, t.cfg.strategy)
	if m.Width() != w || m.Height() != h {
		return fmt.Errorf("相似度图尺寸 %dx%d 与期望 %dx%d 不一致", m.Width(), m.Height(), w, h)
	}
	t.similarity = m
	return nil
}

// FindBestResult 查找最佳匹配结果，分数低于阈值时返回 nil
func (t *TemplateMatching) FindBestResult(ctx context.Context) (*MatchResult, error) {
	startTime := time.Now()

	m, err := t.SimilarityMap(ctx)
	if err != nil {
		return nil, err
	}

	best := collector.FindBest(m, false)
	if best.Score < t.threshold {
		logger.Debug("最佳分数 %.4f 低于阈值 %.4f", best.Score, t.threshold)
		return nil, nil
	}

	result, err := t.newResult(best)
	if err != nil {
		return nil, err
	}
	result.Time = float64(time.Since(startTime).Milliseconds())
	return result, nil
}

// FindAllResults 查找所有不低于阈值的匹配结果，按分数从高到低排列
// 每找到一个结果，就屏蔽其周围模板大小一半范围内的位置
func (t *TemplateMatching) FindAllResults(ctx context.Context) ([]*MatchResult, error) {
	startTime := time.Now()

	m, err := t.SimilarityMap(ctx)
	if err != nil {
		return nil, err
	}

	masked := ncc.MustFromRows(m.Rows())
	h, w := t.pattern.Height(), t.pattern.Width()
	limit := t.cfg.maxResults
	if limit <= 0 {
		limit = MaxResultCount
	}

	var results []*MatchResult
	for len(results) < limit {
		best := collector.FindBest(masked, false)
		if best.Score < t.threshold || math.IsInf(best.Score, -1) {
			break
		}

		result, err := t.newResult(best)
		if err != nil {
			return nil, err
		}
		result.Time = float64(time.Since(startTime).Milliseconds())
		results = append(results, result)

		// 屏蔽已匹配区域
		suppress(masked, best.Row, best.Col, w/2, h/2)
	}

	return results, nil
}

// newResult 由相似度图中的位置构造匹配结果
func (t *TemplateMatching) newResult(pos collector.Position) (*MatchResult, error) {
	w, h := t.pattern.Width(), t.pattern.Height()
	rectangle := NewRectangle(pos.Col, pos.Row, w, h)

	distance, err := t.hashDistance(pos)
	if err != nil {
		return nil, err
	}

	return &MatchResult{
		Result:       Point{X: pos.Col + w/2, Y: pos.Row + h/2},
		Rectangle:    rectangle,
		Confidence:   pos.Score,
		HashDistance: distance,
	}, nil
}

// hashDistance 计算模板与匹配区域差异哈希的汉明距离
func (t *TemplateMatching) hashDistance(pos collector.Position) (int, error) {
	if t.patternHash == nil {
		h, err := goimagehash.DifferenceHash(gray.ToImage(t.pattern))
		if err != nil {
			return 0, fmt.Errorf("计算模板哈希失败: %w", err)
		}
		t.patternHash = h
	}

	crop := ncc.Extract(t.scene, pos.Row, pos.Col, t.pattern.Width(), t.pattern.Height(), t.cfg.strategy)
	h, err := goimagehash.DifferenceHash(gray.ToImage(crop))
	if err != nil {
		return 0, fmt.Errorf("计算匹配区域哈希失败: %w", err)
	}
	return t.patternHash.Distance(h)
}

// suppress 将 (row, col) 周围 ±dy、±dx 范围内的分数置为 -Inf
func suppress(m *ncc.Grid, row, col, dx, dy int) {
	for i := max(0, row-dy); i <= min(m.Height()-1, row+dy); i++ {
		for j := max(0, col-dx); j <= min(m.Width()-1, col+dx); j++ {
			m.Set(i, j, math.Inf(-1))
		}
	}
}

// checkSceneLargerThanPattern 检查场景是否不小于模板
func checkSceneLargerThanPattern(scene, pattern *ncc.Grid) error {
	if err := ncc.Validate(pattern, scene); err != nil {
		if pattern == nil || scene == nil {
			return fmt.Errorf("模板或场景为空: %w", err)
		}
		return &ImageSizeError{
			SceneSize:   [2]int{scene.Width(), scene.Height()},
			PatternSize: [2]int{pattern.Width(), pattern.Height()},
		}
	}
	return nil
}
