package ncc

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Option 相似度图构建选项
type Option func(*buildConfig)

type buildConfig struct {
	workers int
}

// WithWorkers 设置并行计算的 worker 数量
// n <= 0 时使用 GOMAXPROCS，n == 1 时在调用方 goroutine 中顺序计算
func WithWorkers(n int) Option {
	return func(c *buildConfig) {
		c.workers = n
	}
}

// MapSize 返回相似度图的尺寸 (width, height)
// Default 策略只统计完全位于场景内的放置位置；Wrap / Mirror 下每个像素都是合法左上角
func MapSize(pattern, scene *Grid, strategy Strategy) (width, height int) {
	if strategy.normalize() == Default {
		return scene.width - pattern.width + 1, scene.height - pattern.height + 1
	}
	return scene.width, scene.height
}

// SimilarityMatrix 在场景上滑动模板，返回每个放置位置的 NCC 分数
// 结果的 [i][j] 与 NormalizedCrossCorrelation(i, j, pattern, scene, strategy) 完全相同
func SimilarityMatrix(pattern, scene *Grid, strategy Strategy, opts ...Option) *Grid {
	// Background 不会被取消，err 恒为 nil
	m, _ := SimilarityMatrixContext(context.Background(), pattern, scene, strategy, opts...)
	return m
}

// SimilarityMatrixContext 与 SimilarityMatrix 相同，但在行之间检查 ctx 是否已取消
func SimilarityMatrixContext(ctx context.Context, pattern, scene *Grid, strategy Strategy, opts ...Option) (*Grid, error) {
	if err := validateShapes("SimilarityMatrix", pattern, scene); err != nil {
		panic(err)
	}

	cfg := &buildConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	workers := cfg.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	outW, outH := MapSize(pattern, scene, strategy)
	out := NewGrid(outW, outH)

	stats := newPatternStats(pattern)
	rows := newAxis(0, outH+pattern.height-1, scene.height, strategy)
	cols := newAxis(0, outW+pattern.width-1, scene.width, strategy)

	fillRows := func(ctx context.Context, start, end int) error {
		for i := start; i < end; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			dst := out.Row(i)
			rowAxis := rows[i : i+pattern.height]
			for j := range dst {
				dst[j] = correlate(stats, scene, rowAxis, cols[j:j+pattern.width])
			}
		}
		return nil
	}

	workers = min(workers, outH)
	if workers == 1 {
		if err := fillRows(ctx, 0, outH); err != nil {
			return nil, err
		}
		return out, nil
	}

	// 每个 worker 处理一段连续的行，各行输出互不重叠
	g, gctx := errgroup.WithContext(ctx)
	chunk := (outH + workers - 1) / workers
	for start := 0; start < outH; start += chunk {
		end := min(start+chunk, outH)
		g.Go(func() error {
			return fillRows(gctx, start, end)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
