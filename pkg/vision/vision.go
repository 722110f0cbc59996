// Package vision 提供基于归一化互相关 (NCC) 的模板匹配
//
// 主要功能:
//   - 相似度图: 模板在场景每个放置位置上的 NCC 分数
//   - 最佳匹配 / 多目标匹配: 阈值过滤与邻域屏蔽
//   - 边界策略: Default、Wrap、Mirror
//
// 基本用法:
//
//	pos, err := vision.FindLocation(ctx, "screen.png", "template.png")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("找到位置: (%d, %d)\n", pos.X, pos.Y)
//
//	// 使用自定义选项
//	results, err := vision.FindAllLocations(ctx, "screen.png", "icon.png",
//	    vision.WithThreshold(0.9),
//	    vision.WithStrategy(ncc.Mirror),
//	)
package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/zoeyai/patternsearch/internal/logger"
	"github.com/zoeyai/patternsearch/pkg/vision/gray"
	"github.com/zoeyai/patternsearch/pkg/vision/ncc"
)

// Version 版本号
const Version = "1.0.0"

// ============ 便捷函数 ============

// FindLocation 在场景中查找模板位置，返回匹配区域中心点
// scene / pattern: 文件路径 (string)、image.Image 或 *ncc.Grid
// 没有分数不低于阈值的位置时返回 nil, nil
func FindLocation(ctx context.Context, scene, pattern interface{}, opts ...Option) (*Point, error) {
	result, err := FindBestResult(ctx, scene, pattern, opts...)
	if err != nil || result == nil {
		return nil, err
	}
	return &result.Result, nil
}

// FindBestResult 在场景中查找最佳匹配结果
func FindBestResult(ctx context.Context, scene, pattern interface{}, opts ...Option) (*MatchResult, error) {
	tm, err := newTemplateMatching(scene, pattern, opts)
	if err != nil {
		return nil, err
	}
	return tm.FindBestResult(ctx)
}

// FindAllLocations 在场景中查找所有模板位置
func FindAllLocations(ctx context.Context, scene, pattern interface{}, opts ...Option) ([]*MatchResult, error) {
	tm, err := newTemplateMatching(scene, pattern, opts)
	if err != nil {
		return nil, err
	}
	return tm.FindAllResults(ctx)
}

// MatchLoop 循环截图匹配直到找到或超时
// 超时由 WithTimeout 控制，重试间隔由 WithInterval 控制
// 超时返回 nil, nil；ctx 被取消时返回 ctx.Err()
func MatchLoop(ctx context.Context, captureFn func() (image.Image, error), pattern interface{}, opts ...Option) (*Point, error) {
	cfg := newMatchConfig(opts)

	patternGrid, err := LoadGrid(pattern)
	if err != nil {
		return nil, err
	}

	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	for attempt := 1; ; attempt++ {
		img, err := captureFn()
		if err != nil {
			return nil, fmt.Errorf("截图失败: %w", err)
		}

		pos, err := FindLocation(ctx, img, patternGrid, opts...)
		if err == nil && pos != nil {
			logger.Info("第 %d 次尝试找到目标: (%d, %d)", attempt, pos.X, pos.Y)
			return pos, nil
		}
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				logger.Warn("循环匹配已取消, 共尝试 %d 次", attempt)
				return nil, ctx.Err()
			}
			logger.Warn("循环匹配超时, 共尝试 %d 次", attempt)
			return nil, nil
		case <-time.After(cfg.interval):
		}
	}
}

// ============ 工具函数 ============

// LoadGrid 加载灰度网格
// 支持 string (文件路径)、image.Image、*ncc.Grid
func LoadGrid(input interface{}) (*ncc.Grid, error) {
	switch v := input.(type) {
	case string:
		return gray.Load(v)
	case *ncc.Grid:
		if v == nil {
			return nil, errors.New("网格为空")
		}
		return v, nil
	case image.Image:
		return gray.FromImage(v)
	default:
		return nil, fmt.Errorf("不支持的图像输入类型: %T", input)
	}
}

func newTemplateMatching(scene, pattern interface{}, opts []Option) (*TemplateMatching, error) {
	sceneGrid, err := LoadGrid(scene)
	if err != nil {
		return nil, fmt.Errorf("加载场景失败: %w", err)
	}
	patternGrid, err := LoadGrid(pattern)
	if err != nil {
		return nil, fmt.Errorf("加载模板失败: %w", err)
	}

	cfg := newMatchConfig(opts)
	return NewTemplateMatching(patternGrid, sceneGrid, cfg.threshold, opts...), nil
}
