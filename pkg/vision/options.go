package vision

import (
	"time"

	"github.com/zoeyai/patternsearch/pkg/vision/ncc"
)

// Options 全局配置选项
type Options struct {
	Threshold   float64       // 匹配阈值，默认 0.8
	Strategy    ncc.Strategy  // 边界策略，默认 Default
	Workers     int           // 并行 worker 数，<= 0 表示 GOMAXPROCS
	MaxResults  int           // FindAllResults 的最大结果数
	FindTimeout time.Duration // MatchLoop 的等待超时，0 表示不限制
	Interval    time.Duration // MatchLoop 的重试间隔
}

// DefaultOptions 默认配置
var DefaultOptions = Options{
	Threshold:   0.8,
	Strategy:    ncc.Default,
	Workers:     0,
	MaxResults:  MaxResultCount,
	FindTimeout: 10 * time.Second,
	Interval:    500 * time.Millisecond,
}

// globalOptions 全局配置实例
var globalOptions = DefaultOptions

// GetOptions 获取当前全局配置
func GetOptions() *Options {
	return &globalOptions
}

// SetOptions 设置全局配置
func SetOptions(opts Options) {
	globalOptions = opts
}

// ResetOptions 重置为默认配置
func ResetOptions() {
	globalOptions = DefaultOptions
}

// Option 配置选项函数类型
type Option func(*matchConfig)

// matchConfig 匹配时的临时配置
type matchConfig struct {
	threshold  float64
	strategy   ncc.Strategy
	workers    int
	maxResults int
	timeout    time.Duration
	interval   time.Duration
}

// defaultMatchConfig 默认匹配配置
func defaultMatchConfig() *matchConfig {
	return &matchConfig{
		threshold:  globalOptions.Threshold,
		strategy:   globalOptions.Strategy,
		workers:    globalOptions.Workers,
		maxResults: globalOptions.MaxResults,
		timeout:    globalOptions.FindTimeout,
		interval:   globalOptions.Interval,
	}
}

func newMatchConfig(opts []Option) *matchConfig {
	cfg := defaultMatchConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithThreshold 设置匹配阈值
func WithThreshold(threshold float64) Option {
	return func(c *matchConfig) {
		c.threshold = threshold
	}
}

// WithStrategy 设置边界策略
func WithStrategy(strategy ncc.Strategy) Option {
	return func(c *matchConfig) {
		c.strategy = strategy
	}
}

// WithWorkers 设置计算相似度图的 worker 数量
func WithWorkers(n int) Option {
	return func(c *matchConfig) {
		c.workers = n
	}
}

// WithMaxResults 设置 FindAllResults 返回的最大结果数
func WithMaxResults(n int) Option {
	return func(c *matchConfig) {
		c.maxResults = n
	}
}

// WithTimeout 设置 MatchLoop 的等待超时
func WithTimeout(timeout time.Duration) Option {
	return func(c *matchConfig) {
		c.timeout = timeout
	}
}

// WithInterval 设置 MatchLoop 的重试间隔
func WithInterval(interval time.Duration) Option {
	return func(c *matchConfig) {
		c.interval = interval
	}
}
