package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zoeyai/patternsearch/internal/logger"
	"github.com/zoeyai/patternsearch/pkg/config"
	"github.com/zoeyai/patternsearch/pkg/grpc"
	"github.com/zoeyai/patternsearch/pkg/process"
	"github.com/zoeyai/patternsearch/pkg/screen"
	"github.com/zoeyai/patternsearch/pkg/vision"
	"github.com/zoeyai/patternsearch/pkg/vision/collector"
	"github.com/zoeyai/patternsearch/pkg/vision/cv"
	"github.com/zoeyai/patternsearch/pkg/vision/gray"
	"github.com/zoeyai/patternsearch/pkg/vision/ncc"
	"github.com/zoeyai/patternsearch/pkg/vision/render"
)

// 版本信息 (可通过 ldflags 注入)
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// cliOptions 命令行参数
type cliOptions struct {
	pattern   string
	scene     string
	useScreen bool
	strategy  string
	threshold float64
	workers   int
	all       bool
	maxCount  int
	out       string
	mapFile   string
	heatmap   string
	verify    bool
	serve     bool
	remote    string
	useRemote bool
	stats     bool
	timeout   time.Duration
	logLevel  string
}

func main() {
	// 命令行参数
	var opts cliOptions
	var (
		saveConfig  = flag.Bool("save", false, "保存配置到本地")
		showVersion = flag.Bool("version", false, "显示版本信息")
		showHelp    = flag.Bool("help", false, "显示帮助信息")
	)
	flag.StringVar(&opts.pattern, "pattern", "", "模板图像路径")
	flag.StringVar(&opts.scene, "scene", "", "场景图像路径")
	flag.BoolVar(&opts.useScreen, "screen", false, "截取当前屏幕作为场景")
	flag.StringVar(&opts.strategy, "strategy", "", "边界策略: default / wrap / mirror")
	flag.Float64Var(&opts.threshold, "threshold", 0, "匹配阈值 [-1, 1]")
	flag.IntVar(&opts.workers, "workers", -1, "并行 worker 数，0 表示自动")
	flag.BoolVar(&opts.all, "all", false, "查找所有匹配位置")
	flag.IntVar(&opts.maxCount, "max", 0, "多目标匹配的最大结果数")
	flag.StringVar(&opts.out, "out", "", "保存标注后的场景图像")
	flag.StringVar(&opts.mapFile, "map", "", "保存相似度图 (灰度图像)")
	flag.StringVar(&opts.heatmap, "heatmap", "", "保存相似度热力图 (.png / .svg / .pdf)")
	flag.BoolVar(&opts.verify, "verify", false, "与 OpenCV 的 TM_CCOEFF_NORMED 结果比较")
	flag.BoolVar(&opts.serve, "serve", false, "启动 gRPC 服务")
	flag.StringVar(&opts.remote, "remote", "", "使用远端 gRPC 服务计算 (例: localhost:50051)")
	flag.BoolVar(&opts.stats, "stats", false, "打印相似度图统计与进程资源占用")
	flag.DurationVar(&opts.timeout, "timeout", 0, "配合 -screen 循环截图直到找到或超时")
	flag.StringVar(&opts.logLevel, "log-level", "", "日志级别: DEBUG / INFO / WARN / ERROR")

	flag.Parse()

	// 显示版本
	if *showVersion {
		printVersion()
		return
	}

	// 显示帮助
	if *showHelp {
		printHelp()
		return
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("[WARN] 加载配置失败: %v\n", err)
		cfg = config.DefaultMatchConfig()
	}

	// 命令行参数优先级高于配置文件
	applyFlags(cfg, &opts)
	if err := cfg.Validate(); err != nil {
		fmt.Printf("[ERROR] 配置无效: %v\n", err)
		os.Exit(1)
	}

	setupLogger(cfg)
	defer logger.Default().Close()

	// 保存配置
	if *saveConfig {
		if err := config.Save(cfg); err != nil {
			fmt.Printf("[WARN] 保存配置失败: %v\n", err)
		} else {
			fmt.Printf("[INFO] 配置已保存到 %s\n", config.GetDefaultManager().GetConfigFile())
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.serve {
		err = runServer(ctx, cfg)
	} else {
		err = runMatch(ctx, cfg, &opts)
	}
	if err != nil {
		fmt.Printf("[ERROR] %v\n", err)
		os.Exit(1)
	}
}

// applyFlags 用显式指定的命令行参数覆盖配置
func applyFlags(cfg *config.MatchConfig, opts *cliOptions) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "strategy":
			cfg.Strategy = opts.strategy
		case "threshold":
			cfg.Threshold = opts.threshold
		case "workers":
			cfg.Workers = opts.workers
		case "max":
			cfg.MaxResults = opts.maxCount
		case "log-level":
			cfg.LogLevel = opts.logLevel
		case "remote":
			cfg.ServerAddr = opts.remote
			opts.useRemote = true
		}
	})
}

// setupLogger 根据配置初始化日志
func setupLogger(cfg *config.MatchConfig) {
	l := logger.Default()
	l.SetLevel(logger.ParseLevel(cfg.LogLevel))
	if cfg.LogFile != "" {
		if err := l.SetFile(true, cfg.LogFile); err != nil {
			fmt.Printf("[WARN] 打开日志文件失败: %v\n", err)
		}
	}
}

// runServer 启动 gRPC 服务直到收到中断信号
func runServer(ctx context.Context, cfg *config.MatchConfig) error {
	fmt.Println("========================================")
	fmt.Printf("  Pattern Search v%s\n", Version)
	fmt.Println("========================================")
	fmt.Printf("监听地址: %s\n", cfg.ServerAddr)
	fmt.Println("[INFO] 按 Ctrl+C 退出")
	fmt.Println()

	return grpc.ListenAndServe(ctx, cfg.ServerAddr, grpc.NewServer(cfg.Workers))
}

// runMatch 执行一次本地或远端匹配
func runMatch(ctx context.Context, cfg *config.MatchConfig, opts *cliOptions) error {
	if opts.pattern == "" {
		printHelp()
		return errors.New("缺少模板图像，请使用 -pattern 参数指定")
	}
	if opts.scene == "" && !opts.useScreen {
		printHelp()
		return errors.New("缺少场景，请使用 -scene 或 -screen 参数指定")
	}

	strategy := ncc.ParseStrategy(cfg.Strategy)
	matchOpts := []vision.Option{
		vision.WithThreshold(cfg.Threshold),
		vision.WithStrategy(strategy),
		vision.WithWorkers(cfg.Workers),
		vision.WithMaxResults(cfg.MaxResults),
	}

	pattern, err := gray.Load(opts.pattern)
	if err != nil {
		return err
	}

	sceneImg, err := loadScene(ctx, opts, pattern, matchOpts)
	if err != nil {
		return err
	}
	scene, err := gray.FromImage(sceneImg)
	if err != nil {
		return err
	}

	m, results, err := match(ctx, cfg, opts, pattern, scene, matchOpts)
	if err != nil {
		return err
	}

	printResults(results)

	if opts.stats {
		printStats(m)
	}
	if opts.verify {
		verify(pattern, scene, cfg.Workers)
	}
	return saveOutputs(opts, sceneImg, m, results)
}

// loadScene 读取场景图像，-screen 配合 -timeout 时循环截图直到模板出现
func loadScene(ctx context.Context, opts *cliOptions, pattern *ncc.Grid, matchOpts []vision.Option) (image.Image, error) {
	if !opts.useScreen {
		return gray.LoadImage(opts.scene)
	}

	if hint := screen.PermissionHint(); hint != "" {
		fmt.Printf("[WARN] %s\n", hint)
		screen.OpenPermissionSettings()
	}

	if opts.timeout <= 0 {
		return screen.CaptureScreen()
	}

	var last image.Image
	capture := func() (image.Image, error) {
		img, err := screen.CaptureScreen()
		last = img
		return img, err
	}
	loopOpts := append(append([]vision.Option(nil), matchOpts...), vision.WithTimeout(opts.timeout))
	pos, err := vision.MatchLoop(ctx, capture, pattern, loopOpts...)
	if err != nil {
		return nil, err
	}
	if pos == nil {
		fmt.Printf("[WARN] %v 内未在屏幕上找到模板\n", opts.timeout)
	}
	if last == nil {
		return screen.CaptureScreen()
	}
	return last, nil
}

// match 计算相似度图并选取匹配结果
// 指定 -remote 时相似度图由 gRPC 服务计算，阈值过滤、多目标屏蔽与哈希校验仍在本地完成
func match(ctx context.Context, cfg *config.MatchConfig, opts *cliOptions, pattern, scene *ncc.Grid, matchOpts []vision.Option) (*ncc.Grid, []*vision.MatchResult, error) {
	tm := vision.NewTemplateMatching(pattern, scene, cfg.Threshold, matchOpts...)

	if opts.useRemote {
		m, err := remoteSimilarity(ctx, cfg, pattern, scene)
		if err != nil {
			return nil, nil, err
		}
		if err := tm.SetSimilarityMap(m); err != nil {
			return nil, nil, fmt.Errorf("远端相似度图无效: %w", err)
		}
	}

	m, err := tm.SimilarityMap(ctx)
	if err != nil {
		return nil, nil, err
	}

	if opts.all {
		results, err := tm.FindAllResults(ctx)
		return m, results, err
	}
	best, err := tm.FindBestResult(ctx)
	if err != nil || best == nil {
		return m, nil, err
	}
	return m, []*vision.MatchResult{best}, nil
}

// remoteSimilarity 请求 gRPC 服务计算相似度图
func remoteSimilarity(ctx context.Context, cfg *config.MatchConfig, pattern, scene *ncc.Grid) (*ncc.Grid, error) {
	client, err := grpc.Dial(cfg.ServerAddr)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	resp, err := client.Similarity(ctx, &grpc.MatchRequest{
		Pattern:  pattern,
		Scene:    scene,
		Strategy: ncc.ParseStrategy(cfg.Strategy),
		Workers:  cfg.Workers,
	})
	if err != nil {
		return nil, fmt.Errorf("远端计算失败 (%s): %w", cfg.ServerAddr, err)
	}
	logger.Info("远端计算完成: request_id=%s", resp.RequestID)
	return resp.Map, nil
}

// printResults 打印匹配结果
func printResults(results []*vision.MatchResult) {
	if len(results) == 0 {
		fmt.Println("[INFO] 未找到匹配")
		return
	}
	for i, r := range results {
		rect := r.Rectangle
		fmt.Printf("#%d 中心 (%d, %d)  区域 (%d, %d) %dx%d  分数 %.4f  哈希距离 %d\n",
			i+1, r.Result.X, r.Result.Y,
			rect.TopLeft.X, rect.TopLeft.Y, rect.Width(), rect.Height(),
			r.Confidence, r.HashDistance)
	}
}

// printStats 打印相似度图统计与进程资源占用
func printStats(m *ncc.Grid) {
	s := collector.Summary(m)
	fmt.Println()
	fmt.Printf("相似度图: %dx%d\n", m.Width(), m.Height())
	fmt.Printf("  有效分数: %d  未定义: %d\n", s.Count, s.Undefined)
	fmt.Printf("  均值: %.4f  标准差: %.4f  范围: [%.4f, %.4f]\n", s.Mean, s.StdDev, s.Min, s.Max)

	if u, err := process.CurrentUsage(); err == nil {
		fmt.Printf("进程: %s\n", u)
	} else {
		fmt.Printf("[WARN] 获取进程信息失败: %v\n", err)
	}
}

// verify 与 OpenCV 参考实现比较
func verify(pattern, scene *ncc.Grid, workers int) {
	c, err := cv.Compare(pattern, scene, ncc.WithWorkers(workers))
	if err != nil {
		fmt.Printf("[WARN] OpenCV 比较失败: %v\n", err)
		return
	}
	fmt.Printf("OpenCV 比较: 最大偏差 %.6f @ (%d, %d)，比较 %d 个位置，跳过 %d 个\n",
		c.MaxDeviation, c.Row, c.Col, c.Compared, c.Skipped)
}

// saveOutputs 保存标注图、相似度图和热力图
func saveOutputs(opts *cliOptions, sceneImg image.Image, m *ncc.Grid, results []*vision.MatchResult) error {
	if opts.out != "" {
		boxes := make([]render.Box, len(results))
		for i, r := range results {
			boxes[i] = render.Box{
				Rect:  r.Rectangle.ToImageRect(),
				Label: fmt.Sprintf("%.3f", r.Confidence),
			}
		}
		annotated, err := render.Annotate(sceneImg, boxes...)
		if err != nil {
			return err
		}
		if err := gray.Save(opts.out, annotated); err != nil {
			return err
		}
		fmt.Printf("[INFO] 标注图已保存: %s\n", opts.out)
	}

	if opts.mapFile != "" {
		if err := gray.Save(opts.mapFile, gray.MapToImage(m, -1, 1)); err != nil {
			return err
		}
		fmt.Printf("[INFO] 相似度图已保存: %s\n", opts.mapFile)
	}

	if opts.heatmap != "" {
		if err := render.SaveHeatmap(m, opts.heatmap, render.DefaultHeatmapOptions); err != nil {
			return err
		}
		fmt.Printf("[INFO] 热力图已保存: %s\n", opts.heatmap)
	}
	return nil
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("Pattern Search v%s\n", Version)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
	fmt.Printf("Library: vision v%s, grpc v%s\n", vision.Version, grpc.Version)
}

// printHelp 打印帮助信息
func printHelp() {
	fmt.Println("Pattern Search - 基于 NCC 的模板匹配工具")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  patternsearch -pattern 模板 (-scene 场景 | -screen) [选项]")
	fmt.Println("  patternsearch -serve [-remote 地址]")
	fmt.Println()
	fmt.Println("选项:")
	fmt.Println("  -pattern string     模板图像路径")
	fmt.Println("  -scene string       场景图像路径")
	fmt.Println("  -screen             截取当前屏幕作为场景")
	fmt.Println("  -strategy string    边界策略: default / wrap / mirror")
	fmt.Println("  -threshold float    匹配阈值 [-1, 1]")
	fmt.Println("  -workers int        并行 worker 数，0 表示自动")
	fmt.Println("  -all                查找所有匹配位置")
	fmt.Println("  -max int            多目标匹配的最大结果数")
	fmt.Println("  -out string         保存标注后的场景图像")
	fmt.Println("  -map string         保存相似度图 (灰度图像)")
	fmt.Println("  -heatmap string     保存相似度热力图")
	fmt.Println("  -verify             与 OpenCV 结果比较")
	fmt.Println("  -stats              打印统计信息与资源占用")
	fmt.Println("  -timeout duration   配合 -screen 循环截图直到找到或超时")
	fmt.Println("  -serve              启动 gRPC 服务")
	fmt.Println("  -remote string      使用远端 gRPC 服务计算")
	fmt.Println("  -log-level string   日志级别")
	fmt.Println("  -save               保存配置到本地")
	fmt.Println("  -version            显示版本信息")
	fmt.Println("  -help               显示帮助信息")
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  # 查找最佳匹配并保存标注图")
	fmt.Println("  patternsearch -pattern icon.png -scene screen.png -out result.png")
	fmt.Println()
	fmt.Println("  # Mirror 策略查找所有匹配，输出热力图")
	fmt.Println("  patternsearch -pattern icon.png -scene screen.png -strategy mirror -all -heatmap map.png")
	fmt.Println()
	fmt.Println("  # 启动服务 / 远端计算")
	fmt.Println("  patternsearch -serve -remote :50051")
	fmt.Println("  patternsearch -pattern icon.png -scene screen.png -remote localhost:50051")
	fmt.Println()
	fmt.Printf("配置文件位置: %s\n", config.GetDefaultManager().GetConfigFile())
}
