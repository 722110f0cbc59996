// Package logger 提供统一的日志工具
//
// 控制台输出使用 tint 彩色格式，文件输出使用 slog 文本格式。
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/lmittmann/tint"
)

// Level 日志级别
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case DEBUG:
		return slog.LevelDebug
	case WARN:
		return slog.LevelWarn
	case ERROR:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel 解析日志级别字符串
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Logger 日志记录器
type Logger struct {
	mu       sync.Mutex
	level    slog.LevelVar
	enabled  bool
	console  bool
	file     bool
	filePath string
	noColor  bool
	out      io.Writer
	fileOut  *os.File
	slog     *slog.Logger
}

// 全局默认 logger
var defaultLogger = New()

// New 创建新的 Logger 实例
func New() *Logger {
	l := &Logger{
		enabled: true,
		console: true,
		out:     os.Stdout,
	}
	l.level.Set(slog.LevelInfo)
	l.updateOutput()
	return l
}

// Default 获取默认 logger
func Default() *Logger {
	return defaultLogger
}

// SetLevel 设置日志级别
func (l *Logger) SetLevel(level Level) {
	l.level.Set(level.slogLevel())
}

// SetEnabled 设置是否启用日志
func (l *Logger) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

// SetConsole 设置是否输出到控制台
func (l *Logger) SetConsole(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.console = enabled
	l.updateOutput()
}

// SetOutput 替换控制台输出目标并关闭颜色，主要用于测试
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
	l.noColor = true
	l.updateOutput()
}

// SetFile 设置是否输出到文件
func (l *Logger) SetFile(enabled bool, path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// 关闭旧文件
	if l.fileOut != nil {
		l.fileOut.Close()
		l.fileOut = nil
	}

	l.file = enabled
	l.filePath = path

	if enabled && path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			l.updateOutput()
			return fmt.Errorf("无法打开日志文件: %w", err)
		}
		l.fileOut = f
	}

	l.updateOutput()
	return nil
}

func (l *Logger) updateOutput() {
	var handlers []slog.Handler

	if l.console {
		handlers = append(handlers, tint.NewHandler(l.out, &tint.Options{
			Level:      &l.level,
			TimeFormat: "15:04:05",
			NoColor:    l.noColor,
		}))
	}
	if l.file && l.fileOut != nil {
		handlers = append(handlers, slog.NewTextHandler(l.fileOut, &slog.HandlerOptions{
			Level: &l.level,
		}))
	}

	switch len(handlers) {
	case 0:
		l.slog = slog.New(slog.NewTextHandler(io.Discard, nil))
	case 1:
		l.slog = slog.New(handlers[0])
	default:
		l.slog = slog.New(fanout(handlers))
	}
}

// Slog 返回底层的 *slog.Logger，用于附加结构化字段
func (l *Logger) Slog() *slog.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l.slog
}

// log 内部日志方法
func (l *Logger) log(level Level, format string, args ...interface{}) {
	l.mu.Lock()
	enabled, s := l.enabled, l.slog
	l.mu.Unlock()

	if !enabled {
		return
	}
	ctx := context.Background()
	if !s.Enabled(ctx, level.slogLevel()) {
		return
	}
	s.Log(ctx, level.slogLevel(), fmt.Sprintf(format, args...))
}

// Debug 输出 DEBUG 级别日志
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(DEBUG, format, args...)
}

// Info 输出 INFO 级别日志
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(INFO, format, args...)
}

// Warn 输出 WARN 级别日志
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(WARN, format, args...)
}

// Error 输出 ERROR 级别日志
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(ERROR, format, args...)
}

// LogEvent 记录带分类的事件日志
func (l *Logger) LogEvent(category string, ok bool, elapsedMs float64, detail string) {
	l.mu.Lock()
	enabled, s := l.enabled, l.slog
	l.mu.Unlock()

	if !enabled {
		return
	}

	level, status := slog.LevelInfo, "OK"
	if !ok {
		level, status = slog.LevelError, "NG"
	}
	s.LogAttrs(context.Background(), level, detail,
		slog.String("category", category),
		slog.String("status", status),
		slog.Float64("elapsed_ms", elapsedMs),
	)
}

// Close 关闭 logger，释放资源
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fileOut != nil {
		err := l.fileOut.Close()
		l.fileOut = nil
		l.updateOutput()
		return err
	}
	return nil
}

// fanout 将每条记录分发给多个 handler
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

// 包级别便捷函数
func Debug(format string, args ...interface{}) { defaultLogger.Debug(format, args...) }
func Info(format string, args ...interface{})  { defaultLogger.Info(format, args...) }
func Warn(format string, args ...interface{})  { defaultLogger.Warn(format, args...) }
func Error(format string, args ...interface{}) { defaultLogger.Error(format, args...) }
func LogEvent(category string, ok bool, elapsedMs float64, detail string) {
	defaultLogger.LogEvent(category, ok, elapsedMs, detail)
}
