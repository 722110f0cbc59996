// Package process 提供 worker 数量推断与当前进程的资源统计
package process

import (
	"fmt"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/process"
)

// DefaultWorkers 返回逻辑 CPU 数，作为相似度图计算的默认 worker 数
// gopsutil 无法获取时回退到 runtime.NumCPU
func DefaultWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		return runtime.NumCPU()
	}
	return n
}

// Usage 当前进程的资源占用
type Usage struct {
	PID        int     `json:"pid"`
	RSS        uint64  `json:"rss"`         // 常驻内存（字节）
	CPUPercent float64 `json:"cpu_percent"` // 进程启动以来的平均 CPU 占用
	NumThreads int32   `json:"num_threads"`
}

// CurrentUsage 获取当前进程的资源占用
func CurrentUsage() (*Usage, error) {
	pid := os.Getpid()
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return nil, fmt.Errorf("进程不存在: PID=%d", pid)
	}

	mem, err := proc.MemoryInfo()
	if err != nil {
		return nil, fmt.Errorf("获取内存信息失败: %w", err)
	}

	usage := &Usage{PID: pid, RSS: mem.RSS}
	// CPU 与线程数在部分平台上不可用，忽略错误
	usage.CPUPercent, _ = proc.CPUPercent()
	usage.NumThreads, _ = proc.NumThreads()
	return usage, nil
}

// String 返回字符串表示
func (u *Usage) String() string {
	return fmt.Sprintf("pid=%d rss=%.1fMB cpu=%.1f%% threads=%d",
		u.PID, float64(u.RSS)/(1<<20), u.CPUPercent, u.NumThreads)
}
