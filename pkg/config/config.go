// Package config 管理匹配参数的 JSON 配置文件
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// MatchConfig 匹配配置
type MatchConfig struct {
	Strategy   string  `json:"strategy"`    // default / wrap / mirror，其他取值按 default 处理
	Threshold  float64 `json:"threshold"`   // 匹配阈值 [-1, 1]
	Workers    int     `json:"workers"`     // 并行 worker 数，0 表示自动
	MaxResults int     `json:"max_results"` // 多目标匹配的最大结果数
	LogLevel   string  `json:"log_level"`
	LogFile    string  `json:"log_file,omitempty"`
	ServerAddr string  `json:"server_addr"` // gRPC 服务监听 / 连接地址
}

// DefaultMatchConfig 默认匹配配置
func DefaultMatchConfig() *MatchConfig {
	return &MatchConfig{
		Strategy:   "default",
		Threshold:  0.8,
		Workers:    0,
		MaxResults: 10,
		LogLevel:   "INFO",
		LogFile:    "",
		ServerAddr: "localhost:50051",
	}
}

// Validate 校验配置取值
func (c *MatchConfig) Validate() error {
	var errs []error
	if c.Threshold < -1 || c.Threshold > 1 {
		errs = append(errs, fmt.Errorf("threshold 必须在 [-1, 1] 内: %v", c.Threshold))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers 不能为负: %d", c.Workers))
	}
	if c.MaxResults < 1 {
		errs = append(errs, fmt.Errorf("max_results 必须大于 0: %d", c.MaxResults))
	}
	if c.ServerAddr == "" {
		errs = append(errs, errors.New("server_addr 不能为空"))
	}
	return errors.Join(errs...)
}

// Manager 配置管理器
type Manager struct {
	configDir  string
	configFile string
	mu         sync.RWMutex
}

// NewManager 创建配置管理器，配置文件位于 ~/.patternsearch/config.json
func NewManager() *Manager {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return NewManagerWithDir(filepath.Join(homeDir, ".patternsearch"))
}

// NewManagerWithDir 使用指定目录创建配置管理器
func NewManagerWithDir(configDir string) *Manager {
	return &Manager{
		configDir:  configDir,
		configFile: filepath.Join(configDir, "config.json"),
	}
}

// ensureDir 确保配置目录存在
func (m *Manager) ensureDir() error {
	return os.MkdirAll(m.configDir, 0755)
}

// Load 加载配置，文件中缺失的字段使用默认值
func (m *Manager) Load() (*MatchConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, err := os.ReadFile(m.configFile)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultMatchConfig(), nil
	}
	if err != nil {
		return DefaultMatchConfig(), fmt.Errorf("读取配置文件失败: %w", err)
	}

	config := DefaultMatchConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return DefaultMatchConfig(), fmt.Errorf("解析配置文件失败: %w", err)
	}

	return config, nil
}

// Save 保存配置
func (m *Manager) Save(config *MatchConfig) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("配置无效: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureDir(); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(m.configFile, data, 0600); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}

	return nil
}

// Clear 清除配置
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := os.Stat(m.configFile); os.IsNotExist(err) {
		return nil
	}

	return os.Remove(m.configFile)
}

// GetConfigDir 获取配置目录
func (m *Manager) GetConfigDir() string {
	return m.configDir
}

// GetConfigFile 获取配置文件路径
func (m *Manager) GetConfigFile() string {
	return m.configFile
}

// Exists 检查配置文件是否存在
func (m *Manager) Exists() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, err := os.Stat(m.configFile)
	return err == nil
}

// 全局配置管理器
var defaultManager = NewManager()

// GetDefaultManager 获取默认配置管理器
func GetDefaultManager() *Manager {
	return defaultManager
}

// Load 使用默认管理器加载配置
func Load() (*MatchConfig, error) {
	return defaultManager.Load()
}

// Save 使用默认管理器保存配置
func Save(config *MatchConfig) error {
	return defaultManager.Save(config)
}

// Clear 使用默认管理器清除配置
func Clear() error {
	return defaultManager.Clear()
}
