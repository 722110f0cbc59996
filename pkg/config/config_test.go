package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultMatchConfig(t *testing.T) {
	config := DefaultMatchConfig()

	if config.Strategy != "default" {
		t.Errorf("默认 Strategy 应为 default, 实际为 %s", config.Strategy)
	}
	if config.Threshold != 0.8 {
		t.Errorf("默认 Threshold 应为 0.8, 实际为 %v", config.Threshold)
	}
	if config.MaxResults != 10 {
		t.Errorf("默认 MaxResults 应为 10, 实际为 %d", config.MaxResults)
	}
	if config.ServerAddr != "localhost:50051" {
		t.Errorf("默认 ServerAddr 应为 localhost:50051, 实际为 %s", config.ServerAddr)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("默认配置应合法: %v", err)
	}

	t.Logf("默认配置: %+v", config)
}

func TestMatchConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *MatchConfig)
		wantErr bool
	}{
		{"default", func(c *MatchConfig) {}, false},
		{"negative threshold", func(c *MatchConfig) { c.Threshold = -0.5 }, false},
		{"threshold too large", func(c *MatchConfig) { c.Threshold = 1.5 }, true},
		{"threshold too small", func(c *MatchConfig) { c.Threshold = -2 }, true},
		{"negative workers", func(c *MatchConfig) { c.Workers = -1 }, true},
		{"zero max results", func(c *MatchConfig) { c.MaxResults = 0 }, true},
		{"empty server addr", func(c *MatchConfig) { c.ServerAddr = "" }, true},
		{"unknown strategy", func(c *MatchConfig) { c.Strategy = "clamp" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultMatchConfig()
			tt.modify(config)
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestManagerSaveAndLoad(t *testing.T) {
	// 使用临时目录
	tempDir := t.TempDir()
	manager := NewManagerWithDir(tempDir)

	// 检查初始状态
	if manager.Exists() {
		t.Error("初始时配置文件不应存在")
	}

	config := &MatchConfig{
		Strategy:   "mirror",
		Threshold:  0.95,
		Workers:    4,
		MaxResults: 3,
		LogLevel:   "DEBUG",
		LogFile:    filepath.Join(tempDir, "match.log"),
		ServerAddr: "127.0.0.1:6000",
	}

	if err := manager.Save(config); err != nil {
		t.Fatalf("保存配置失败: %v", err)
	}
	if !manager.Exists() {
		t.Error("保存后配置文件应存在")
	}

	loaded, err := manager.Load()
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	if diff := cmp.Diff(config, loaded); diff != "" {
		t.Errorf("加载的配置不一致 (-want +got):\n%s", diff)
	}

	t.Logf("加载的配置: %+v", loaded)
}

func TestManagerSaveInvalid(t *testing.T) {
	manager := NewManagerWithDir(t.TempDir())

	config := DefaultMatchConfig()
	config.Threshold = 3
	if err := manager.Save(config); err == nil {
		t.Error("保存非法配置应返回错误")
	}
	if manager.Exists() {
		t.Error("非法配置不应写入文件")
	}
}

func TestManagerLoadPartialFile(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManagerWithDir(tempDir)

	// 只写入部分字段
	data := []byte(`{"strategy": "wrap", "threshold": 0.6}`)
	if err := os.WriteFile(manager.GetConfigFile(), data, 0600); err != nil {
		t.Fatalf("创建测试文件失败: %v", err)
	}

	config, err := manager.Load()
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	if config.Strategy != "wrap" || config.Threshold != 0.6 {
		t.Errorf("文件中的字段未生效: %+v", config)
	}
	if config.MaxResults != 10 || config.ServerAddr != "localhost:50051" {
		t.Errorf("缺失字段应使用默认值: %+v", config)
	}
}

func TestManagerClear(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManagerWithDir(tempDir)

	// 先保存一个配置
	if err := manager.Save(DefaultMatchConfig()); err != nil {
		t.Fatalf("保存配置失败: %v", err)
	}
	if !manager.Exists() {
		t.Fatal("保存后配置文件应存在")
	}

	// 清除配置
	if err := manager.Clear(); err != nil {
		t.Fatalf("清除配置失败: %v", err)
	}
	if manager.Exists() {
		t.Error("清除后配置文件不应存在")
	}

	// 清除不存在的文件不应报错
	if err := manager.Clear(); err != nil {
		t.Errorf("清除不存在的配置不应报错: %v", err)
	}
}

func TestManagerLoadNonExistent(t *testing.T) {
	manager := NewManagerWithDir(t.TempDir())

	// 加载不存在的配置应返回默认值
	config, err := manager.Load()
	if err != nil {
		t.Fatalf("加载不存在的配置不应报错: %v", err)
	}
	if diff := cmp.Diff(DefaultMatchConfig(), config); diff != "" {
		t.Errorf("应返回默认配置 (-want +got):\n%s", diff)
	}
}

func TestManagerLoadCorruptedFile(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManagerWithDir(tempDir)

	// 创建一个损坏的配置文件
	configFile := filepath.Join(tempDir, "config.json")
	if err := os.WriteFile(configFile, []byte("not valid json"), 0600); err != nil {
		t.Fatalf("创建测试文件失败: %v", err)
	}

	// 加载损坏的配置应返回默认值和错误
	config, err := manager.Load()
	if err == nil {
		t.Error("加载损坏的配置应返回错误")
	}
	if config == nil {
		t.Error("即使出错也应返回默认配置")
	}

	t.Logf("加载损坏配置的错误: %v", err)
}

func TestManagerPaths(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManagerWithDir(tempDir)

	if manager.GetConfigDir() != tempDir {
		t.Errorf("GetConfigDir 应为 %s", tempDir)
	}

	expectedFile := filepath.Join(tempDir, "config.json")
	if manager.GetConfigFile() != expectedFile {
		t.Errorf("GetConfigFile 应为 %s", expectedFile)
	}
}

func TestDefaultManager(t *testing.T) {
	manager := GetDefaultManager()
	if manager == nil {
		t.Fatal("GetDefaultManager 返回 nil")
	}

	// 检查默认路径是否在用户目录下
	homeDir, _ := os.UserHomeDir()
	expectedDir := filepath.Join(homeDir, ".patternsearch")

	if manager.GetConfigDir() != expectedDir {
		t.Errorf("默认配置目录应为 %s, 实际为 %s", expectedDir, manager.GetConfigDir())
	}

	t.Logf("默认配置目录: %s", manager.GetConfigDir())
}

// BenchmarkSaveLoad 基准测试
func BenchmarkSaveLoad(b *testing.B) {
	manager := NewManagerWithDir(b.TempDir())
	config := DefaultMatchConfig()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		manager.Save(config)
		manager.Load()
	}
}
