package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// DefaultFile 默认配置文件名
const DefaultFile = "printgen.yaml"

// Config 运行配置
// 优先级：默认值 < 配置文件 < 命令行参数
type Config struct {
	Patterns []string  `yaml:"patterns"` // 扫描路径
	Tags     []string  `yaml:"tags"`     // 额外的构建标签
	Verbose  bool      `yaml:"verbose"`
	DryRun   bool      `yaml:"dry_run"`
	Async    bool      `yaml:"async"`   // 并行处理多个包
	Workers  int       `yaml:"workers"` // 并行度，0 表示 CPU 数
	Dev      DevConfig `yaml:"dev"`
}

// DevConfig 开发模式配置
type DevConfig struct {
	DebounceMs int      `yaml:"debounce_ms"` // 同一目录的防抖时间（毫秒）
	Ignore     []string `yaml:"ignore"`      // 不监听的目录名
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Patterns: []string{"./..."},
		Async:    true,
		Dev: DevConfig{
			DebounceMs: 500,
			Ignore:     []string{"vendor", "testdata", "node_modules"},
		},
	}
}

// Load 读取配置文件，文件不存在时返回默认配置
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}
	return cfg, nil
}

// Parse 在默认配置的基础上解析 YAML
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

// Validate 检查配置是否合法
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers 不能为负数: %d", c.Workers)
	}
	if c.Dev.DebounceMs < 0 {
		return fmt.Errorf("dev.debounce_ms 不能为负数: %d", c.Dev.DebounceMs)
	}
	return nil
}

func (c *Config) normalize() {
	c.Patterns = lo.Uniq(lo.Compact(c.Patterns))
	if len(c.Patterns) == 0 {
		c.Patterns = []string{"./..."}
	}
	c.Tags = lo.Uniq(lo.Compact(c.Tags))
}

// IsIgnoredDir 开发模式下是否跳过该目录
func (c *Config) IsIgnoredDir(name string) bool {
	return lo.Contains(c.Dev.Ignore, name)
}
