package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/donutnomad/printgen/internal/config"
	"github.com/donutnomad/printgen/internal/logging"
	"github.com/donutnomad/printgen/plugin"
	"github.com/donutnomad/printgen/printgen"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

func init() {
	plugin.MustRegister(printgen.NewGenerator())
}

var (
	verbose    = flag.Bool("v", false, "详细输出")
	help       = flag.Bool("h", false, "显示帮助信息")
	dryRun     = flag.Bool("dry-run", false, "只输出生成内容，不写文件")
	configPath = flag.String("config", config.DefaultFile, "配置文件路径（文件不存在时使用默认配置）")
	tags       = flag.String("tags", "", "额外的构建标签，逗号分隔")
	async      = flag.Bool("async", true, "并行处理多个包（默认 true）")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if *help {
		usage()
		os.Exit(0)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Must(cfg.Verbose)

	args := flag.Args()
	cmd := "gen"
	if len(args) > 0 && (args[0] == "gen" || args[0] == "dev") {
		cmd, args = args[0], args[1:]
	}
	// 命令行路径优先于配置文件
	if len(args) > 0 {
		cfg.Patterns = args
	}

	switch cmd {
	case "dev":
		err = runDev(cfg, logger)
	default:
		err = runGen(cfg, logger)
	}
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig 默认值 < 配置文件 < 显式设置的命令行参数
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "v":
			cfg.Verbose = *verbose
		case "dry-run":
			cfg.DryRun = *dryRun
		case "async":
			cfg.Async = *async
		case "tags":
			cfg.Tags = splitTags(*tags)
		}
	})
	return cfg, nil
}

func splitTags(s string) []string {
	parts := lo.Map(strings.Split(s, ","), func(item string, _ int) string {
		return strings.TrimSpace(item)
	})
	return lo.Uniq(lo.Compact(parts))
}

func runGen(cfg *config.Config, logger *zap.Logger) error {
	// 检查是否有已注册的生成器
	registry := plugin.Global()
	if len(registry.Generators()) == 0 {
		return fmt.Errorf("没有已注册的生成器")
	}

	if cfg.Verbose {
		fmt.Printf("已注册 %d 个生成器:\n", len(registry.Generators()))
		for _, gen := range registry.Generators() {
			anns := lo.Map(gen.Annotations(), func(item string, index int) string {
				return "@" + item
			})
			fmt.Printf("  - %s (%s)\n", gen.Name(), strings.Join(anns, ","))
		}
		fmt.Println()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := plugin.RunWithOptionsAndStats(ctx, runOptions(cfg, registry, logger))
	if stats != nil {
		printDiagnostics(os.Stderr, stats.Diagnostics)
	}
	if err != nil {
		return err
	}

	// 输出统计信息
	if stats.FileCount > 0 || cfg.Verbose {
		printSummary(os.Stdout, stats)
	}
	if n := plugin.CountBySeverity(stats.Diagnostics)[plugin.SeverityError]; n > 0 {
		return fmt.Errorf("存在 %d 个错误级别的诊断", n)
	}
	return nil
}

func runOptions(cfg *config.Config, registry *plugin.Registry, logger *zap.Logger) *plugin.RunOptions {
	return &plugin.RunOptions{
		Registry: registry,
		Patterns: cfg.Patterns,
		Tags:     cfg.Tags,
		Verbose:  cfg.Verbose,
		DryRun:   cfg.DryRun,
		Async:    cfg.Async,
		Workers:  cfg.Workers,
		Logger:   logger,
	}
}

func usage() {
	_, _ = fmt.Fprintf(os.Stderr, `printgen - 字段打印方法生成工具

用法:
  printgen [选项] [路径...]
  printgen gen [选项] [路径...]
  printgen dev [选项] [路径...]

命令:
  gen     执行代码生成（默认）
  dev     启动开发模式，监听文件变动自动生成

路径:
  支持 Go 包路径模式，如:
    ./...          递归扫描当前目录及子目录（默认）
    ./pkg/...      递归扫描指定目录
    ./models/...   递归扫描 models 目录

选项:
`)
	flag.PrintDefaults()

	// 动态生成注解帮助信息
	registry := plugin.Global()
	if len(registry.Generators()) > 0 {
		_, _ = fmt.Fprintf(os.Stderr, "\n支持的注解:\n")
		_, _ = fmt.Fprint(os.Stderr, plugin.FormatHelpText(registry))
	}

	_, _ = fmt.Fprintf(os.Stderr, `构建标签:
  桩方法所在文件使用 //go:build %s
  生成的文件使用 //go:build !%s

示例:
  printgen                                  扫描当前目录（默认 ./...）
  printgen -v ./models/...                  详细模式扫描 models 目录
  printgen -dry-run ./...                   只输出生成内容
  printgen -config ci.yaml ./...            使用指定的配置文件
  printgen dev ./...                        开发模式，监听文件变动
`, plugin.BuildTag, plugin.BuildTag)
}
