package plugin

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"slices"
	"time"

	"github.com/donutnomad/printgen/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/go/packages"
)

// RunOptions 运行选项
type RunOptions struct {
	Registry *Registry
	Patterns []string
	Dir      string   // 执行 go list 的目录，空表示当前目录
	Tags     []string // 额外的构建标签
	Verbose  bool
	DryRun   bool      // 只输出生成内容，不写文件
	Async    bool      // 是否并行处理多个包
	Workers  int       // 并行度，<=0 时使用 CPU 数
	Logger   *zap.Logger
	Stdout   io.Writer // DryRun 时的输出目标，默认 os.Stdout
}

// RunStats 运行统计信息
type RunStats struct {
	ScanDuration     time.Duration // 扫描（加载）耗时
	GenerateDuration time.Duration // 生成耗时
	TotalDuration    time.Duration // 总耗时
	PackageCount     int           // 处理的包数量
	FragmentCount    int           // 生成的片段数量
	FileCount        int           // 写入的文件数量
	UnchangedCount   int           // 内容未变化而跳过写入的文件数量
	Diagnostics      []Diagnostic  // 所有诊断信息
}

// packageOutput 单个包的生成结果
type packageOutput struct {
	files       []outputFile
	diagnostics []Diagnostic
	errors      []error
}

// RunWithOptionsAndStats 运行代码生成并返回统计信息
// 1. 两阶段加载匹配的包（注入生成器提供的 overlay）
// 2. 对每个包依次执行所有生成器
// 3. 将片段映射到输出文件，格式化后写入
func RunWithOptionsAndStats(ctx context.Context, opts *RunOptions) (*RunStats, error) {
	totalStart := time.Now()
	stats := &RunStats{}

	registry := opts.Registry
	if registry == nil {
		registry = globalRegistry
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	gens := registry.Generators()
	if len(gens) == 0 {
		return nil, fmt.Errorf("没有已注册的生成器")
	}

	// 加载
	scanStart := time.Now()
	loader := NewLoader(registry.Matcher(), overlayOf(gens),
		WithDir(opts.Dir),
		WithTags(opts.Tags...),
		WithWorkers(workers),
		WithLogger(logger),
	)
	pkgs, err := loader.Load(ctx, opts.Patterns...)
	if err != nil {
		return nil, fmt.Errorf("扫描失败: %w", err)
	}
	stats.ScanDuration = time.Since(scanStart)
	stats.PackageCount = len(pkgs)

	if len(pkgs) == 0 {
		logger.Debug("没有找到任何需要处理的包")
		stats.TotalDuration = time.Since(totalStart)
		return stats, nil
	}
	logger.Debug("加载完成",
		zap.Int("packages", len(pkgs)),
		zap.Duration("elapsed", stats.ScanDuration))

	generateStart := time.Now()

	// 结果按包的下标存放，保证输出顺序与并发无关
	outputs := make([]packageOutput, len(pkgs))
	if opts.Async {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i, pkg := range pkgs {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				outputs[i] = runPackage(pkg, gens, logger, opts.Verbose)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, pkg := range pkgs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			outputs[i] = runPackage(pkg, gens, logger, opts.Verbose)
		}
	}

	var allErrors []error
	for _, out := range outputs {
		stats.Diagnostics = append(stats.Diagnostics, out.diagnostics...)
		allErrors = append(allErrors, out.errors...)

		for _, file := range out.files {
			stats.FragmentCount++
			if opts.DryRun {
				formatted, err := utils.FormatSource(file.path, file.content)
				if err != nil {
					allErrors = append(allErrors, fmt.Errorf("格式化 %s 失败: %w", file.path, err))
					continue
				}
				_, _ = fmt.Fprintf(stdout, "// ==> %s\n%s\n", file.path, formatted)
				continue
			}

			changed, err := utils.WriteFormat(file.path, file.content)
			if err != nil {
				allErrors = append(allErrors, fmt.Errorf("写入文件 %s 失败: %w", file.path, err))
				continue
			}
			if !changed {
				stats.UnchangedCount++
				logger.Debug("文件未变化", zap.String("path", file.path))
				continue
			}
			stats.FileCount++
			logger.Info("生成文件", zap.String("path", file.path), zap.String("key", file.key))
		}
	}

	stats.GenerateDuration = time.Since(generateStart)
	stats.TotalDuration = time.Since(totalStart)

	if len(allErrors) > 0 {
		for _, e := range allErrors {
			logger.Error("生成失败", zap.Error(e))
		}
		return stats, fmt.Errorf("生成过程中出现 %d 个错误: %w", len(allErrors), errors.Join(allErrors...))
	}

	return stats, nil
}

// runPackage 对单个包执行所有生成器
func runPackage(pkg *packages.Package, gens []Generator, logger *zap.Logger, verbose bool) packageOutput {
	var out packageOutput

	dir, err := PackageDir(pkg)
	if err != nil {
		out.errors = append(out.errors, err)
		return out
	}

	seen := make(map[string]string)
	for _, gen := range gens {
		genLogger := logger.With(
			zap.String("generator", gen.Name()),
			zap.String("package", pkg.PkgPath),
		)
		genCtx := &GenerateContext{
			Package: pkg,
			Logger:  genLogger,
			Verbose: verbose,
		}

		start := time.Now()
		result, err := gen.Generate(genCtx)
		genLogger.Debug("执行生成器", zap.Duration("elapsed", time.Since(start)))
		if err != nil {
			out.errors = append(out.errors, fmt.Errorf("生成器 %s 处理包 %s 失败: %w", gen.Name(), pkg.PkgPath, err))
			continue
		}
		if result == nil {
			continue
		}

		out.diagnostics = append(out.diagnostics, result.Diagnostics...)
		if result.HasErrors() {
			// 出错的生成器不写入任何片段
			out.errors = append(out.errors, result.Errors...)
			continue
		}

		files, err := resolveOutputs(dir, gen.Name(), result.Fragments, seen)
		if err != nil {
			out.errors = append(out.errors, err)
			continue
		}
		out.files = append(out.files, files...)
	}

	slices.SortStableFunc(out.files, func(a, b outputFile) int {
		return cmp.Compare(a.path, b.path)
	})
	return out
}

// overlayOf 合并所有生成器的 overlay
func overlayOf(gens []Generator) OverlayFunc {
	return func(pkg *packages.Package) map[string][]byte {
		merged := make(map[string][]byte)
		for _, gen := range gens {
			for path, content := range gen.Overlay(pkg) {
				merged[path] = content
			}
		}
		return merged
	}
}
