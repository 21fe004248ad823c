package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/donutnomad/printgen/internal/config"
	"github.com/donutnomad/printgen/plugin"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/tools/imports"
)

// devRunner 处理文件变动的核心逻辑
type devRunner struct {
	logger   *zap.Logger
	watcher  *fsnotify.Watcher
	matcher  func(line string) bool
	debounce time.Duration
	generate func(ctx context.Context, pkgDir string)
	ctx      context.Context // 用于响应退出信号

	// 防抖动相关
	mu          sync.Mutex
	pendingDirs map[string]*time.Timer // key: 包目录路径
}

func newDevRunner(ctx context.Context, watcher *fsnotify.Watcher, matcher func(string) bool, debounce time.Duration, logger *zap.Logger) *devRunner {
	return &devRunner{
		logger:      logger,
		watcher:     watcher,
		matcher:     matcher,
		debounce:    debounce,
		ctx:         ctx,
		pendingDirs: make(map[string]*time.Timer),
	}
}

// runDev 启动开发模式
func runDev(cfg *config.Config, logger *zap.Logger) error {
	registry := plugin.Global()
	if len(registry.Generators()) == 0 {
		return fmt.Errorf("没有已注册的生成器")
	}

	// 监听退出信号
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 创建 watcher
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("创建文件监听器失败: %w", err)
	}
	defer watcher.Close()

	debounce := time.Duration(cfg.Dev.DebounceMs) * time.Millisecond
	runner := newDevRunner(ctx, watcher, registry.Matcher(), debounce, logger)
	runner.generate = func(ctx context.Context, pkgDir string) {
		opts := runOptions(cfg, registry, logger)
		opts.Patterns = []string{pkgDir} // 只生成变动的包
		runGenerate(ctx, opts)
	}
	// 退出时停止所有待处理的定时器
	defer runner.stopPending()

	// 收集并添加监听目录
	dirs, err := collectWatchDirs(cfg.Patterns, cfg.IsIgnoredDir)
	if err != nil {
		return fmt.Errorf("收集监听目录失败: %w", err)
	}
	if len(dirs) == 0 {
		return fmt.Errorf("没有找到需要监听的目录")
	}

	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("添加监听目录失败 %s: %w", dir, err)
		}
		logger.Debug("监听目录", zap.String("dir", dir))
	}

	fmt.Printf("开发模式已启动，监听 %d 个目录\n", len(dirs))
	fmt.Println("按 Ctrl+C 退出")
	fmt.Println()

	err = runner.watchLoop(ctx)
	fmt.Println("\n正在退出...")
	return err
}

// watchLoop 事件处理循环
func (r *devRunner) watchLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			r.handleEvent(event)

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("监听错误", zap.Error(err))
		}
	}
}

// handleEvent 处理文件事件
func (r *devRunner) handleEvent(event fsnotify.Event) {
	// 只关注 Write 和 Create 事件
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	filePath := event.Name
	if !strings.HasSuffix(filePath, ".go") || isGeneratedFile(filePath) {
		return
	}
	logger := r.logger.With(zap.String("file", filePath))
	logger.Debug("检测到文件变化")

	// 检查文件是否包含注解或桩方法
	matched, err := plugin.QuickMatchFile(filePath, r.matcher)
	if err != nil {
		logger.Debug("快速匹配失败", zap.Error(err))
		return
	}
	if !matched {
		logger.Debug("跳过文件（无注解）")
		return
	}

	// 检查语法错误
	if err := checkSyntax(filePath); err != nil {
		fmt.Printf("语法错误 %s: %v\n", filePath, err)
		return
	}

	r.scheduleGenerate(filepath.Dir(filePath))
}

// scheduleGenerate 防抖动调度生成
func (r *devRunner) scheduleGenerate(pkgDir string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// 取消之前的 timer
	if timer, exists := r.pendingDirs[pkgDir]; exists {
		timer.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(r.debounce, func() {
		if r.ctx.Err() != nil {
			return
		}

		r.generate(r.ctx, pkgDir)

		r.mu.Lock()
		if r.pendingDirs[pkgDir] == timer {
			delete(r.pendingDirs, pkgDir)
		}
		r.mu.Unlock()
	})
	r.pendingDirs[pkgDir] = timer
}

func (r *devRunner) stopPending() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for dir, timer := range r.pendingDirs {
		timer.Stop()
		delete(r.pendingDirs, dir)
	}
}

// runGenerate 执行实际的代码生成
func runGenerate(ctx context.Context, opts *plugin.RunOptions) {
	opts.Logger.Debug("触发代码生成", zap.Strings("patterns", opts.Patterns))

	stats, err := plugin.RunWithOptionsAndStats(ctx, opts)
	if stats != nil {
		printDiagnostics(os.Stderr, stats.Diagnostics)
	}
	if err != nil {
		fmt.Printf("生成失败: %v\n", err)
		return
	}

	if stats.FileCount > 0 {
		fmt.Printf("生成完成: %d 个文件 (耗时: %v)\n", stats.FileCount, stats.TotalDuration)
	} else if opts.Verbose {
		fmt.Printf("生成完成: 无文件变化\n")
	}
}

// checkSyntax 检查文件语法
func checkSyntax(filePath string) error {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	_, err = imports.Process(filePath, content, &imports.Options{
		Fragment:   true,
		AllErrors:  true,
		Comments:   true,
		FormatOnly: true, // 只检查语法，不修改 imports
	})

	return err
}

// collectWatchDirs 收集所有需要监听的目录
func collectWatchDirs(patterns []string, ignored func(name string) bool) ([]string, error) {
	var dirs []string
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		recursive := strings.HasSuffix(pattern, "/...")
		baseDir := strings.TrimSuffix(pattern, "/...")
		if baseDir == "" {
			baseDir = "."
		}

		absDir, err := filepath.Abs(baseDir)
		if err != nil {
			return nil, err
		}

		info, err := os.Stat(absDir)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			continue
		}

		if !recursive {
			if !seen[absDir] {
				seen[absDir] = true
				dirs = append(dirs, absDir)
			}
			continue
		}

		// 递归收集所有子目录
		err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}

			// 跳过隐藏目录和配置中忽略的目录
			name := d.Name()
			if path != absDir && (strings.HasPrefix(name, ".") || ignored(name)) {
				return filepath.SkipDir
			}

			if !seen[path] {
				seen[path] = true
				dirs = append(dirs, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return dirs, nil
}

// isGeneratedFile 生成的文件和测试文件不会触发生成
func isGeneratedFile(filePath string) bool {
	return plugin.IsGeneratedFile(filePath) || strings.HasSuffix(filepath.Base(filePath), "_test.go")
}
