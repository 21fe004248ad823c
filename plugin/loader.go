package plugin

import (
	"bufio"
	"cmp"
	"context"
	"fmt"
	"os"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"
)

// LoadMode 第二阶段加载所需的信息
const LoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedImports

// quickLoadMode 第一阶段只需要包名和文件列表
const quickLoadMode = packages.NeedName | packages.NeedFiles

// OverlayFunc 为包计算需要注入的内存文件
type OverlayFunc func(pkg *packages.Package) map[string][]byte

// Loader 两阶段包加载器
// 第一阶段：只加载文件列表，并行做快速文本匹配，找出可能包含目标的包
// 第二阶段：对匹配的包注入 overlay 后做完整的语法和类型加载
type Loader struct {
	dir     string
	tags    []string
	workers int
	logger  *zap.Logger

	matcher func(line string) bool
	overlay OverlayFunc
}

// LoaderOption 加载器选项
type LoaderOption func(*Loader)

// WithDir 设置执行 go list 的工作目录
func WithDir(dir string) LoaderOption {
	return func(l *Loader) {
		l.dir = dir
	}
}

// WithTags 追加额外的构建标签
func WithTags(tags ...string) LoaderOption {
	return func(l *Loader) {
		l.tags = append(l.tags, tags...)
	}
}

func WithWorkers(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

func WithLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func NewLoader(matcher func(line string) bool, overlay OverlayFunc, opts ...LoaderOption) *Loader {
	l := &Loader{
		workers: runtime.NumCPU(),
		logger:  zap.NewNop(),
		matcher: matcher,
		overlay: overlay,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// BuildFlags 返回传给 go list 的构建参数
func (l *Loader) BuildFlags() []string {
	tags := lo.Uniq(append([]string{BuildTag}, l.tags...))
	return []string{"-tags=" + strings.Join(tags, ",")}
}

// Load 加载匹配 patterns 的包
// 支持: ./... ./pkg/... ./pkg 以及绝对路径
// 返回的包按 PkgPath 排序
func (l *Loader) Load(ctx context.Context, patterns ...string) ([]*packages.Package, error) {
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	// ========== 第一阶段：快速匹配 ==========
	quickCfg := &packages.Config{
		Context:    ctx,
		Mode:       quickLoadMode,
		Dir:        l.dir,
		BuildFlags: l.BuildFlags(),
	}
	listed, err := packages.Load(quickCfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("列出包失败: %w", err)
	}
	l.logPackageErrors(listed)

	matched, err := l.quickMatch(ctx, listed)
	if err != nil {
		return nil, err
	}
	if len(matched) == 0 {
		return nil, nil
	}

	// ========== 第二阶段：完整加载 ==========
	overlay := make(map[string][]byte)
	for _, pkg := range matched {
		if l.overlay == nil {
			break
		}
		for path, content := range l.overlay(pkg) {
			overlay[path] = content
		}
	}

	fullCfg := &packages.Config{
		Context:    ctx,
		Mode:       LoadMode,
		Dir:        l.dir,
		BuildFlags: l.BuildFlags(),
		Overlay:    overlay,
	}
	pkgPaths := lo.Map(matched, func(pkg *packages.Package, _ int) string {
		return pkg.PkgPath
	})
	pkgs, err := packages.Load(fullCfg, pkgPaths...)
	if err != nil {
		return nil, fmt.Errorf("加载包失败: %w", err)
	}
	l.logPackageErrors(pkgs)

	// 没有语法树的包无法处理
	pkgs = lo.Filter(pkgs, func(pkg *packages.Package, _ int) bool {
		return len(pkg.Syntax) > 0 && pkg.Types != nil && pkg.TypesInfo != nil
	})
	slices.SortFunc(pkgs, func(a, b *packages.Package) int {
		return cmp.Compare(a.PkgPath, b.PkgPath)
	})

	return pkgs, nil
}

// logPackageErrors 包错误只记录警告
// 类型信息不完整时解析会降级为"不匹配"，不影响其它包
func (l *Loader) logPackageErrors(pkgs []*packages.Package) {
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			l.logger.Warn("包存在错误",
				zap.String("package", pkg.PkgPath),
				zap.String("error", e.Error()))
		}
	}
}

// quickMatch 第一阶段：快速文本匹配
// 并行读取文件，任一文件命中即保留所在的包
func (l *Loader) quickMatch(ctx context.Context, pkgs []*packages.Package) ([]*packages.Package, error) {
	type fileJob struct {
		index int
		file  string
	}
	type matchResult struct {
		index   int
		matched bool
		err     error
	}

	var jobs []fileJob
	for i, pkg := range pkgs {
		for _, file := range pkg.GoFiles {
			jobs = append(jobs, fileJob{index: i, file: file})
		}
	}

	resultCh := make(chan matchResult, len(jobs))
	jobCh := make(chan fileJob, len(jobs))

	// 启动工作者
	var wg sync.WaitGroup
	for i := 0; i < l.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job, ok := <-jobCh:
					if !ok {
						return
					}
					matched, err := QuickMatchFile(job.file, l.matcher)
					resultCh <- matchResult{index: job.index, matched: matched, err: err}
				}
			}
		}()
	}

	// 发送文件
	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)

	// 等待完成
	go func() {
		wg.Wait()
		close(resultCh)
	}()

	hits := make(map[int]bool)
	for r := range resultCh {
		if r.err != nil {
			l.logger.Debug("读取文件失败", zap.Error(r.err))
			continue // 跳过错误文件
		}
		if r.matched {
			hits[r.index] = true
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var matched []*packages.Package
	for i, pkg := range pkgs {
		if hits[i] {
			matched = append(matched, pkg)
		}
	}
	return matched, nil
}

// QuickMatchFile 快速检查文件中是否存在任一行被 matcher 命中
// 用于第一阶段筛选，也用于 dev 模式判断文件是否需要触发代码生成
func QuickMatchFile(filePath string, matcher func(line string) bool) (bool, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return false, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if matcher(scanner.Text()) {
			return true, nil
		}
	}

	return false, scanner.Err()
}
