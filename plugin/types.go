package plugin

import (
	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"
)

// BuildTag 生成阶段加载包时使用的构建标签
// 桩文件使用 //go:build printgen，生成的文件使用 //go:build !printgen，
// 因此旧的生成结果不会参与下一轮生成
const BuildTag = "printgen"

// Annotation 表示注释中解析出的注解（仅语法层面）
type Annotation struct {
	Qualifier string // 包限定名，如 @pkg.Printable 中的 pkg，未限定时为空
	Name      string // 注解名称，如 "Printable"
	Raw       string // 原始注解文本
}

// QualifiedName 返回带限定名的注解名称
func (a *Annotation) QualifiedName() string {
	if a.Qualifier == "" {
		return a.Name
	}
	return a.Qualifier + "." + a.Name
}

// Fragment 生成器交回给宿主的源码片段
// Key 在同一个包内唯一，宿主根据 Key 计算输出文件名
type Fragment struct {
	Key     string
	Content []byte
}

// GenerateContext 生成上下文，传递给 Generator
// 每次调用对应一个已完成类型检查的包
type GenerateContext struct {
	Package *packages.Package // 待处理的包（只读）
	Logger  *zap.Logger
	Verbose bool // 详细输出
}

// GenerateResult 生成结果
type GenerateResult struct {
	// Fragments 生成的源码片段
	Fragments []Fragment

	// Diagnostics 结构化诊断信息（不影响其它片段的生成）
	Diagnostics []Diagnostic

	// Errors 错误列表
	Errors []error
}

// NewGenerateResult 创建新的生成结果
func NewGenerateResult() *GenerateResult {
	return &GenerateResult{}
}

// AddFragment 添加源码片段
func (r *GenerateResult) AddFragment(key string, content []byte) {
	r.Fragments = append(r.Fragments, Fragment{Key: key, Content: content})
}

// AddDiagnostic 添加诊断信息
func (r *GenerateResult) AddDiagnostic(d ...Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d...)
}

// AddError 添加错误
func (r *GenerateResult) AddError(err error) {
	r.Errors = append(r.Errors, err)
}

// HasErrors 检查是否有错误
func (r *GenerateResult) HasErrors() bool {
	return len(r.Errors) > 0
}
