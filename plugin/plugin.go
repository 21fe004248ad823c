package plugin

import "golang.org/x/tools/go/packages"

// Generator 是代码生成器接口
type Generator interface {
	// Name 返回生成器名称
	Name() string

	// Annotations 返回该生成器识别的注解列表
	// 一个注解只能绑定一个生成器
	Annotations() []string

	// Priority 返回生成器优先级
	// 数字越小优先级越高，同一个包内优先级高的先执行
	// 默认值为 100
	Priority() int

	// QuickMatch 对源码行做快速文本匹配
	// 第一阶段用它筛掉不可能包含目标的包，允许误报
	QuickMatch(line string) bool

	// Overlay 返回需要注入到该包中的内存文件
	// key: 文件绝对路径, value: 文件内容
	// 只影响本次加载，不会写入磁盘
	Overlay(pkg *packages.Package) map[string][]byte

	// Generate 对一个已完成类型检查的包执行代码生成
	Generate(ctx *GenerateContext) (*GenerateResult, error)
}

// BaseGenerator 提供基础实现，可嵌入
type BaseGenerator struct {
	name        string
	annotations []string
	priority    int // 优先级，数字越小优先级越高
}

func NewBaseGenerator(name string, annotations []string) *BaseGenerator {
	return &BaseGenerator{
		name:        name,
		annotations: annotations,
		priority:    100,
	}
}

func (g *BaseGenerator) Name() string {
	return g.name
}

func (g *BaseGenerator) Annotations() []string {
	return g.annotations
}

// Priority 返回生成器优先级
func (g *BaseGenerator) Priority() int {
	return g.priority
}

// SetPriority 设置生成器优先级，数字越小优先级越高
func (g *BaseGenerator) SetPriority(priority int) *BaseGenerator {
	g.priority = priority
	return g
}

// QuickMatch 默认实现：行内出现任一注解即视为匹配
func (g *BaseGenerator) QuickMatch(line string) bool {
	for _, ann := range ParseAnnotations(line) {
		if HasAnnotationName(g.annotations, ann.Name) {
			return true
		}
	}
	return false
}

// Overlay 默认不注入任何文件
func (g *BaseGenerator) Overlay(*packages.Package) map[string][]byte {
	return nil
}
