package plugin

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"github.com/samber/lo"
)

// Registry 生成器注册表
// 管理注解到生成器的映射，确保一个注解只绑定一个生成器
type Registry struct {
	mu sync.RWMutex

	// annotations 注解名 -> 生成器
	annotations map[string]Generator

	// generators 生成器名 -> 生成器
	generators map[string]Generator
}

// NewRegistry 创建新的注册表
func NewRegistry() *Registry {
	return &Registry{
		annotations: make(map[string]Generator),
		generators:  make(map[string]Generator),
	}
}

// Register 注册生成器
// 如果注解已被其他生成器注册，返回错误
func (r *Registry) Register(gen Generator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := gen.Name()

	// 检查生成器是否已注册
	if existing, ok := r.generators[name]; ok {
		return fmt.Errorf("生成器 %q 已注册", existing.Name())
	}

	// 检查注解是否已被其他生成器绑定
	for _, ann := range gen.Annotations() {
		if existing, ok := r.annotations[ann]; ok {
			return fmt.Errorf("注解 @%s 已被生成器 %q 绑定，无法被 %q 再次绑定",
				ann, existing.Name(), name)
		}
	}

	r.generators[name] = gen
	for _, ann := range gen.Annotations() {
		r.annotations[ann] = gen
	}

	return nil
}

// MustRegister 注册生成器，失败时 panic
func (r *Registry) MustRegister(gen Generator) {
	if err := r.Register(gen); err != nil {
		panic(err)
	}
}

// GetByAnnotation 根据注解名获取生成器
func (r *Registry) GetByAnnotation(annotation string) (Generator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	gen, ok := r.annotations[annotation]
	return gen, ok
}

// Generators 返回所有已注册的生成器
// 按优先级排序，优先级相同按名称排序，保证每次执行顺序一致
func (r *Registry) Generators() []Generator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := lo.Values(r.generators)
	slices.SortFunc(result, func(a, b Generator) int {
		if c := cmp.Compare(a.Priority(), b.Priority()); c != 0 {
			return c
		}
		return cmp.Compare(a.Name(), b.Name())
	})
	return result
}

// Annotations 返回所有已注册的注解（已排序）
func (r *Registry) Annotations() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := lo.Keys(r.annotations)
	slices.Sort(result)
	return result
}

// Matcher 返回基于当前注册生成器快照的行匹配函数
// 任一生成器匹配该行即返回 true
func (r *Registry) Matcher() func(line string) bool {
	gens := r.Generators()
	return func(line string) bool {
		for _, gen := range gens {
			if gen.QuickMatch(line) {
				return true
			}
		}
		return false
	}
}

// 全局注册表
var globalRegistry = NewRegistry()

// Global 返回全局注册表
func Global() *Registry {
	return globalRegistry
}

// MustRegister 向全局注册表注册生成器，失败时 panic
func MustRegister(gen Generator) {
	globalRegistry.MustRegister(gen)
}
