package plugin

import (
	"fmt"
	"strings"
)

// Describer 生成器可以实现该接口，为帮助信息提供用法示例
type Describer interface {
	Describe() []string
}

// FormatHelpText 按注解列出绑定的生成器及其用法示例
func FormatHelpText(registry *Registry) string {
	if len(registry.Generators()) == 0 {
		return "  (暂无已注册的生成器)\n"
	}

	var sb strings.Builder

	for _, ann := range registry.Annotations() {
		gen, ok := registry.GetByAnnotation(ann)
		if !ok {
			continue
		}

		sb.WriteString(fmt.Sprintf("  @%s - %s\n", ann, gen.Name()))

		if d, ok := gen.(Describer); ok {
			sb.WriteString("    示例:\n")
			for _, line := range d.Describe() {
				sb.WriteString(fmt.Sprintf("      %s\n", line))
			}
		}

		sb.WriteString("\n")
	}

	return sb.String()
}
