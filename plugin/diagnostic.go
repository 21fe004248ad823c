package plugin

import (
	"fmt"
	"go/token"
)

// Severity 诊断级别
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Diagnostic 结构化诊断信息
// 生成器用它报告"不支持的形状"等情况，而不是静默丢弃
type Diagnostic struct {
	Severity Severity
	Code     string         // 诊断代码，如 PG001
	Message  string         // 描述信息
	Position token.Position // 源码位置
}

func (d Diagnostic) String() string {
	if d.Position.IsValid() {
		return fmt.Sprintf("%s: %s %s: %s", d.Position, d.Severity, d.Code, d.Message)
	}
	return fmt.Sprintf("%s %s: %s", d.Severity, d.Code, d.Message)
}

// CountBySeverity 统计各级别诊断数量
func CountBySeverity(diags []Diagnostic) map[Severity]int {
	counts := make(map[Severity]int)
	for _, d := range diags {
		counts[d.Severity]++
	}
	return counts
}
