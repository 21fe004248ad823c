package printgen

import (
	"fmt"
	"go/token"

	"github.com/donutnomad/printgen/plugin"
	"golang.org/x/tools/go/packages"
)

// 诊断代码
const (
	CodeNestedType       = "PG001" // 所属类型不是包级命名类型
	CodeNameConflict     = "PG002" // 生成的方法名与已有成员冲突
	CodeForeignMarker    = "PG003" // 同名注解没有指向标记类型
	CodeMarkerRedeclared = "PG004" // 包内已有与标记同名的声明
)

func newDiagnostic(pkg *packages.Package, severity plugin.Severity, code string, pos token.Pos, format string, args ...any) plugin.Diagnostic {
	d := plugin.Diagnostic{
		Severity: severity,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
	}
	if pkg != nil && pkg.Fset != nil && pos.IsValid() {
		d.Position = pkg.Fset.Position(pos)
	}
	return d
}

// nestedDiagnostic 不支持的形状：局部类型、匿名结构体或别名
func nestedDiagnostic(pkg *packages.Package, owner *Owner, path string) plugin.Diagnostic {
	name := owner.Name
	if name == "" {
		name = "匿名结构体"
	}
	return newDiagnostic(pkg, plugin.SeverityWarning, CodeNestedType, owner.Pos,
		"%s 不是包级命名类型，无法为其生成 %s", name, path)
}
