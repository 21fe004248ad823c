package printgen

import (
	"errors"
	"fmt"

	"github.com/donutnomad/printgen/plugin"
	"github.com/samber/lo"
	"golang.org/x/tools/go/packages"
)

// Result 一个包的生成结果
type Result struct {
	Fragments   []plugin.Fragment
	Diagnostics []plugin.Diagnostic
	Groups      []*FieldGroup
	Stubs       []*ResolvedStubGroup
}

// Run 对一个已完成类型检查的包执行 扫描 -> 解析 -> 分组 -> 生成 -> 注册
// 包本身不会被修改
func Run(pkg *packages.Package) (*Result, error) {
	if pkg == nil || pkg.Types == nil || pkg.TypesInfo == nil {
		return nil, errors.New("包缺少类型信息")
	}

	result := &Result{}
	cands := Scan(pkg.Syntax)
	if cands.Empty() {
		return result, nil
	}

	marker, conflict := lookupMarker(pkg)
	if conflict.IsValid() {
		result.Diagnostics = append(result.Diagnostics, newDiagnostic(pkg, plugin.SeverityError, CodeMarkerRedeclared, conflict,
			"包 %s 已声明 %s，无法注入标记类型", pkg.PkgPath, MarkerName))
	}

	resolver := NewResolver(pkg, marker)
	fields := resolver.ResolveFields(cands.Fields)
	result.Stubs = resolver.ResolveStubs(cands.Stubs)
	result.Groups = GroupFields(fields)
	result.Diagnostics = append(result.Diagnostics, resolver.Diagnostics()...)

	target := Target{Package: pkg.Name, Fmt: resolver.FmtName()}
	var emissions []*Emission
	for _, group := range result.Groups {
		if !group.Owner.TopLevel {
			result.Diagnostics = append(result.Diagnostics, nestedDiagnostic(pkg, group.Owner, PrintPrefix+"<Field>"))
		}
		emissions = append(emissions, EmitPrintables(target, group))
	}
	for _, stub := range result.Stubs {
		if !stub.Owner.TopLevel {
			result.Diagnostics = append(result.Diagnostics, nestedDiagnostic(pkg, stub.Owner, StubName))
		}
		emissions = append(emissions, EmitPrintAll(target, stub))
	}

	sink := NewSink()
	if !conflict.IsValid() && (len(fields) > 0 || len(cands.Stubs) > 0 || cands.mentions(MarkerName)) {
		if err := sink.AddMarker(pkg.Name); err != nil {
			return nil, err
		}
	}
	if err := sink.AddAll(lo.Compact(emissions)); err != nil {
		return nil, fmt.Errorf("注册片段失败: %w", err)
	}
	result.Fragments = sink.Fragments()
	return result, nil
}
