package printgen

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/donutnomad/printgen/plugin"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"
)

const generatorName = "printgen"

// PrintGenerator 实现 plugin.Generator 接口
type PrintGenerator struct {
	plugin.BaseGenerator
}

func NewGenerator() *PrintGenerator {
	gen := &PrintGenerator{
		BaseGenerator: *plugin.NewBaseGenerator(generatorName, []string{MarkerName}),
	}
	gen.SetPriority(10)
	return gen
}

// QuickMatch 任意注解都可能通过别名或限定名指向标记类型，桩方法按名称匹配
func (g *PrintGenerator) QuickMatch(line string) bool {
	return strings.Contains(line, StubName) || len(plugin.ParseAnnotations(line)) > 0
}

// Overlay 向包内注入标记类型
func (g *PrintGenerator) Overlay(pkg *packages.Package) map[string][]byte {
	dir, err := plugin.PackageDir(pkg)
	if err != nil || pkg.Name == "" {
		return nil
	}
	return map[string][]byte{
		filepath.Join(dir, MarkerFileName()): MarkerSource(pkg.Name, true),
	}
}

// Describe 帮助信息中的用法示例
func (g *PrintGenerator) Describe() []string {
	return []string{
		"type Point struct {",
		"    X int // @Printable",
		"}",
		"",
		"//go:build printgen",
		"func (w *Widget) PrintAllFields()",
	}
}

// Generate 执行代码生成
func (g *PrintGenerator) Generate(ctx *plugin.GenerateContext) (*plugin.GenerateResult, error) {
	result := plugin.NewGenerateResult()

	res, err := Run(ctx.Package)
	if err != nil {
		result.AddError(fmt.Errorf("%s: %w", pkgPath(ctx.Package), err))
		return result, nil
	}

	logger := ctx.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if ctx.Verbose {
		for _, group := range res.Groups {
			logger.Debug("标记字段", zap.String("dump", spew.Sdump(summarize(group))))
		}
		for _, stub := range res.Stubs {
			logger.Debug("桩方法",
				zap.String("type", stub.Owner.Name),
				zap.String("receiver", stub.Receiver.Name+" "+stub.Receiver.Type),
				zap.Strings("fields", stub.Fields))
		}
	}

	for _, f := range res.Fragments {
		result.AddFragment(f.Key, f.Content)
	}
	result.AddDiagnostic(res.Diagnostics...)
	return result, nil
}

func pkgPath(pkg *packages.Package) string {
	if pkg == nil {
		return "<nil>"
	}
	return pkg.PkgPath
}

// groupSummary 只保留可读字段，避免把整个类型图打印出来
type groupSummary struct {
	Type     string
	TopLevel bool
	Fields   []string
}

func summarize(group *FieldGroup) groupSummary {
	return groupSummary{
		Type:     group.Owner.Name,
		TopLevel: group.Owner.TopLevel,
		Fields: lo.Map(group.Fields, func(f ResolvedField, _ int) string {
			return f.Name
		}),
	}
}
