package printgen

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"path/filepath"

	"github.com/donutnomad/printgen/plugin"
	"golang.org/x/tools/go/packages"
)

const (
	// MarkerName 标记注解对应的类型名
	MarkerName = "Printable"
	// MarkerKey 标记类型片段的固定 Key
	MarkerKey = "PrintableMarker"
	// PrintPrefix 逐字段打印方法的名称前缀
	PrintPrefix = "Print"
	// StubName 桩方法名称
	StubName = "PrintAllFields"
	// PrintablesSuffix 逐字段打印片段的 Key 后缀
	PrintablesSuffix = "Printables"
)

// generatedHeader 所有生成文件的文件头
// 生成文件只在非 printgen 构建下参与编译
var generatedHeader = "// Code generated by printgen. DO NOT EDIT.\n\n//go:build !" + plugin.BuildTag + "\n\n"

const markerTemplate = `package %s

// Printable 标记结构体字段，为其生成 Print<Field> 方法。
//
//	type Point struct {
//		X int // @Printable
//	}
type Printable struct{}
`

// MarkerFileName 标记类型所在的文件名
func MarkerFileName() string {
	return plugin.FragmentFileName(MarkerKey)
}

// MarkerSource 返回标记类型的源码
// overlay 为 true 时用于注入到加载过程，不带生成文件头和构建约束
func MarkerSource(pkgName string, overlay bool) []byte {
	src := fmt.Sprintf(markerTemplate, pkgName)
	if overlay {
		return []byte(src)
	}
	return []byte(generatedHeader + src)
}

func isMarkerFile(path string) bool {
	return filepath.Base(path) == MarkerFileName()
}

// lookupMarker 在包作用域中查找注入的标记类型
// conflict 有效时表示包内已有同名声明，标记类型无法使用
func lookupMarker(pkg *packages.Package) (marker *types.TypeName, conflict token.Pos) {
	if pos := markerDeclaration(pkg); pos.IsValid() {
		return nil, pos
	}
	tn, ok := pkg.Types.Scope().Lookup(MarkerName).(*types.TypeName)
	if !ok {
		return nil, token.NoPos
	}
	if !isMarkerFile(pkg.Fset.Position(tn.Pos()).Filename) {
		return nil, tn.Pos()
	}
	return tn, token.NoPos
}

// markerDeclaration 返回用户代码中与标记同名的包级声明位置
// 重复声明时类型检查只保留其中一个，所以这里按语法查找
func markerDeclaration(pkg *packages.Package) token.Pos {
	for _, file := range pkg.Syntax {
		if isMarkerFile(pkg.Fset.Position(file.Package).Filename) {
			continue
		}
		for _, decl := range file.Decls {
			switch d := decl.(type) {
			case *ast.FuncDecl:
				if d.Recv == nil && d.Name.Name == MarkerName {
					return d.Name.Pos()
				}
			case *ast.GenDecl:
				if d.Tok == token.IMPORT {
					continue
				}
				for _, spec := range d.Specs {
					switch s := spec.(type) {
					case *ast.TypeSpec:
						if s.Name.Name == MarkerName {
							return s.Name.Pos()
						}
					case *ast.ValueSpec:
						for _, name := range s.Names {
							if name.Name == MarkerName {
								return name.Pos()
							}
						}
					}
				}
			}
		}
	}
	return token.NoPos
}
