package printgen

import (
	"go/ast"

	"github.com/donutnomad/printgen/plugin"
)

// FieldCandidate 带注解的结构体字段（仅语法层面，尚未确认是否为标记注解）
type FieldCandidate struct {
	File        *ast.File
	Field       *ast.Field
	Struct      *ast.StructType
	Spec        *ast.TypeSpec // 直接声明该结构体的类型声明，匿名结构体为 nil
	Annotations []*plugin.Annotation
}

// StubCandidate 形如 func (r *T) PrintAllFields() 且没有函数体的方法声明
type StubCandidate struct {
	File *ast.File
	Decl *ast.FuncDecl
}

// Candidates 扫描结果，两个列表均按源码顺序排列
type Candidates struct {
	Fields []FieldCandidate
	Stubs  []StubCandidate
}

// Empty 是否没有任何候选
func (c *Candidates) Empty() bool {
	return len(c.Fields) == 0 && len(c.Stubs) == 0
}

// mentions 是否有字段候选带有指定名称的注解（忽略限定名）
func (c *Candidates) mentions(name string) bool {
	for _, f := range c.Fields {
		if plugin.HasAnnotation(f.Annotations, name) {
			return true
		}
	}
	return false
}

// Scan 深度优先遍历语法树，收集字段候选和桩方法候选
// 只做语法匹配，误报由解析阶段过滤
func Scan(files []*ast.File) *Candidates {
	c := &Candidates{}
	for _, file := range files {
		// stack 记录当前节点的祖先
		var stack []ast.Node
		ast.Inspect(file, func(n ast.Node) bool {
			if n == nil {
				stack = stack[:len(stack)-1]
				return true
			}
			switch node := n.(type) {
			case *ast.Field:
				c.visitField(file, node, stack)
			case *ast.FuncDecl:
				c.visitFunc(file, node)
			}
			stack = append(stack, n)
			return true
		})
	}
	return c
}

// visitField 只接受结构体中的字段：Field -> FieldList -> StructType
func (c *Candidates) visitField(file *ast.File, field *ast.Field, stack []ast.Node) {
	if len(stack) < 2 {
		return
	}
	if _, ok := stack[len(stack)-1].(*ast.FieldList); !ok {
		return
	}
	st, ok := stack[len(stack)-2].(*ast.StructType)
	if !ok {
		return
	}

	annotations := fieldAnnotations(field)
	if len(annotations) == 0 {
		return
	}

	var spec *ast.TypeSpec
	if len(stack) >= 3 {
		if ts, ok := stack[len(stack)-3].(*ast.TypeSpec); ok && ts.Type == st {
			spec = ts
		}
	}

	c.Fields = append(c.Fields, FieldCandidate{
		File:        file,
		Field:       field,
		Struct:      st,
		Spec:        spec,
		Annotations: annotations,
	})
}

// visitFunc 桩方法：有接收者、无函数体、无参数、无返回值、名称为 PrintAllFields
func (c *Candidates) visitFunc(file *ast.File, decl *ast.FuncDecl) {
	if decl.Recv == nil || len(decl.Recv.List) == 0 {
		return
	}
	if decl.Body != nil || decl.Name.Name != StubName {
		return
	}
	if decl.Type.Params.NumFields() > 0 || decl.Type.Results.NumFields() > 0 {
		return
	}
	c.Stubs = append(c.Stubs, StubCandidate{File: file, Decl: decl})
}

// fieldAnnotations 解析字段文档注释和行尾注释中的注解
func fieldAnnotations(field *ast.Field) []*plugin.Annotation {
	var annotations []*plugin.Annotation
	for _, cg := range []*ast.CommentGroup{field.Doc, field.Comment} {
		if cg == nil {
			continue
		}
		annotations = append(annotations, plugin.ParseAnnotations(cg.Text())...)
	}
	return annotations
}
