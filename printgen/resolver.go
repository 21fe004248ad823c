package printgen

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"

	"github.com/donutnomad/printgen/internal/utils"
	"github.com/donutnomad/printgen/plugin"
	"github.com/samber/lo"
	"golang.org/x/tools/go/packages"
)

// Owner 字段所属的类型
// 分组以 ID 的身份为准，同名的不同类型不会合并
type Owner struct {
	ID         types.Type // 命名类型为 *types.Named，匿名结构体或别名为 *types.Struct
	Name       string     // 类型名，匿名结构体为空
	TypeParams []string   // 泛型类型参数名
	TopLevel   bool       // 是否为包级命名类型（只有这种类型可以声明方法）
	Pos        token.Pos
}

// key 分组键，没有类型信息时退化为 Owner 自身的指针
func (o *Owner) key() any {
	if o.ID != nil {
		return o.ID
	}
	return o
}

// ResolvedField 确认带有标记注解的字段
type ResolvedField struct {
	Owner  *Owner
	Name   string
	Marked bool
	Pos    token.Pos
}

// Receiver 生成方法使用的接收者
type Receiver struct {
	Name string // 接收者变量名
	Type string // 接收者类型表达式，如 *Box[T]
}

// ResolvedStubGroup 一个桩方法及其所属类型的全部直接字段
type ResolvedStubGroup struct {
	Owner    *Owner
	Receiver Receiver
	Fields   []string // 声明顺序
	Pos      token.Pos
}

// Resolver 在类型信息上确认扫描阶段的候选
type Resolver struct {
	pkg     *packages.Package
	marker  *types.TypeName
	fmtName string
	owners  map[types.Type]*Owner
	diags   []plugin.Diagnostic
}

// NewResolver marker 为 nil 时任何字段都不会被确认
func NewResolver(pkg *packages.Package, marker *types.TypeName) *Resolver {
	return &Resolver{
		pkg:     pkg,
		marker:  marker,
		fmtName: fmtImportName(pkg.Types.Scope()),
		owners:  make(map[types.Type]*Owner),
	}
}

// FmtName 生成文件中 fmt 包的导入名
func (r *Resolver) FmtName() string {
	return r.fmtName
}

// fmtImportName 包级作用域已有 fmt 时换用不冲突的别名
func fmtImportName(scope *types.Scope) string {
	if scope.Lookup("fmt") == nil {
		return "fmt"
	}
	name := "printfmt"
	for i := 2; scope.Lookup(name) != nil; i++ {
		name = fmt.Sprintf("printfmt%d", i)
	}
	return name
}

// Diagnostics 解析过程中产生的诊断
func (r *Resolver) Diagnostics() []plugin.Diagnostic {
	return r.diags
}

// ResolveFields 保留注解确实指向标记类型的字段
// 一个字段声明可以有多个名称，按声明顺序展开
func (r *Resolver) ResolveFields(cands []FieldCandidate) []ResolvedField {
	if r.marker == nil {
		return nil
	}

	var out []ResolvedField
	for _, cand := range cands {
		marked := lo.ContainsBy(cand.Annotations, func(ann *plugin.Annotation) bool {
			return r.refersToMarker(cand.File, cand.Field.Pos(), ann)
		})
		if !marked {
			if ann := plugin.GetAnnotation(cand.Annotations, MarkerName); ann != nil {
				r.diags = append(r.diags, newDiagnostic(r.pkg, plugin.SeverityInfo, CodeForeignMarker, cand.Field.Pos(),
					"注解 @%s 没有指向标记类型 %s，已忽略", ann.QualifiedName(), MarkerName))
			}
			continue
		}

		owner := r.fieldOwner(cand)
		if owner == nil {
			continue
		}
		for _, v := range r.fieldVars(cand) {
			// 空白字段无法被引用
			if v.Name() == "_" {
				continue
			}
			if r.conflicts(owner, PrintPrefix+v.Name()) {
				continue
			}
			out = append(out, ResolvedField{
				Owner:  owner,
				Name:   v.Name(),
				Marked: true,
				Pos:    v.Pos(),
			})
		}
	}
	return out
}

// ResolveStubs 确认桩方法的接收者类型，并收集该类型的直接字段
// 同一类型出现多个桩方法时只保留第一个，重复声明由编译器报告
func (r *Resolver) ResolveStubs(cands []StubCandidate) []*ResolvedStubGroup {
	var out []*ResolvedStubGroup
	seen := make(map[types.Type]bool)
	for _, cand := range cands {
		fn, ok := r.pkg.TypesInfo.Defs[cand.Decl.Name].(*types.Func)
		if !ok {
			continue
		}
		sig, ok := fn.Type().(*types.Signature)
		if !ok || sig.Recv() == nil {
			continue
		}
		t := types.Unalias(sig.Recv().Type())
		if p, ok := t.(*types.Pointer); ok {
			t = types.Unalias(p.Elem())
		}
		named, ok := t.(*types.Named)
		if !ok {
			continue
		}
		named = named.Origin()
		if named.Obj().Pkg() != r.pkg.Types {
			continue
		}

		owner := r.namedOwner(named)
		if seen[owner.ID] {
			continue
		}
		seen[owner.ID] = true

		recvExpr := cand.Decl.Recv.List[0]
		out = append(out, &ResolvedStubGroup{
			Owner: owner,
			Receiver: Receiver{
				Name: stubReceiverName(owner, recvExpr, r.fmtName),
				Type: types.ExprString(recvExpr.Type),
			},
			Fields: directFields(named),
			Pos:    cand.Decl.Pos(),
		})
	}
	return out
}

// refersToMarker 在字段所在的作用域中解析注解名称，
// 结果与标记类型是同一个对象（或是它的别名）时返回 true
func (r *Resolver) refersToMarker(file *ast.File, pos token.Pos, ann *plugin.Annotation) bool {
	scope := r.scopeAt(file, pos)

	var obj types.Object
	if ann.Qualifier == "" {
		_, obj = scope.LookupParent(ann.Name, token.NoPos)
	} else {
		_, q := scope.LookupParent(ann.Qualifier, token.NoPos)
		pkgName, ok := q.(*types.PkgName)
		if !ok {
			return false
		}
		obj = pkgName.Imported().Scope().Lookup(ann.Name)
	}

	tn, ok := obj.(*types.TypeName)
	if !ok {
		return false
	}
	if tn == r.marker {
		return true
	}
	return tn.IsAlias() && types.Identical(types.Unalias(tn.Type()), r.marker.Type())
}

// scopeAt 返回 pos 处最内层的作用域
func (r *Resolver) scopeAt(file *ast.File, pos token.Pos) *types.Scope {
	fileScope := r.pkg.TypesInfo.Scopes[file]
	if fileScope == nil {
		return r.pkg.Types.Scope()
	}
	if inner := fileScope.Innermost(pos); inner != nil {
		return inner
	}
	return fileScope
}

// fieldOwner 确定字段所属类型
func (r *Resolver) fieldOwner(cand FieldCandidate) *Owner {
	if cand.Spec != nil {
		if obj, ok := r.pkg.TypesInfo.Defs[cand.Spec.Name].(*types.TypeName); ok && !obj.IsAlias() {
			if named, ok := obj.Type().(*types.Named); ok {
				return r.namedOwner(named)
			}
		}
	}

	// 匿名结构体或别名：没有可以声明方法的类型
	st, ok := r.pkg.TypesInfo.TypeOf(cand.Struct).(*types.Struct)
	if !ok {
		return nil
	}
	if owner, ok := r.owners[st]; ok {
		return owner
	}
	owner := &Owner{ID: st, Pos: cand.Struct.Pos()}
	if cand.Spec != nil {
		owner.Name = cand.Spec.Name.Name
		owner.Pos = cand.Spec.Pos()
	}
	r.owners[st] = owner
	return owner
}

func (r *Resolver) namedOwner(named *types.Named) *Owner {
	if owner, ok := r.owners[named]; ok {
		return owner
	}
	obj := named.Obj()
	owner := &Owner{
		ID:       named,
		Name:     obj.Name(),
		TopLevel: obj.Pkg() == r.pkg.Types && obj.Parent() == r.pkg.Types.Scope(),
		Pos:      obj.Pos(),
	}
	if tparams := named.TypeParams(); tparams != nil {
		for i := 0; i < tparams.Len(); i++ {
			owner.TypeParams = append(owner.TypeParams, tparams.At(i).Obj().Name())
		}
	}
	r.owners[named] = owner
	return owner
}

// fieldVars 返回字段声明对应的变量，嵌入字段使用其隐式名称
func (r *Resolver) fieldVars(cand FieldCandidate) []*types.Var {
	var vars []*types.Var
	if len(cand.Field.Names) > 0 {
		for _, name := range cand.Field.Names {
			if v, ok := r.pkg.TypesInfo.Defs[name].(*types.Var); ok {
				vars = append(vars, v)
			}
		}
		return vars
	}

	st, ok := r.pkg.TypesInfo.TypeOf(cand.Struct).(*types.Struct)
	if !ok {
		return nil
	}
	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		if f.Embedded() && f.Pos() >= cand.Field.Pos() && f.Pos() < cand.Field.End() {
			vars = append(vars, f)
		}
	}
	return vars
}

// directFields 类型自身声明的字段，不包含提升字段
func directFields(named *types.Named) []string {
	st, ok := named.Underlying().(*types.Struct)
	if !ok {
		return nil
	}
	var fields []string
	for i := 0; i < st.NumFields(); i++ {
		name := st.Field(i).Name()
		if name == "_" {
			continue
		}
		fields = append(fields, name)
	}
	return fields
}

// conflicts 生成的方法名与类型已有的字段或方法冲突时报告诊断
// 只检查类型自身的成员（index 长度为 1），提升成员会被生成的方法遮蔽
func (r *Resolver) conflicts(owner *Owner, method string) bool {
	if !owner.TopLevel {
		return false
	}
	obj, index, _ := types.LookupFieldOrMethod(owner.ID, true, r.pkg.Types, method)
	if obj == nil || len(index) != 1 {
		return false
	}
	r.diags = append(r.diags, newDiagnostic(r.pkg, plugin.SeverityWarning, CodeNameConflict, obj.Pos(),
		"%s 已有成员 %s，跳过生成", owner.Name, method))
	return true
}

// stubReceiverName 沿用桩方法声明的接收者名称
// 未命名、空白或与 fmt 的导入名相同时改用类型名首字母
func stubReceiverName(owner *Owner, field *ast.Field, fmtName string) string {
	if len(field.Names) > 0 {
		name := field.Names[0].Name
		if name != "_" && name != fmtName {
			return name
		}
	}
	return receiverName(owner.Name, append(receiverTypeParams(field.Type), fmtName))
}

// receiverName 类型名首字母小写，与保留名称冲突时使用 recv
func receiverName(typeName string, reserved []string) string {
	name := utils.ReceiverName(typeName)
	if lo.Contains(reserved, name) {
		return "recv"
	}
	return name
}

// receiverTypeParams 接收者类型表达式中声明的类型参数名
func receiverTypeParams(expr ast.Expr) []string {
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	var indices []ast.Expr
	switch e := expr.(type) {
	case *ast.IndexExpr:
		indices = []ast.Expr{e.Index}
	case *ast.IndexListExpr:
		indices = e.Indices
	}
	var names []string
	for _, idx := range indices {
		if ident, ok := idx.(*ast.Ident); ok {
			names = append(names, ident.Name)
		}
	}
	return names
}
