package printgen

import (
	"bytes"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/printer"
	"go/token"
	"go/types"
	"path/filepath"
	"slices"
	"testing"

	"github.com/donutnomad/printgen/plugin"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/packages"
)

const testPkgDir = "/src/demo"

// loadPackage 在内存中完成类型检查，与加载时一样注入标记类型
// 类型错误会被忽略，与真实加载时的行为一致
func loadPackage(t *testing.T, sources map[string]string) *packages.Package {
	t.Helper()

	fset := token.NewFileSet()
	all := make(map[string][]byte, len(sources)+1)
	for name, src := range sources {
		all[name] = []byte(src)
	}

	// 先解析一个文件以获取包名
	names := lo.Keys(all)
	slices.Sort(names)
	first, err := parser.ParseFile(fset, filepath.Join(testPkgDir, names[0]), all[names[0]], parser.PackageClauseOnly)
	require.NoError(t, err)
	pkgName := first.Name.Name

	all[MarkerFileName()] = MarkerSource(pkgName, true)
	names = lo.Keys(all)
	slices.Sort(names)

	var files []*ast.File
	var paths []string
	for _, name := range names {
		path := filepath.Join(testPkgDir, name)
		f, err := parser.ParseFile(fset, path, all[name], parser.ParseComments)
		require.NoError(t, err, name)
		files = append(files, f)
		paths = append(paths, path)
	}

	info := &types.Info{
		Types:      make(map[ast.Expr]types.TypeAndValue),
		Defs:       make(map[*ast.Ident]types.Object),
		Uses:       make(map[*ast.Ident]types.Object),
		Implicits:  make(map[ast.Node]types.Object),
		Selections: make(map[*ast.SelectorExpr]*types.Selection),
		Scopes:     make(map[ast.Node]*types.Scope),
	}
	conf := types.Config{
		Importer: importer.ForCompiler(fset, "source", nil),
		Error:    func(error) {},
	}
	tpkg, _ := conf.Check("example.com/demo", fset, files, info)
	require.NotNil(t, tpkg)

	return &packages.Package{
		ID:        "example.com/demo",
		Name:      pkgName,
		PkgPath:   "example.com/demo",
		GoFiles:   paths,
		Fset:      fset,
		Syntax:    files,
		Types:     tpkg,
		TypesInfo: info,
	}
}

func runPackage(t *testing.T, sources map[string]string) *Result {
	t.Helper()
	res, err := Run(loadPackage(t, sources))
	require.NoError(t, err)
	return res
}

func fragmentKeys(fragments []plugin.Fragment) []string {
	return lo.Map(fragments, func(f plugin.Fragment, _ int) string { return f.Key })
}

func fragment(t *testing.T, res *Result, key string) []byte {
	t.Helper()
	f, ok := lo.Find(res.Fragments, func(f plugin.Fragment) bool { return f.Key == key })
	require.True(t, ok, "缺少片段 %s，现有 %v", key, fragmentKeys(res.Fragments))
	return f.Content
}

func diagnosticCodes(diags []plugin.Diagnostic) []string {
	return lo.Map(diags, func(d plugin.Diagnostic, _ int) string { return d.Code })
}

// generatedMethod 生成文件中的一个方法
type generatedMethod struct {
	Receiver string   // 例如 "p *Point"
	Name     string
	Body     []string // 每条语句的规范化文本
}

// parseGenerated 解析生成的源码，返回其中的方法，不依赖生成器的排版
func parseGenerated(t *testing.T, src []byte) (*ast.File, []generatedMethod) {
	t.Helper()

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "gen.go", src, parser.ParseComments)
	require.NoError(t, err, string(src))

	node := func(n any) string {
		var buf bytes.Buffer
		require.NoError(t, printer.Fprint(&buf, fset, n))
		return buf.String()
	}

	var methods []generatedMethod
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv == nil {
			continue
		}
		recv := fn.Recv.List[0]
		m := generatedMethod{
			Receiver: recv.Names[0].Name + " " + node(recv.Type),
			Name:     fn.Name.Name,
		}
		for _, stmt := range fn.Body.List {
			m.Body = append(m.Body, node(stmt))
		}
		methods = append(methods, m)
	}
	return file, methods
}

func importPaths(file *ast.File) []string {
	return lo.Map(file.Imports, func(spec *ast.ImportSpec, _ int) string {
		return spec.Path.Value
	})
}
