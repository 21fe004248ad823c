package printgen

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_SingleField(t *testing.T) {
	res := runPackage(t, map[string]string{
		"point.go": `package geo

type Point struct {
	X int // @Printable
	Y int
}
`,
	})

	assert.Equal(t, []string{"Point.Printables", MarkerKey}, fragmentKeys(res.Fragments))
	assert.Empty(t, res.Diagnostics)

	content := fragment(t, res, "Point.Printables")
	assert.True(t, strings.HasPrefix(string(content), "// Code generated by printgen. DO NOT EDIT."))
	assert.Contains(t, string(content), "//go:build !printgen")

	file, methods := parseGenerated(t, content)
	assert.Equal(t, "geo", file.Name.Name)
	assert.Equal(t, []string{`"fmt"`}, importPaths(file))

	want := []generatedMethod{
		{Receiver: "p *Point", Name: "PrintX", Body: []string{`fmt.Println("X: " + fmt.Sprint(p.X))`}},
	}
	if diff := cmp.Diff(want, methods); diff != "" {
		t.Errorf("生成的方法不一致 (-want +got):\n%s", diff)
	}
}

func TestRun_MarkerFragment(t *testing.T) {
	res := runPackage(t, map[string]string{
		"point.go": `package geo

type Point struct {
	X int // @Printable
}
`,
	})

	content := fragment(t, res, MarkerKey)
	assert.Equal(t, string(MarkerSource("geo", false)), string(content))
	assert.Contains(t, string(content), "type Printable struct{}")
	assert.Contains(t, string(content), "//go:build !printgen")
}

func TestRun_StubPrintsDirectFieldsInOrder(t *testing.T) {
	res := runPackage(t, map[string]string{
		"widget.go": `package ui

type Widget struct {
	Width  int
	Height int
}
`,
		"widget_print.go": `//go:build printgen

package ui

func (w *Widget) PrintAllFields()
`,
	})

	assert.Equal(t, []string{MarkerKey, "Widget.PrintAllFields"}, fragmentKeys(res.Fragments))

	_, methods := parseGenerated(t, fragment(t, res, "Widget.PrintAllFields"))
	want := []generatedMethod{{
		Receiver: "w *Widget",
		Name:     "PrintAllFields",
		Body: []string{
			`fmt.Println("Width: " + fmt.Sprint(w.Width))`,
			`fmt.Println("Height: " + fmt.Sprint(w.Height))`,
		},
	}}
	if diff := cmp.Diff(want, methods); diff != "" {
		t.Errorf("生成的方法不一致 (-want +got):\n%s", diff)
	}
}

func TestRun_StubOnEmptyStruct(t *testing.T) {
	res := runPackage(t, map[string]string{
		"empty.go": `package ui

type Empty struct{}

func (Empty) PrintAllFields()
`,
	})

	file, methods := parseGenerated(t, fragment(t, res, "Empty.PrintAllFields"))
	assert.Empty(t, importPaths(file))
	require.Len(t, methods, 1)
	assert.Equal(t, "e Empty", methods[0].Receiver)
	assert.Empty(t, methods[0].Body)
}

func TestRun_StubKeepsReceiverShape(t *testing.T) {
	res := runPackage(t, map[string]string{
		"box.go": `package ui

type Box[K comparable, V any] struct {
	Key   K
	Value V
}

func (self Box[K, V]) PrintAllFields()
`,
	})

	_, methods := parseGenerated(t, fragment(t, res, "Box.PrintAllFields"))
	require.Len(t, methods, 1)
	assert.Equal(t, "self Box[K, V]", methods[0].Receiver)
	assert.Equal(t, []string{
		`fmt.Println("Key: " + fmt.Sprint(self.Key))`,
		`fmt.Println("Value: " + fmt.Sprint(self.Value))`,
	}, methods[0].Body)
}

func TestRun_StubExcludesPromotedFields(t *testing.T) {
	res := runPackage(t, map[string]string{
		"model.go": `package ui

type Base struct {
	ID int
}

type Widget struct {
	Base
	Name string
	_    int
}

func (w *Widget) PrintAllFields()
`,
	})

	require.Len(t, res.Stubs, 1)
	assert.Equal(t, []string{"Base", "Name"}, res.Stubs[0].Fields)
}

func TestRun_GroupsFieldsByType(t *testing.T) {
	res := runPackage(t, map[string]string{
		"a.go": `package shapes

type Rect struct {
	// @Printable
	W, H int
	Label string // @Printable
}
`,
		"b.go": `package shapes

type Circle struct {
	R float64 // @Printable
}
`,
	})

	assert.Equal(t, []string{"Circle.Printables", "PrintableMarker", "Rect.Printables"}, fragmentKeys(res.Fragments))

	_, methods := parseGenerated(t, fragment(t, res, "Rect.Printables"))
	names := make([]string, 0, len(methods))
	for _, m := range methods {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"PrintW", "PrintH", "PrintLabel"}, names)
}

func TestRun_EmbeddedAndBlankFields(t *testing.T) {
	res := runPackage(t, map[string]string{
		"a.go": `package shapes

type Base struct{}

type Node struct {
	Base // @Printable
	_ int // @Printable
}
`,
	})

	_, methods := parseGenerated(t, fragment(t, res, "Node.Printables"))
	require.Len(t, methods, 1)
	assert.Equal(t, "PrintBase", methods[0].Name)
}

func TestRun_GenericOwner(t *testing.T) {
	res := runPackage(t, map[string]string{
		"box.go": `package shapes

type Box[T any] struct {
	V T // @Printable
}
`,
	})

	_, methods := parseGenerated(t, fragment(t, res, "Box.Printables"))
	require.Len(t, methods, 1)
	assert.Equal(t, "b *Box[T]", methods[0].Receiver)
}

func TestRun_NestedTypesReportDiagnostic(t *testing.T) {
	res := runPackage(t, map[string]string{
		"a.go": `package shapes

func build() {
	type Point struct {
		X int // @Printable
	}
	_ = Point{}
}

var config struct {
	Debug bool // @Printable
}

type Alias = struct {
	On bool // @Printable
}
`,
	})

	assert.Equal(t, []string{MarkerKey}, fragmentKeys(res.Fragments))
	assert.Equal(t, []string{CodeNestedType, CodeNestedType, CodeNestedType}, diagnosticCodes(res.Diagnostics))
	assert.Len(t, res.Groups, 3)
}

func TestRun_SameNameDifferentTypes(t *testing.T) {
	res := runPackage(t, map[string]string{
		"a.go": `package shapes

func one() {
	type Point struct {
		X int // @Printable
	}
	_ = Point{}
}

func two() {
	type Point struct {
		X int // @Printable
	}
	_ = Point{}
}
`,
	})

	require.Len(t, res.Groups, 2)
	assert.NotSame(t, res.Groups[0].Owner, res.Groups[1].Owner)
}

func TestRun_ForeignAnnotation(t *testing.T) {
	res := runPackage(t, map[string]string{
		"a.go": `package shapes

import "strings"

var _ = strings.ToUpper

type Point struct {
	X int // @strings.Printable
}
`,
	})

	assert.Equal(t, []string{MarkerKey}, fragmentKeys(res.Fragments))
	assert.Equal(t, []string{CodeForeignMarker}, diagnosticCodes(res.Diagnostics))
}

func TestRun_ShadowedMarker(t *testing.T) {
	res := runPackage(t, map[string]string{
		"a.go": `package shapes

func build() {
	type Printable struct{}
	type Point struct {
		X int // @Printable
	}
	_, _ = Printable{}, Point{}
}
`,
	})

	assert.Empty(t, res.Groups)
	assert.Equal(t, []string{CodeForeignMarker}, diagnosticCodes(res.Diagnostics))
}

func TestRun_AliasOfMarker(t *testing.T) {
	res := runPackage(t, map[string]string{
		"a.go": `package shapes

type P = Printable

type Point struct {
	X int // @P
}
`,
	})

	assert.Equal(t, []string{"Point.Printables", MarkerKey}, fragmentKeys(res.Fragments))
}

func TestRun_UnrelatedAnnotationsOnly(t *testing.T) {
	res := runPackage(t, map[string]string{
		"a.go": `package shapes

type Point struct {
	X int // @Deprecated
}
`,
	})

	assert.Empty(t, res.Fragments)
	assert.Empty(t, res.Diagnostics)
}

func TestRun_UserDeclaredMarker(t *testing.T) {
	res := runPackage(t, map[string]string{
		"zz.go": `package shapes

type Printable int

type Point struct {
	X int // @Printable
}
`,
	})

	assert.Empty(t, res.Fragments)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, CodeMarkerRedeclared, res.Diagnostics[0].Code)
	assert.Equal(t, "zz.go", filepath.Base(res.Diagnostics[0].Position.Filename))
	assert.Equal(t, 3, res.Diagnostics[0].Position.Line)
}

func TestRun_NameCollision(t *testing.T) {
	res := runPackage(t, map[string]string{
		"a.go": `package shapes

type Point struct {
	X int // @Printable
	Y int // @Printable
}

func (p Point) PrintX() {}
`,
	})

	assert.Equal(t, []string{CodeNameConflict}, diagnosticCodes(res.Diagnostics))
	_, methods := parseGenerated(t, fragment(t, res, "Point.Printables"))
	require.Len(t, methods, 1)
	assert.Equal(t, "PrintY", methods[0].Name)
}

func TestRun_BothPathsOnOneType(t *testing.T) {
	res := runPackage(t, map[string]string{
		"widget.go": `package ui

type Widget struct {
	AllFields int // @Printable
	Width     int // @Printable
}
`,
		"widget_print.go": `package ui

func (w *Widget) PrintAllFields()
`,
	})

	assert.Equal(t, []string{MarkerKey, "Widget.PrintAllFields", "Widget.Printables"}, fragmentKeys(res.Fragments))

	// PrintAllFields 已由桩方法占用
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, CodeNameConflict, res.Diagnostics[0].Code)
	assert.Equal(t, "widget_print.go", filepath.Base(res.Diagnostics[0].Position.Filename))

	_, methods := parseGenerated(t, fragment(t, res, "Widget.Printables"))
	require.Len(t, methods, 1)
	assert.Equal(t, "PrintWidth", methods[0].Name)

	_, methods = parseGenerated(t, fragment(t, res, "Widget.PrintAllFields"))
	require.Len(t, methods, 1)
	assert.Equal(t, []string{
		`fmt.Println("AllFields: " + fmt.Sprint(w.AllFields))`,
		`fmt.Println("Width: " + fmt.Sprint(w.Width))`,
	}, methods[0].Body)
}

func TestRun_StubOnNonStructType(t *testing.T) {
	res := runPackage(t, map[string]string{
		"ids.go": `package ui

type IDs []int

func (ids IDs) PrintAllFields()
`,
	})

	_, methods := parseGenerated(t, fragment(t, res, "IDs.PrintAllFields"))
	require.Len(t, methods, 1)
	assert.Equal(t, "ids IDs", methods[0].Receiver)
	assert.Empty(t, methods[0].Body)
	assert.Empty(t, res.Diagnostics)
}

func TestRun_StubOnForeignTypeIgnored(t *testing.T) {
	res := runPackage(t, map[string]string{
		"builder.go": `package ui

import "strings"

func (b *strings.Builder) PrintAllFields()
`,
	})

	assert.Empty(t, res.Stubs)
	assert.Empty(t, res.Diagnostics)
	assert.Equal(t, []string{MarkerKey}, fragmentKeys(res.Fragments))
}

func TestRun_PackageDeclaresFmt(t *testing.T) {
	res := runPackage(t, map[string]string{
		"a.go": `package shapes

var fmt = "shadowed"

type Point struct {
	X int // @Printable
}

type Widget struct {
	Width int
}

func (printfmt *Widget) PrintAllFields()
`,
	})

	assert.Empty(t, res.Diagnostics)

	file, methods := parseGenerated(t, fragment(t, res, "Point.Printables"))
	require.Len(t, file.Imports, 1)
	require.NotNil(t, file.Imports[0].Name)
	assert.Equal(t, "printfmt", file.Imports[0].Name.Name)
	assert.Equal(t, []string{`printfmt.Println("X: " + printfmt.Sprint(p.X))`}, methods[0].Body)

	// 与导入名相同的接收者会被改名
	_, methods = parseGenerated(t, fragment(t, res, "Widget.PrintAllFields"))
	require.Len(t, methods, 1)
	assert.Equal(t, "w *Widget", methods[0].Receiver)
	assert.Equal(t, []string{`printfmt.Println("Width: " + printfmt.Sprint(w.Width))`}, methods[0].Body)
}

func TestRun_NoCandidates(t *testing.T) {
	res := runPackage(t, map[string]string{
		"a.go": `package shapes

type Point struct {
	X int
}
`,
	})

	assert.Empty(t, res.Fragments)
	assert.Empty(t, res.Diagnostics)
}

func TestRun_Idempotent(t *testing.T) {
	sources := map[string]string{
		"a.go": `package shapes

type Point struct {
	X, Y int // @Printable
}

type Widget struct {
	Width int
}

func (w *Widget) PrintAllFields()
`,
	}

	first := runPackage(t, sources)
	second := runPackage(t, sources)
	if diff := cmp.Diff(first.Fragments, second.Fragments); diff != "" {
		t.Errorf("两次生成结果不一致 (-first +second):\n%s", diff)
	}
}

func TestRun_MissingTypeInfo(t *testing.T) {
	_, err := Run(nil)
	assert.Error(t, err)
}
