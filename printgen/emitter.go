package printgen

import (
	"strings"

	"github.com/donutnomad/gg"
	"github.com/samber/lo"
)

// Emission 一个待注册的片段
type Emission struct {
	Key  string
	Text string
}

// Target 生成文件所在的包
type Target struct {
	Package string // 包名
	Fmt     string // fmt 包在生成文件中的导入名，空表示 fmt
}

func (t Target) fmtName() string {
	if t.Fmt == "" {
		return "fmt"
	}
	return t.Fmt
}

// EmitPrintables 为一组字段生成 Print<Field> 方法，每个字段一个方法
// 所属类型不是包级命名类型时返回 nil
func EmitPrintables(target Target, group *FieldGroup) *Emission {
	if group == nil || group.Owner == nil || !group.Owner.TopLevel || len(group.Fields) == 0 {
		return nil
	}
	owner := group.Owner
	recv := ownerReceiver(owner, target.fmtName())

	gen := newFile(target)
	for i, f := range group.Fields {
		if i > 0 {
			gen.Body().AddLine()
		}
		gen.Body().NewFunction(PrintPrefix+f.Name).
			WithReceiver(recv.Name, recv.Type).
			AddBody(printStatement(target.fmtName(), recv.Name, f.Name))
	}

	return &Emission{
		Key:  owner.Name + "." + PrintablesSuffix,
		Text: render(gen),
	}
}

// EmitPrintAll 为桩方法生成实现，按声明顺序打印类型的全部直接字段
// 所属类型不是包级命名类型时返回 nil
func EmitPrintAll(target Target, group *ResolvedStubGroup) *Emission {
	if group == nil || group.Owner == nil || !group.Owner.TopLevel {
		return nil
	}
	recv := group.Receiver

	var gen *gg.Generator
	if len(group.Fields) == 0 {
		// 没有字段时不导入 fmt，注释后换行使右括号另起一行
		gen = gg.New()
		gen.SetPackage(target.Package)
		gen.Body().NewFunction(StubName).
			WithReceiver(recv.Name, recv.Type).
			AddBody(gg.LineComment("%s 没有可打印的字段", group.Owner.Name), gg.Line())
	} else {
		gen = newFile(target)
		gen.Body().NewFunction(StubName).
			WithReceiver(recv.Name, recv.Type).
			AddBody(lo.Map(group.Fields, func(name string, _ int) any {
				return printStatement(target.fmtName(), recv.Name, name)
			})...)
	}

	return &Emission{
		Key:  group.Owner.Name + "." + StubName,
		Text: render(gen),
	}
}

// ownerReceiver 逐字段方法统一使用指针接收者
func ownerReceiver(owner *Owner, fmtName string) Receiver {
	typ := "*" + owner.Name
	if len(owner.TypeParams) > 0 {
		typ += "[" + strings.Join(owner.TypeParams, ", ") + "]"
	}
	return Receiver{
		Name: receiverName(owner.Name, append([]string{fmtName}, owner.TypeParams...)),
		Type: typ,
	}
}

// printStatement fmt.Println("<Field>: " + fmt.Sprint(<recv>.<Field>))
func printStatement(fmtName, recv, field string) any {
	return gg.S("%s.Println(%s + %s.Sprint(%s.%s))", fmtName, gg.Lit(field+": "), fmtName, recv, field)
}

// newFile 创建导入了 fmt 的生成文件
func newFile(target Target) *gg.Generator {
	gen := gg.New()
	gen.SetPackage(target.Package)
	if name := target.fmtName(); name != "fmt" {
		gen.PAlias("fmt", name)
	} else {
		gen.P("fmt")
	}
	return gen
}

func render(gen *gg.Generator) string {
	return generatedHeader + gen.String()
}
