// Package printgen 为带有 @Printable 注解的结构体字段生成打印方法。
//
// 字段注解：
//
//	type Point struct {
//		X int // @Printable
//	}
//
// 生成 point_printables_gen.go：
//
//	func (p *Point) PrintX() {
//		fmt.Println("X: " + fmt.Sprint(p.X))
//	}
//
// 桩方法：在带有 //go:build printgen 的文件中声明没有函数体的
// PrintAllFields 方法，生成的实现按声明顺序打印该类型的全部直接字段。
//
// 注解通过类型信息解析，只有指向注入的 Printable 类型（或它的别名）的注解才会生效。
// 局部类型、匿名结构体和别名无法声明方法，只报告诊断，不生成代码。
package printgen
