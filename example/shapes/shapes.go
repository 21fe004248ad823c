// Package shapes 演示 printgen 的两种用法，在仓库根目录执行 printgen 生成代码
package shapes

// Point 标记单个字段，生成 PrintX / PrintY
type Point struct {
	X int // @Printable
	Y int // @Printable
	// 不打印
	Label string
}

// Box 泛型类型同样支持
type Box[T any] struct {
	// @Printable
	Value T
	Count int
}

// Widget 通过 PrintAllFields 桩方法打印全部字段，桩方法见 widget_print.go
type Widget struct {
	Point
	Width  int
	Height int
	_      struct{}
}
