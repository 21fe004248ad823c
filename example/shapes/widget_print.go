//go:build printgen

package shapes

func (w *Widget) PrintAllFields()

func (b *Box[T]) PrintAllFields()
