package crdt

import "cmp"

// ReadOnlySet 定义了集合类 CRDT 的只读接口。
type ReadOnlySet[T cmp.Ordered] interface {
	Contains(element T) bool
	Elements() []T
}

// readOnlyGSet 包装 GSet 以提供只读访问。
type readOnlyGSet[T cmp.Ordered] struct {
	s *GSet[T]
}

// ReadOnlyGSet 返回 s 的只读视图。
func ReadOnlyGSet[T cmp.Ordered](s *GSet[T]) ReadOnlySet[T] {
	return &readOnlyGSet[T]{s: s}
}

func (w *readOnlyGSet[T]) Contains(element T) bool {
	return w.s.Contains(element)
}

func (w *readOnlyGSet[T]) Elements() []T {
	return w.s.Read()
}

// readOnlyORSet 包装 ORSet 以提供只读访问。
type readOnlyORSet[T cmp.Ordered] struct {
	s *ORSet[T]
}

// ReadOnlyORSet 返回 s 的只读视图。
func ReadOnlyORSet[T cmp.Ordered](s *ORSet[T]) ReadOnlySet[T] {
	return &readOnlyORSet[T]{s: s}
}

func (w *readOnlyORSet[T]) Contains(element T) bool {
	return w.s.Contains(element)
}

func (w *readOnlyORSet[T]) Elements() []T {
	return w.s.Elements()
}
