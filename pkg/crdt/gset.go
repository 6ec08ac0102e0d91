package crdt

import (
	"cmp"
	"fmt"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/johvnik/CmRDTs/pkg/causal"
	"github.com/vmihailenco/msgpack/v5"
)

// GSet 实现只增集合。没有移除操作。
type GSet[T cmp.Ordered] struct {
	elements mapset.Set[T]
}

// NewGSet 创建一个新的 GSet。
func NewGSet[T cmp.Ordered]() *GSet[T] {
	return &GSet[T]{elements: mapset.NewThreadUnsafeSet[T]()}
}

// OpGSetAdd 添加一个元素。
type OpGSetAdd[T cmp.Ordered] struct {
	Element T `msgpack:"e"`
}

func GSetAdd[T cmp.Ordered](v T) OpGSetAdd[T] {
	return OpGSetAdd[T]{Element: v}
}

func (s *GSet[T]) Type() Type {
	return TypeGSet
}

func (s *GSet[T]) init() {
	if s.elements == nil {
		s.elements = mapset.NewThreadUnsafeSet[T]()
	}
}

// Apply 插入元素；重复添加被集合自然吸收。
func (s *GSet[T]) Apply(op OpGSetAdd[T], _ causal.AddCtx) {
	s.init()
	s.elements.Add(op.Element)
}

func (s *GSet[T]) Merge(other *GSet[T]) {
	if other == nil || other.elements == nil {
		return
	}
	s.init()
	other.elements.Each(func(v T) bool {
		s.elements.Add(v)
		return false
	})
}

// Read 按升序返回全部元素。
func (s *GSet[T]) Read() []T {
	if s.elements == nil {
		return []T{}
	}
	out := s.elements.ToSlice()
	slices.Sort(out)
	return out
}

func (s *GSet[T]) Contains(v T) bool {
	return s.elements != nil && s.elements.Contains(v)
}

func (s *GSet[T]) Len() int {
	if s.elements == nil {
		return 0
	}
	return s.elements.Cardinality()
}

func (s *GSet[T]) Clone() *GSet[T] {
	s.init()
	return &GSet[T]{elements: s.elements.Clone()}
}

func (s *GSet[T]) Equal(other *GSet[T]) bool {
	if other == nil || s.Len() != other.Len() {
		return false
	}
	return slices.Equal(s.Read(), other.Read())
}

func (s *GSet[T]) Bytes() ([]byte, error) {
	return msgpack.Marshal(s.Read())
}

func FromBytesGSet[T cmp.Ordered](data []byte) (*GSet[T], error) {
	var elements []T
	if err := msgpack.Unmarshal(data, &elements); err != nil {
		return nil, fmt.Errorf("%w: gset: %v", ErrInvalidData, err)
	}
	return &GSet[T]{elements: mapset.NewThreadUnsafeSet(elements...)}, nil
}
