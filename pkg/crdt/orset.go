package crdt

import (
	"cmp"
	"fmt"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/johvnik/CmRDTs/pkg/causal"
	"github.com/vmihailenco/msgpack/v5"
)

// ORSet 实现观察-移除 (Observed-Remove) 集合，并发添加优先 (add-wins)。
// 每次添加以其 Dot 标记；移除只会注销移除方已经观察到的那些 Dot。
// 已移除的 Dot 永远不会被清理。
type ORSet[T cmp.Ordered] struct {
	adds    map[T]mapset.Set[causal.Dot] // 元素 -> 添加它的 Dot 集合
	removes mapset.Set[causal.Dot]       // 已注销的 Dot
}

// NewORSet 创建一个新的 ORSet。
func NewORSet[T cmp.Ordered]() *ORSet[T] {
	return &ORSet[T]{
		adds:    make(map[T]mapset.Set[causal.Dot]),
		removes: mapset.NewThreadUnsafeSet[causal.Dot](),
	}
}

// ORSetOpKind 区分添加和移除。
type ORSetOpKind uint8

const (
	ORSetAddKind ORSetOpKind = iota + 1
	ORSetRemoveKind
)

// OpORSet 添加或移除一个元素。
type OpORSet[T cmp.Ordered] struct {
	Kind    ORSetOpKind `msgpack:"k"`
	Element T           `msgpack:"e"`
}

func ORSetAdd[T cmp.Ordered](v T) OpORSet[T] {
	return OpORSet[T]{Kind: ORSetAddKind, Element: v}
}

func ORSetRemove[T cmp.Ordered](v T) OpORSet[T] {
	return OpORSet[T]{Kind: ORSetRemoveKind, Element: v}
}

func (s *ORSet[T]) Type() Type {
	return TypeORSet
}

func (s *ORSet[T]) init() {
	if s.adds == nil {
		s.adds = make(map[T]mapset.Set[causal.Dot])
	}
	if s.removes == nil {
		s.removes = mapset.NewThreadUnsafeSet[causal.Dot]()
	}
}

func (s *ORSet[T]) Apply(op OpORSet[T], ctx causal.AddCtx) {
	s.init()
	switch op.Kind {
	case ORSetAddKind:
		dots, ok := s.adds[op.Element]
		if !ok {
			dots = mapset.NewThreadUnsafeSet[causal.Dot]()
			s.adds[op.Element] = dots
		}
		dots.Add(ctx.Dot)

	case ORSetRemoveKind:
		dots, ok := s.adds[op.Element]
		if !ok {
			return
		}
		// 只注销移除方时钟里已经包含的添加
		dots.Each(func(d causal.Dot) bool {
			if ctx.Clock.Contains(d) {
				s.removes.Add(d)
			}
			return false
		})
	}
}

func (s *ORSet[T]) Merge(other *ORSet[T]) {
	if other == nil {
		return
	}
	s.init()
	for elem, dots := range other.adds {
		mine, ok := s.adds[elem]
		if !ok {
			s.adds[elem] = dots.Clone()
			continue
		}
		dots.Each(func(d causal.Dot) bool {
			mine.Add(d)
			return false
		})
	}
	if other.removes != nil {
		other.removes.Each(func(d causal.Dot) bool {
			s.removes.Add(d)
			return false
		})
	}
}

// live 报告元素是否至少有一个未被注销的添加。
func (s *ORSet[T]) live(dots mapset.Set[causal.Dot]) bool {
	if s.removes == nil {
		return dots.Cardinality() > 0
	}
	return !dots.IsSubset(s.removes)
}

// Read 按升序返回存活的元素。
func (s *ORSet[T]) Read() []T {
	out := make([]T, 0, len(s.adds))
	for elem, dots := range s.adds {
		if s.live(dots) {
			out = append(out, elem)
		}
	}
	slices.Sort(out)
	return out
}

// Elements 与 Read 相同。
func (s *ORSet[T]) Elements() []T {
	return s.Read()
}

func (s *ORSet[T]) Contains(v T) bool {
	dots, ok := s.adds[v]
	return ok && s.live(dots)
}

// AddDots 返回元素已知的全部添加 Dot (含已注销的)，按 Dot 排序。
func (s *ORSet[T]) AddDots(v T) []causal.Dot {
	dots, ok := s.adds[v]
	if !ok {
		return nil
	}
	return sortedDots(dots)
}

// Tombstones 返回已注销的 Dot 个数。
func (s *ORSet[T]) Tombstones() int {
	if s.removes == nil {
		return 0
	}
	return s.removes.Cardinality()
}

func (s *ORSet[T]) Clone() *ORSet[T] {
	s.init()
	out := &ORSet[T]{
		adds:    make(map[T]mapset.Set[causal.Dot], len(s.adds)),
		removes: s.removes.Clone(),
	}
	for elem, dots := range s.adds {
		out.adds[elem] = dots.Clone()
	}
	return out
}

func (s *ORSet[T]) Equal(other *ORSet[T]) bool {
	if other == nil || len(s.adds) != len(other.adds) || s.Tombstones() != other.Tombstones() {
		return false
	}
	for elem, dots := range s.adds {
		o, ok := other.adds[elem]
		if !ok || !dots.Equal(o) {
			return false
		}
	}
	if s.removes == nil || other.removes == nil {
		return true
	}
	return s.removes.Equal(other.removes)
}

func sortedDots(dots mapset.Set[causal.Dot]) []causal.Dot {
	if dots == nil {
		return []causal.Dot{}
	}
	out := dots.ToSlice()
	slices.SortFunc(out, causal.Compare)
	return out
}

type orsetEntry[T cmp.Ordered] struct {
	Element T            `msgpack:"e"`
	Dots    []causal.Dot `msgpack:"d"`
}

type orsetState[T cmp.Ordered] struct {
	Adds    []orsetEntry[T] `msgpack:"adds"`
	Removes []causal.Dot    `msgpack:"removes"`
}

func (s *ORSet[T]) Bytes() ([]byte, error) {
	state := orsetState[T]{
		Adds:    make([]orsetEntry[T], 0, len(s.adds)),
		Removes: sortedDots(s.removes),
	}
	for elem, dots := range s.adds {
		state.Adds = append(state.Adds, orsetEntry[T]{Element: elem, Dots: sortedDots(dots)})
	}
	slices.SortFunc(state.Adds, func(a, b orsetEntry[T]) int {
		return cmp.Compare(a.Element, b.Element)
	})
	return msgpack.Marshal(&state)
}

func FromBytesORSet[T cmp.Ordered](data []byte) (*ORSet[T], error) {
	var state orsetState[T]
	if err := msgpack.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: orset: %v", ErrInvalidData, err)
	}
	s := NewORSet[T]()
	for _, e := range state.Adds {
		if len(e.Dots) == 0 {
			continue
		}
		s.adds[e.Element] = mapset.NewThreadUnsafeSet(e.Dots...)
	}
	for _, d := range state.Removes {
		s.removes.Add(d)
	}
	return s, nil
}
