package crdt

import (
	"fmt"
	"reflect"

	"github.com/johvnik/CmRDTs/pkg/causal"
	"github.com/vmihailenco/msgpack/v5"
)

// LWWRegister 实现最后写入胜出 (Last-Write-Wins) 寄存器。
// 胜出者是 Dot 最大的写入：先比较计数器，再用 actor 打破平局。
//
// 切片、映射和指针类型的值在 Apply、Merge 和 Clone 时经 msgpack 深拷贝，
// 寄存器之间不共享底层内存。结构体和接口按赋值复制，其中的引用字段仍共享。
type LWWRegister[T any] struct {
	value T
	dot   *causal.Dot // nil 表示从未写入
}

// NewLWWRegister 创建一个空的 LWWRegister。
func NewLWWRegister[T any]() *LWWRegister[T] {
	return &LWWRegister[T]{}
}

// OpLWWSet 是在 LWWRegister 中设置值的操作。
type OpLWWSet[T any] struct {
	Value T `msgpack:"v"`
}

func LWWSet[T any](v T) OpLWWSet[T] {
	return OpLWWSet[T]{Value: v}
}

// LWWValue 是寄存器的读取结果。Set 为 false 表示从未写入。
type LWWValue[T any] struct {
	Value T
	Set   bool
}

func (r *LWWRegister[T]) Type() Type {
	return TypeLWW
}

// Apply 仅在 ctx.Dot 严格大于当前 Dot 时采用新值，否则静默丢弃。
func (r *LWWRegister[T]) Apply(op OpLWWSet[T], ctx causal.AddCtx) {
	if r.dot != nil && causal.Compare(*r.dot, ctx.Dot) >= 0 {
		return
	}
	d := ctx.Dot
	r.value = cloneValue(op.Value)
	r.dot = &d
}

func (r *LWWRegister[T]) Merge(other *LWWRegister[T]) {
	if other == nil || other.dot == nil {
		return
	}
	if r.dot != nil && causal.Compare(*r.dot, *other.dot) >= 0 {
		return
	}
	d := *other.dot
	r.value = cloneValue(other.value)
	r.dot = &d
}

// Read 返回的值与寄存器共享内存，调用方不得修改。
func (r *LWWRegister[T]) Read() LWWValue[T] {
	return LWWValue[T]{Value: r.value, Set: r.dot != nil}
}

// Dot 返回当前胜出写入的 Dot。
func (r *LWWRegister[T]) Dot() (causal.Dot, bool) {
	if r.dot == nil {
		return causal.Dot{}, false
	}
	return *r.dot, true
}

func (r *LWWRegister[T]) Clone() *LWWRegister[T] {
	out := &LWWRegister[T]{value: cloneValue(r.value)}
	if r.dot != nil {
		d := *r.dot
		out.dot = &d
	}
	return out
}

func (r *LWWRegister[T]) Equal(other *LWWRegister[T]) bool {
	if other == nil {
		return false
	}
	if (r.dot == nil) != (other.dot == nil) {
		return false
	}
	if r.dot == nil {
		return true
	}
	return *r.dot == *other.dot && reflect.DeepEqual(r.value, other.value)
}

// cloneValue 深拷贝引用类型的值。无法编码的值退回赋值复制。
func cloneValue[T any](v T) T {
	switch reflect.TypeFor[T]().Kind() {
	case reflect.Slice, reflect.Map, reflect.Pointer:
	default:
		return v
	}
	data, err := msgpack.Marshal(&v)
	if err != nil {
		return v
	}
	var out T
	if err := msgpack.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

type lwwState[T any] struct {
	Value T           `msgpack:"v"`
	Dot   *causal.Dot `msgpack:"d"`
}

func (r *LWWRegister[T]) Bytes() ([]byte, error) {
	return msgpack.Marshal(&lwwState[T]{Value: r.value, Dot: r.dot})
}

func FromBytesLWW[T any](data []byte) (*LWWRegister[T], error) {
	var state lwwState[T]
	if err := msgpack.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: lww: %v", ErrInvalidData, err)
	}
	return &LWWRegister[T]{value: state.Value, dot: state.Dot}, nil
}
