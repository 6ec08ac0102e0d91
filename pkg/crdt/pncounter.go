package crdt

import (
	"fmt"
	"math"

	"github.com/johvnik/CmRDTs/pkg/causal"
	"github.com/vmihailenco/msgpack/v5"
)

// PNCounter 实现正负计数器。
// 它由两个 GCounter 组合而成：一个记录增量，一个记录减量。
type PNCounter struct {
	Inc *GCounter
	Dec *GCounter
}

// NewPNCounter 创建一个新的 PNCounter。
func NewPNCounter() *PNCounter {
	return &PNCounter{
		Inc: NewGCounter(),
		Dec: NewGCounter(),
	}
}

// PNCounterOpKind 区分增加和减少。
type PNCounterOpKind uint8

const (
	PNCounterIncKind PNCounterOpKind = iota + 1
	PNCounterDecKind
)

// OpPNCounter 增加或减少计数器。
type OpPNCounter struct {
	Kind PNCounterOpKind `msgpack:"k"`
	Val  uint64          `msgpack:"v"`
}

func PNInc(n uint64) OpPNCounter {
	return OpPNCounter{Kind: PNCounterIncKind, Val: n}
}

func PNDec(n uint64) OpPNCounter {
	return OpPNCounter{Kind: PNCounterDecKind, Val: n}
}

func (c *PNCounter) Type() Type {
	return TypePNCounter
}

func (c *PNCounter) init() {
	if c.Inc == nil {
		c.Inc = NewGCounter()
	}
	if c.Dec == nil {
		c.Dec = NewGCounter()
	}
}

// Apply 把增量和减量都作为 GCounter 的增加转发给对应的子计数器。
func (c *PNCounter) Apply(op OpPNCounter, ctx causal.AddCtx) {
	c.init()
	switch op.Kind {
	case PNCounterIncKind:
		c.Inc.Apply(GCounterInc(op.Val), ctx)
	case PNCounterDecKind:
		c.Dec.Apply(GCounterInc(op.Val), ctx)
	}
}

func (c *PNCounter) Merge(other *PNCounter) {
	if other == nil {
		return
	}
	c.init()
	c.Inc.Merge(other.Inc)
	c.Dec.Merge(other.Dec)
}

// Read 返回 增量 - 减量，可能为负。超出 int64 范围时饱和到边界值。
func (c *PNCounter) Read() int64 {
	inc, dec := c.Inc.Read(), c.Dec.Read()
	if inc >= dec {
		return int64(min(inc-dec, math.MaxInt64))
	}
	if d := dec - inc; d <= math.MaxInt64 {
		return -int64(d)
	}
	return math.MinInt64
}

func (c *PNCounter) Clone() *PNCounter {
	c.init()
	return &PNCounter{
		Inc: c.Inc.Clone(),
		Dec: c.Dec.Clone(),
	}
}

func (c *PNCounter) Equal(other *PNCounter) bool {
	if other == nil {
		return false
	}
	c.init()
	other.init()
	return c.Inc.Equal(other.Inc) && c.Dec.Equal(other.Dec)
}

type pncounterState struct {
	Inc []gcounterEntry `msgpack:"inc"`
	Dec []gcounterEntry `msgpack:"dec"`
}

func (c *PNCounter) Bytes() ([]byte, error) {
	c.init()
	return msgpack.Marshal(&pncounterState{
		Inc: c.Inc.sortedEntries(),
		Dec: c.Dec.sortedEntries(),
	})
}

func FromBytesPNCounter(data []byte) (*PNCounter, error) {
	var state pncounterState
	if err := msgpack.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: pncounter: %v", ErrInvalidData, err)
	}
	c := NewPNCounter()
	for _, e := range state.Inc {
		c.Inc.entries[e.Dot] = e.Val
	}
	for _, e := range state.Dec {
		c.Dec.entries[e.Dot] = e.Val
	}
	return c, nil
}
