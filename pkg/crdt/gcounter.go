package crdt

import (
	"fmt"
	"math"
	"math/bits"
	"slices"

	"github.com/johvnik/CmRDTs/pkg/causal"
	"github.com/vmihailenco/msgpack/v5"
)

// GCounter 实现只增计数器 (操作日志形式)。
// 每次增量按产生它的 Dot 记录一次，合并即按键并集。
type GCounter struct {
	entries map[causal.Dot]uint64
}

// NewGCounter 创建一个新的 GCounter。
func NewGCounter() *GCounter {
	return &GCounter{entries: make(map[causal.Dot]uint64)}
}

// OpGCounterInc 增加计数器。
type OpGCounterInc struct {
	Val uint64 `msgpack:"v"`
}

func GCounterInc(n uint64) OpGCounterInc {
	return OpGCounterInc{Val: n}
}

func (c *GCounter) Type() Type {
	return TypeGCounter
}

// Apply 记录 ctx.Dot -> op.Val。Dot 已存在时不做任何事。
func (c *GCounter) Apply(op OpGCounterInc, ctx causal.AddCtx) {
	c.init()
	if _, ok := c.entries[ctx.Dot]; ok {
		return
	}
	c.entries[ctx.Dot] = op.Val
}

func (c *GCounter) Merge(other *GCounter) {
	if other == nil {
		return
	}
	c.init()
	for d, amount := range other.entries {
		if _, ok := c.entries[d]; !ok {
			c.entries[d] = amount
		}
	}
}

func (c *GCounter) init() {
	if c.entries == nil {
		c.entries = make(map[causal.Dot]uint64)
	}
}

// Read 返回所有增量之和，溢出时饱和到 math.MaxUint64。
func (c *GCounter) Read() uint64 {
	if c == nil {
		return 0
	}
	var total, carry uint64
	for _, amount := range c.entries {
		if total, carry = bits.Add64(total, amount, 0); carry != 0 {
			return math.MaxUint64
		}
	}
	return total
}

// Len 返回已记录的增量个数。
func (c *GCounter) Len() int {
	return len(c.entries)
}

func (c *GCounter) Clone() *GCounter {
	out := &GCounter{entries: make(map[causal.Dot]uint64, len(c.entries))}
	for d, amount := range c.entries {
		out.entries[d] = amount
	}
	return out
}

func (c *GCounter) Equal(other *GCounter) bool {
	if other == nil || len(c.entries) != len(other.entries) {
		return false
	}
	for d, amount := range c.entries {
		if o, ok := other.entries[d]; !ok || o != amount {
			return false
		}
	}
	return true
}

type gcounterEntry struct {
	Dot causal.Dot `msgpack:"d"`
	Val uint64     `msgpack:"v"`
}

// sortedEntries 按 Dot 顺序返回条目，保证序列化结果确定。
func (c *GCounter) sortedEntries() []gcounterEntry {
	out := make([]gcounterEntry, 0, len(c.entries))
	for d, amount := range c.entries {
		out = append(out, gcounterEntry{Dot: d, Val: amount})
	}
	slices.SortFunc(out, func(a, b gcounterEntry) int {
		return causal.Compare(a.Dot, b.Dot)
	})
	return out
}

func (c *GCounter) Bytes() ([]byte, error) {
	return msgpack.Marshal(c.sortedEntries())
}

func FromBytesGCounter(data []byte) (*GCounter, error) {
	var entries []gcounterEntry
	if err := msgpack.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: gcounter: %v", ErrInvalidData, err)
	}
	c := NewGCounter()
	for _, e := range entries {
		c.entries[e.Dot] = e.Val
	}
	return c, nil
}
