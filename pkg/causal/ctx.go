package causal

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// AddCtx 是每个本地生成的操作携带的因果信封。
// Clock 在使用前必须已经包含 Dot。
type AddCtx struct {
	Dot   Dot    `msgpack:"dot"`
	Clock VClock `msgpack:"clock"`
}

// NewAddCtx 创建一个上下文，并确保 clock 已记录 dot。
// 传入的 clock 会被复制。
func NewAddCtx(d Dot, clock VClock) AddCtx {
	c := clock.Clone()
	c.Insert(d)
	return AddCtx{Dot: d, Clock: c}
}

func (c AddCtx) Clone() AddCtx {
	return AddCtx{Dot: c.Dot, Clock: c.Clock.Clone()}
}

func (c AddCtx) Bytes() ([]byte, error) {
	return msgpack.Marshal(&c)
}

func FromBytesAddCtx(data []byte) (AddCtx, error) {
	var c AddCtx
	if err := msgpack.Unmarshal(data, &c); err != nil {
		return AddCtx{}, fmt.Errorf("decode add ctx: %w", err)
	}
	if c.Clock == nil {
		c.Clock = NewVClock()
	}
	return c, nil
}

// ReadCtx 是读取时的因果上下文，只包含时钟。
type ReadCtx struct {
	Clock VClock `msgpack:"clock"`
}
