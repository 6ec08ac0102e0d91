package replica

import (
	"fmt"

	"github.com/johvnik/CmRDTs/pkg/causal"
	"github.com/vmihailenco/msgpack/v5"
)

// Envelope 是一个操作及其因果上下文，是外部传输层发送的单位。
type Envelope[O any] struct {
	Op  O             `msgpack:"op"`
	Ctx causal.AddCtx `msgpack:"ctx"`
}

// Seal 把 Apply 的返回值打包为 Envelope。
func Seal[O any](op O, ctx causal.AddCtx) Envelope[O] {
	return Envelope[O]{Op: op, Ctx: ctx}
}

func (e Envelope[O]) Bytes() ([]byte, error) {
	return msgpack.Marshal(&e)
}

func DecodeEnvelope[O any](data []byte) (Envelope[O], error) {
	var e Envelope[O]
	if err := msgpack.Unmarshal(data, &e); err != nil {
		return Envelope[O]{}, fmt.Errorf("decode envelope: %w", err)
	}
	if e.Ctx.Clock == nil {
		e.Ctx.Clock = causal.NewVClock()
	}
	return e, nil
}
