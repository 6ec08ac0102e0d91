package replica

import (
	"errors"
	"fmt"

	"github.com/johvnik/CmRDTs/pkg/causal"
	"github.com/johvnik/CmRDTs/pkg/crdt"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	ErrTypeMismatch = errors.New("snapshot CRDT type mismatch")
)

// Snapshot 是副本的可序列化形式：actor、操作计数器、时钟和编码后的状态。
type Snapshot struct {
	Type      crdt.Type      `msgpack:"type"`
	Actor     causal.ActorID `msgpack:"actor"`
	OpCounter uint64         `msgpack:"op_counter"`
	Clock     causal.VClock  `msgpack:"clock"`
	State     []byte         `msgpack:"state"`
}

// Snapshot 捕获副本当前的完整状态。
func (r *Replica[S, O, V]) Snapshot() (Snapshot, error) {
	state, err := r.state.Bytes()
	if err != nil {
		return Snapshot{}, fmt.Errorf("encode %s state: %w", r.state.Type(), err)
	}
	return Snapshot{
		Type:      r.state.Type(),
		Actor:     r.actor,
		OpCounter: r.opCounter,
		Clock:     r.clock.Clone(),
		State:     state,
	}, nil
}

// Restore 从快照重建副本。
// 时钟会补记本副本最后生成的 Dot，保证重启后不会复用 Dot。
func Restore[S crdt.State[S, O, V], O, V any](snap Snapshot, decode func([]byte) (S, error)) (*Replica[S, O, V], error) {
	// 各变体的 Type 不读取接收者，零值即可
	var zero S
	if zero.Type() != snap.Type {
		return nil, fmt.Errorf("%w: want %s, got %s", ErrTypeMismatch, zero.Type(), snap.Type)
	}
	state, err := decode(snap.State)
	if err != nil {
		return nil, err
	}

	clock := snap.Clock.Clone()
	if snap.OpCounter > 0 {
		clock.Insert(causal.Dot{Actor: snap.Actor, Counter: snap.OpCounter})
	}
	return &Replica[S, O, V]{
		actor:     snap.Actor,
		opCounter: snap.OpCounter,
		clock:     clock,
		state:     state,
	}, nil
}

func (s Snapshot) Bytes() ([]byte, error) {
	return msgpack.Marshal(&s)
}

func FromBytesSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Clock == nil {
		s.Clock = causal.NewVClock()
	}
	return s, nil
}
