package replica

import (
	"cmp"

	"github.com/johvnik/CmRDTs/pkg/causal"
	"github.com/johvnik/CmRDTs/pkg/crdt"
)

type (
	GCounter             = Replica[*crdt.GCounter, crdt.OpGCounterInc, uint64]
	PNCounter            = Replica[*crdt.PNCounter, crdt.OpPNCounter, int64]
	GSet[T cmp.Ordered]  = Replica[*crdt.GSet[T], crdt.OpGSetAdd[T], []T]
	ORSet[T cmp.Ordered] = Replica[*crdt.ORSet[T], crdt.OpORSet[T], []T]
	LWWRegister[T any]   = Replica[*crdt.LWWRegister[T], crdt.OpLWWSet[T], crdt.LWWValue[T]]
)

func NewGCounter(actor causal.ActorID) *GCounter {
	return New[*crdt.GCounter, crdt.OpGCounterInc, uint64](actor, crdt.NewGCounter())
}

func NewPNCounter(actor causal.ActorID) *PNCounter {
	return New[*crdt.PNCounter, crdt.OpPNCounter, int64](actor, crdt.NewPNCounter())
}

func NewGSet[T cmp.Ordered](actor causal.ActorID) *GSet[T] {
	return New[*crdt.GSet[T], crdt.OpGSetAdd[T], []T](actor, crdt.NewGSet[T]())
}

func NewORSet[T cmp.Ordered](actor causal.ActorID) *ORSet[T] {
	return New[*crdt.ORSet[T], crdt.OpORSet[T], []T](actor, crdt.NewORSet[T]())
}

func NewLWWRegister[T any](actor causal.ActorID) *LWWRegister[T] {
	return New[*crdt.LWWRegister[T], crdt.OpLWWSet[T], crdt.LWWValue[T]](actor, crdt.NewLWWRegister[T]())
}

func RestoreGCounter(snap Snapshot) (*GCounter, error) {
	return Restore[*crdt.GCounter, crdt.OpGCounterInc, uint64](snap, crdt.FromBytesGCounter)
}

func RestorePNCounter(snap Snapshot) (*PNCounter, error) {
	return Restore[*crdt.PNCounter, crdt.OpPNCounter, int64](snap, crdt.FromBytesPNCounter)
}

func RestoreGSet[T cmp.Ordered](snap Snapshot) (*GSet[T], error) {
	return Restore[*crdt.GSet[T], crdt.OpGSetAdd[T], []T](snap, crdt.FromBytesGSet[T])
}

func RestoreORSet[T cmp.Ordered](snap Snapshot) (*ORSet[T], error) {
	return Restore[*crdt.ORSet[T], crdt.OpORSet[T], []T](snap, crdt.FromBytesORSet[T])
}

func RestoreLWWRegister[T any](snap Snapshot) (*LWWRegister[T], error) {
	return Restore[*crdt.LWWRegister[T], crdt.OpLWWSet[T], crdt.LWWValue[T]](snap, crdt.FromBytesLWW[T])
}

// GSetView 返回副本的只读集合视图，随副本的更新和合并而变化。
func GSetView[T cmp.Ordered](r *GSet[T]) crdt.ReadOnlySet[T] {
	return crdt.ReadOnlyGSet(r.State())
}

// ORSetView 返回副本的只读集合视图，随副本的更新和合并而变化。
func ORSetView[T cmp.Ordered](r *ORSet[T]) crdt.ReadOnlySet[T] {
	return crdt.ReadOnlyORSet(r.State())
}
