// Package replica 把一个 CRDT 实例绑定到一个 actor。
//
// Replica 是唯一生成新 Dot 的组件，因此也是本地修改的唯一安全入口。
// 它不是并发安全的：多个 goroutine 同时修改同一个 Replica 时需要调用方加锁。
package replica

import (
	"github.com/johvnik/CmRDTs/pkg/causal"
	"github.com/johvnik/CmRDTs/pkg/crdt"
)

// Replica 是本地 actor 对一个 CRDT 的视图。
// 它独占 CRDT 状态和向量时钟。
type Replica[S crdt.State[S, O, V], O, V any] struct {
	actor     causal.ActorID
	opCounter uint64
	clock     causal.VClock
	state     S
}

// New 为给定 actor 和初始状态创建副本。
func New[S crdt.State[S, O, V], O, V any](actor causal.ActorID, initial S) *Replica[S, O, V] {
	return &Replica[S, O, V]{
		actor: actor,
		clock: causal.NewVClock(),
		state: initial,
	}
}

// nextDot 生成一个因果上最新的 Dot。
// 新计数器 = max(本地操作计数器, 时钟中的最大计数器) + 1，
// 所以它严格大于本副本发出过的和观察到的任何事件。
func (r *Replica[S, O, V]) nextDot() causal.Dot {
	r.opCounter = max(r.opCounter, r.clock.MaxCounter()) + 1
	return causal.Dot{Actor: r.actor, Counter: r.opCounter}
}

// Apply 在本地应用操作，返回操作及其上下文，供发送给其他副本。
func (r *Replica[S, O, V]) Apply(op O) (O, causal.AddCtx) {
	d := r.nextDot()
	r.clock.Insert(d)

	ctx := causal.AddCtx{Dot: d, Clock: r.clock.Clone()}
	r.state.Apply(op, ctx)
	return op, ctx
}

// ApplyRemote 使用发送方的上下文应用远程操作，并合并其时钟。
// 不检查因果前提；缺失的前序事件不会被回填。
func (r *Replica[S, O, V]) ApplyRemote(op O, ctx causal.AddCtx) {
	r.state.Apply(op, ctx)
	r.clock.Merge(ctx.Clock)
}

// ApplyEnvelope 等价于 ApplyRemote(env.Op, env.Ctx)。
func (r *Replica[S, O, V]) ApplyEnvelope(env Envelope[O]) {
	r.ApplyRemote(env.Op, env.Ctx)
}

func (r *Replica[S, O, V]) Read() V {
	return r.state.Read()
}

// Merge 并入远程副本的完整状态和时钟 (基于状态的反熵)。
// 输入只被读取。
func (r *Replica[S, O, V]) Merge(remoteState S, remoteClock causal.VClock) {
	r.state.Merge(remoteState)
	r.clock.Merge(remoteClock)
}

// MergeFrom 并入另一个副本的状态和时钟。
func (r *Replica[S, O, V]) MergeFrom(other *Replica[S, O, V]) {
	r.Merge(other.state, other.clock)
}

// State 返回底层 CRDT。调用方不得直接修改它。
func (r *Replica[S, O, V]) State() S {
	return r.state
}

// Clock 返回副本的向量时钟。调用方不得直接修改它。
func (r *Replica[S, O, V]) Clock() causal.VClock {
	return r.clock
}

func (r *Replica[S, O, V]) Actor() causal.ActorID {
	return r.actor
}

// OpCounter 返回本副本最近一次生成的 Dot 计数器。
func (r *Replica[S, O, V]) OpCounter() uint64 {
	return r.opCounter
}

// ReadCtx 返回当前因果知识的快照。
func (r *Replica[S, O, V]) ReadCtx() causal.ReadCtx {
	return causal.ReadCtx{Clock: r.clock.Clone()}
}

// Clone 深拷贝副本，包括状态和时钟。
func (r *Replica[S, O, V]) Clone() *Replica[S, O, V] {
	return &Replica[S, O, V]{
		actor:     r.actor,
		opCounter: r.opCounter,
		clock:     r.clock.Clone(),
		state:     r.state.Clone(),
	}
}
