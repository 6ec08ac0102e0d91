package crdt

import (
	"github.com/johvnik/CmRDTs/pkg/causal"
)

// actorSim 模拟一个副本的 Dot 生成，用于在不依赖 replica 包的情况下构造上下文。
type actorSim struct {
	actor   causal.ActorID
	counter uint64
	clock   causal.VClock
}

func newActorSim(actor causal.ActorID) *actorSim {
	return &actorSim{actor: actor, clock: causal.NewVClock()}
}

// next 生成一个新的上下文。
func (a *actorSim) next() causal.AddCtx {
	a.counter = max(a.counter, a.clock.MaxCounter()) + 1
	d := causal.Dot{Actor: a.actor, Counter: a.counter}
	a.clock.Insert(d)
	return causal.AddCtx{Dot: d, Clock: a.clock.Clone()}
}

// observe 让模拟副本学习另一方的因果历史。
func (a *actorSim) observe(other *actorSim) {
	a.clock.Merge(other.clock)
}

func dotCtx(actor causal.ActorID, counter uint64) causal.AddCtx {
	return causal.NewAddCtx(causal.Dot{Actor: actor, Counter: counter}, nil)
}
