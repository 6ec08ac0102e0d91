package crdt

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/johvnik/CmRDTs/pkg/causal"
	"github.com/stretchr/testify/assert"
)

const (
	lawSeeds = 64
	lawSteps = 40
)

// lattice 是合并律测试需要的最小接口。
type lattice[S any] interface {
	Clone() S
	Equal(other S) bool
	Merge(other S)
}

// checkLaws 检查交换律、结合律和幂等性。
func checkLaws[S lattice[S]](t *testing.T, a, b, c S) {
	t.Helper()

	ab := a.Clone()
	ab.Merge(b)
	ba := b.Clone()
	ba.Merge(a)
	assert.True(t, ab.Equal(ba), "交换律失败")

	abc := a.Clone()
	abc.Merge(b)
	abc.Merge(c)
	bc := b.Clone()
	bc.Merge(c)
	aBC := a.Clone()
	aBC.Merge(bc)
	assert.True(t, abc.Equal(aBC), "结合律失败")

	aa := a.Clone()
	aa.Merge(a)
	assert.True(t, aa.Equal(a), "幂等性失败")

	// 吸收：已包含的状态再次合并不变
	again := ab.Clone()
	again.Merge(b)
	assert.True(t, again.Equal(ab), "重复合并应是空操作")
}

// genStates 在三个模拟副本上随机施加操作，并穿插状态合并。
func genStates[S lattice[S]](rng *rand.Rand, newState func() S, step func(rng *rand.Rand, s S, sim *actorSim)) []S {
	sims := []*actorSim{newActorSim(1), newActorSim(2), newActorSim(3)}
	states := []S{newState(), newState(), newState()}
	for i := 0; i < lawSteps; i++ {
		k := rng.IntN(len(states))
		if rng.IntN(5) == 0 {
			j := rng.IntN(len(states))
			states[k].Merge(states[j])
			sims[k].observe(sims[j])
			continue
		}
		step(rng, states[k], sims[k])
	}
	return states
}

func TestLaws_GCounter(t *testing.T) {
	for seed := uint64(0); seed < lawSeeds; seed++ {
		rng := rand.New(rand.NewPCG(seed, 1))
		s := genStates(rng, NewGCounter, func(rng *rand.Rand, c *GCounter, sim *actorSim) {
			c.Apply(GCounterInc(rng.Uint64N(100)), sim.next())
		})
		t.Run(fmt.Sprint(seed), func(t *testing.T) { checkLaws(t, s[0], s[1], s[2]) })
	}
}

func TestLaws_PNCounter(t *testing.T) {
	for seed := uint64(0); seed < lawSeeds; seed++ {
		rng := rand.New(rand.NewPCG(seed, 2))
		s := genStates(rng, NewPNCounter, func(rng *rand.Rand, c *PNCounter, sim *actorSim) {
			if rng.IntN(2) == 0 {
				c.Apply(PNInc(rng.Uint64N(100)), sim.next())
			} else {
				c.Apply(PNDec(rng.Uint64N(100)), sim.next())
			}
		})
		t.Run(fmt.Sprint(seed), func(t *testing.T) { checkLaws(t, s[0], s[1], s[2]) })
	}
}

func TestLaws_GSet(t *testing.T) {
	for seed := uint64(0); seed < lawSeeds; seed++ {
		rng := rand.New(rand.NewPCG(seed, 3))
		s := genStates(rng, NewGSet[int], func(rng *rand.Rand, g *GSet[int], sim *actorSim) {
			g.Apply(GSetAdd(rng.IntN(20)), sim.next())
		})
		t.Run(fmt.Sprint(seed), func(t *testing.T) { checkLaws(t, s[0], s[1], s[2]) })
	}
}

func TestLaws_ORSet(t *testing.T) {
	for seed := uint64(0); seed < lawSeeds; seed++ {
		rng := rand.New(rand.NewPCG(seed, 4))
		s := genStates(rng, NewORSet[int], func(rng *rand.Rand, o *ORSet[int], sim *actorSim) {
			v := rng.IntN(6)
			if rng.IntN(3) == 0 {
				o.Apply(ORSetRemove(v), sim.next())
			} else {
				o.Apply(ORSetAdd(v), sim.next())
			}
		})
		t.Run(fmt.Sprint(seed), func(t *testing.T) { checkLaws(t, s[0], s[1], s[2]) })
	}
}

func TestLaws_LWWRegister(t *testing.T) {
	for seed := uint64(0); seed < lawSeeds; seed++ {
		rng := rand.New(rand.NewPCG(seed, 5))
		s := genStates(rng, NewLWWRegister[int], func(rng *rand.Rand, r *LWWRegister[int], sim *actorSim) {
			r.Apply(LWWSet(rng.IntN(1000)), sim.next())
		})
		t.Run(fmt.Sprint(seed), func(t *testing.T) { checkLaws(t, s[0], s[1], s[2]) })
	}
}

type loggedOp[O any] struct {
	op  O
	ctx causal.AddCtx
}

// deliver 以随机顺序 (含重复) 把操作日志应用到 s。
func deliver[O any, S interface{ Apply(O, causal.AddCtx) }](rng *rand.Rand, s S, log []loggedOp[O]) {
	order := rng.Perm(len(log))
	for _, i := range order {
		s.Apply(log[i].op, log[i].ctx)
		if rng.IntN(4) == 0 {
			s.Apply(log[i].op, log[i].ctx)
		}
	}
}

func TestConvergence_OpsInAnyOrder(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 42))
	sims := []*actorSim{newActorSim(1), newActorSim(2), newActorSim(3)}

	var counterLog []loggedOp[OpPNCounter]
	var setLog []loggedOp[OpGSetAdd[string]]
	var regLog []loggedOp[OpLWWSet[int]]
	for i := 0; i < 200; i++ {
		sim := sims[rng.IntN(len(sims))]
		if rng.IntN(2) == 0 {
			counterLog = append(counterLog, loggedOp[OpPNCounter]{op: PNInc(rng.Uint64N(10)), ctx: sim.next()})
		} else {
			counterLog = append(counterLog, loggedOp[OpPNCounter]{op: PNDec(rng.Uint64N(10)), ctx: sim.next()})
		}
		setLog = append(setLog, loggedOp[OpGSetAdd[string]]{op: GSetAdd(fmt.Sprint(rng.IntN(30))), ctx: sim.next()})
		regLog = append(regLog, loggedOp[OpLWWSet[int]]{op: LWWSet(rng.IntN(1000)), ctx: sim.next()})
	}

	c1, c2 := NewPNCounter(), NewPNCounter()
	deliver(rng, c1, counterLog)
	deliver(rng, c2, counterLog)
	assert.Equal(t, c1.Read(), c2.Read())
	assert.True(t, c1.Equal(c2))

	g1, g2 := NewGSet[string](), NewGSet[string]()
	deliver(rng, g1, setLog)
	deliver(rng, g2, setLog)
	assert.Equal(t, g1.Read(), g2.Read())

	r1, r2 := NewLWWRegister[int](), NewLWWRegister[int]()
	deliver(rng, r1, regLog)
	deliver(rng, r2, regLog)
	assert.True(t, r1.Equal(r2))

	// 胜出者是 Dot 最大的写入
	best := regLog[0]
	for _, l := range regLog[1:] {
		if best.ctx.Dot.Less(l.ctx.Dot) {
			best = l
		}
	}
	assert.Equal(t, best.op.Value, r1.Read().Value)
}

func TestConvergence_StateMergeInAnyOrder(t *testing.T) {
	for seed := uint64(0); seed < 16; seed++ {
		rng := rand.New(rand.NewPCG(seed, 6))
		states := genStates(rng, NewORSet[int], func(rng *rand.Rand, o *ORSet[int], sim *actorSim) {
			v := rng.IntN(6)
			if rng.IntN(3) == 0 {
				o.Apply(ORSetRemove(v), sim.next())
			} else {
				o.Apply(ORSetAdd(v), sim.next())
			}
		})

		x := NewORSet[int]()
		for _, i := range rng.Perm(len(states)) {
			x.Merge(states[i])
		}
		y := NewORSet[int]()
		for _, i := range rng.Perm(len(states)) {
			y.Merge(states[i])
			y.Merge(states[i])
		}
		assert.Equal(t, x.Read(), y.Read())
		assert.True(t, x.Equal(y))
	}
}
