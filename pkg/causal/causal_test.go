package causal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDot_Compare(t *testing.T) {
	a := Dot{Actor: 1, Counter: 5}
	b := Dot{Actor: 2, Counter: 5}
	c := Dot{Actor: 1, Counter: 6}

	assert.Equal(t, -1, Compare(a, b), "计数器相同时按 actor 排序")
	assert.Equal(t, 1, Compare(b, a))
	assert.Equal(t, 1, Compare(c, b), "计数器优先于 actor")
	assert.Equal(t, 0, Compare(a, a))
	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
	assert.Equal(t, "1:5", a.String())
}

func TestVClock_InsertNeverLowers(t *testing.T) {
	var vc VClock
	vc.Insert(Dot{Actor: 1, Counter: 3})
	vc.Insert(Dot{Actor: 1, Counter: 2})
	vc.Insert(Dot{Actor: 2, Counter: 1})

	assert.Equal(t, uint64(3), vc.Get(1))
	assert.Equal(t, uint64(1), vc.Get(2))
	assert.Equal(t, uint64(0), vc.Get(9))
}

func TestVClock_MaxCounter(t *testing.T) {
	assert.Equal(t, uint64(0), NewVClock().MaxCounter())

	vc := VClock{1: 4, 2: 10, 3: 7}
	assert.Equal(t, uint64(10), vc.MaxCounter())
}

func TestVClock_Contains(t *testing.T) {
	vc := VClock{1: 4}

	assert.True(t, vc.Contains(Dot{Actor: 1, Counter: 1}))
	assert.True(t, vc.Contains(Dot{Actor: 1, Counter: 4}))
	assert.False(t, vc.Contains(Dot{Actor: 1, Counter: 5}))
	assert.False(t, vc.Contains(Dot{Actor: 2, Counter: 1}))
}

func TestVClock_Merge(t *testing.T) {
	a := VClock{1: 2, 2: 1}
	b := VClock{1: 1, 2: 3, 3: 4}

	ab := a.Clone()
	ab.Merge(b)
	ba := b.Clone()
	ba.Merge(a)

	assert.Equal(t, VClock{1: 2, 2: 3, 3: 4}, ab)
	assert.True(t, ab.Equal(ba))

	// 合并不会修改输入
	assert.Equal(t, VClock{1: 2, 2: 1}, a)

	var empty VClock
	empty.Merge(b)
	assert.Equal(t, b, empty)
}

func TestVClock_DescendsAndConcurrent(t *testing.T) {
	a := VClock{1: 2, 2: 1}
	b := VClock{1: 2, 2: 2}
	c := VClock{1: 3}

	assert.True(t, b.Descends(a))
	assert.False(t, a.Descends(b))
	assert.True(t, a.Concurrent(c))
	assert.False(t, a.Concurrent(b))
	assert.True(t, VClock{1: 1, 2: 0}.Equal(VClock{1: 1}))
}

func TestVClock_Actors(t *testing.T) {
	vc := VClock{3: 1, 1: 1, 2: 1}
	assert.Equal(t, []ActorID{1, 2, 3}, vc.Actors())
	assert.Equal(t, "{1:1, 2:1, 3:1}", vc.String())
}

func TestVClock_Bytes(t *testing.T) {
	vc := VClock{1: 10, 42: 7}

	data, err := vc.Bytes()
	require.NoError(t, err)

	decoded, err := FromBytesVClock(data)
	require.NoError(t, err)
	assert.Equal(t, vc, decoded)

	again, err := decoded.Bytes()
	require.NoError(t, err)
	assert.Equal(t, data, again, "编码应是确定性的")
}

func TestAddCtx_NewAndBytes(t *testing.T) {
	clock := VClock{2: 5}
	d := Dot{Actor: 1, Counter: 6}

	ctx := NewAddCtx(d, clock)
	assert.True(t, ctx.Clock.Contains(d), "上下文时钟必须包含自身的 dot")
	assert.Equal(t, VClock{2: 5}, clock, "传入的时钟不应被修改")

	data, err := ctx.Bytes()
	require.NoError(t, err)
	decoded, err := FromBytesAddCtx(data)
	require.NoError(t, err)
	assert.Equal(t, ctx, decoded)
}

func TestAddCtx_CloneIsIndependent(t *testing.T) {
	ctx := NewAddCtx(Dot{Actor: 1, Counter: 1}, nil)
	c := ctx.Clone()
	c.Clock.Insert(Dot{Actor: 2, Counter: 9})

	assert.False(t, ctx.Clock.Contains(Dot{Actor: 2, Counter: 9}))
}

func TestFromBytes_Invalid(t *testing.T) {
	_, err := FromBytesVClock([]byte{0xc1})
	assert.Error(t, err)
	_, err = FromBytesAddCtx([]byte{0xc1})
	assert.Error(t, err)
}

func TestNewActorID(t *testing.T) {
	seen := make(map[ActorID]struct{})
	for i := 0; i < 100; i++ {
		id := NewActorID()
		require.NotZero(t, id)
		_, dup := seen[id]
		require.False(t, dup, "ActorID 重复: %s", id)
		seen[id] = struct{}{}
	}
}
