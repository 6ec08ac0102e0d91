package replica

import (
	"testing"

	"github.com/johvnik/CmRDTs/pkg/causal"
	"github.com/johvnik/CmRDTs/pkg/crdt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope_RoundTrip(t *testing.T) {
	src := NewORSet[string](3)
	src.Apply(crdt.ORSetAdd("a"))
	env := Seal[crdt.OpORSet[string]](src.Apply(crdt.ORSetRemove("a")))

	data, err := env.Bytes()
	require.NoError(t, err)

	decoded, err := DecodeEnvelope[crdt.OpORSet[string]](data)
	require.NoError(t, err)
	assert.Equal(t, env, decoded)

	dst := NewORSet[string](4)
	dst.ApplyRemote(crdt.ORSetAdd("a"), causal.NewAddCtx(causal.Dot{Actor: 3, Counter: 1}, nil))
	dst.ApplyEnvelope(decoded)
	assert.Empty(t, dst.Read())

	_, err = DecodeEnvelope[crdt.OpORSet[string]]([]byte{0xc1})
	assert.Error(t, err)
}

func TestSnapshot_RestoreKeepsMintingFreshDots(t *testing.T) {
	r := NewPNCounter(5)
	r.Apply(crdt.PNInc(10))
	r.Apply(crdt.PNDec(4))

	snap, err := r.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, crdt.TypePNCounter, snap.Type)

	data, err := snap.Bytes()
	require.NoError(t, err)
	decoded, err := FromBytesSnapshot(data)
	require.NoError(t, err)

	restored, err := RestorePNCounter(decoded)
	require.NoError(t, err)
	assert.Equal(t, int64(6), restored.Read())
	assert.Equal(t, causal.ActorID(5), restored.Actor())
	assert.True(t, restored.State().Equal(r.State()))

	_, ctx := restored.Apply(crdt.PNInc(1))
	assert.Equal(t, uint64(3), ctx.Dot.Counter, "恢复后不能复用 Dot")
}

func TestSnapshot_RestoreEveryVariant(t *testing.T) {
	g := NewGCounter(1)
	g.Apply(crdt.GCounterInc(2))
	gs := NewGSet[int](1)
	gs.Apply(crdt.GSetAdd(9))
	or := NewORSet[string](1)
	or.Apply(crdt.ORSetAdd("k"))
	lww := NewLWWRegister[string](1)
	lww.Apply(crdt.LWWSet("v"))

	snap, err := g.Snapshot()
	require.NoError(t, err)
	rg, err := RestoreGCounter(snap)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), rg.Read())

	snap, err = gs.Snapshot()
	require.NoError(t, err)
	rgs, err := RestoreGSet[int](snap)
	require.NoError(t, err)
	assert.Equal(t, []int{9}, rgs.Read())

	snap, err = or.Snapshot()
	require.NoError(t, err)
	ror, err := RestoreORSet[string](snap)
	require.NoError(t, err)
	assert.Equal(t, []string{"k"}, ror.Read())

	snap, err = lww.Snapshot()
	require.NoError(t, err)
	rlww, err := RestoreLWWRegister[string](snap)
	require.NoError(t, err)
	assert.Equal(t, crdt.LWWValue[string]{Value: "v", Set: true}, rlww.Read())
}

func TestSnapshot_TypeMismatch(t *testing.T) {
	r := NewGCounter(1)
	r.Apply(crdt.GCounterInc(1))
	snap, err := r.Snapshot()
	require.NoError(t, err)

	_, err = RestorePNCounter(snap)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestSnapshot_RestoreRepairsClock(t *testing.T) {
	r := NewGCounter(1)
	r.Apply(crdt.GCounterInc(1))
	r.Apply(crdt.GCounterInc(1))
	snap, err := r.Snapshot()
	require.NoError(t, err)

	// 时钟丢失也不能复用 Dot
	snap.Clock = causal.NewVClock()
	restored, err := RestoreGCounter(snap)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), restored.Clock().Get(1))

	_, ctx := restored.Apply(crdt.GCounterInc(1))
	assert.Equal(t, uint64(3), ctx.Dot.Counter)
	assert.Equal(t, uint64(3), restored.Read())
}
