package causal

import (
	"fmt"
	"slices"

	"github.com/vmihailenco/msgpack/v5"
)

// VClock 是向量时钟：ActorID -> 从该 actor 观察到的最大计数器。
// 它只会增长，永远不会缩小。
type VClock map[ActorID]uint64

func NewVClock() VClock {
	return make(VClock)
}

// Get 返回 actor 的计数器，不存在时为 0。
func (vc VClock) Get(actor ActorID) uint64 {
	return vc[actor]
}

// Insert 将 dot 记入时钟。计数器只会被提高，不会被降低。
func (vc *VClock) Insert(d Dot) {
	if *vc == nil {
		*vc = make(VClock)
	}
	if d.Counter > (*vc)[d.Actor] {
		(*vc)[d.Actor] = d.Counter
	}
}

// Merge 逐个 actor 取最大值。
func (vc *VClock) Merge(other VClock) {
	if len(other) == 0 {
		return
	}
	if *vc == nil {
		*vc = make(VClock, len(other))
	}
	for actor, counter := range other {
		if counter > (*vc)[actor] {
			(*vc)[actor] = counter
		}
	}
}

// MaxCounter 返回所有 actor 中最大的计数器，空时钟返回 0。
func (vc VClock) MaxCounter() uint64 {
	var m uint64
	for _, counter := range vc {
		if counter > m {
			m = counter
		}
	}
	return m
}

// Contains 报告时钟是否已经观察到 dot。
func (vc VClock) Contains(d Dot) bool {
	return vc[d.Actor] >= d.Counter
}

// Descends 报告 vc 是否 >= other (逐个 actor)。
func (vc VClock) Descends(other VClock) bool {
	for actor, otherCtr := range other {
		if vc[actor] < otherCtr {
			return false
		}
	}
	return true
}

// Concurrent 报告两个时钟互不包含。
func (vc VClock) Concurrent(other VClock) bool {
	return !vc.Descends(other) && !other.Descends(vc)
}

// Equal 忽略值为 0 的条目比较两个时钟。
func (vc VClock) Equal(other VClock) bool {
	return vc.Descends(other) && other.Descends(vc)
}

func (vc VClock) Clone() VClock {
	c := make(VClock, len(vc))
	for actor, counter := range vc {
		c[actor] = counter
	}
	return c
}

// Actors 按升序返回时钟中的 actor。
func (vc VClock) Actors() []ActorID {
	actors := make([]ActorID, 0, len(vc))
	for actor := range vc {
		actors = append(actors, actor)
	}
	slices.Sort(actors)
	return actors
}

func (vc VClock) String() string {
	s := "{"
	for i, actor := range vc.Actors() {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%d:%d", actor, vc[actor])
	}
	return s + "}"
}

// EncodeMsgpack 按 actor 升序把时钟编码为 [actor, counter] 对的数组，
// 同一时钟总是得到相同的字节。
func (vc VClock) EncodeMsgpack(enc *msgpack.Encoder) error {
	actors := vc.Actors()
	if err := enc.EncodeArrayLen(len(actors)); err != nil {
		return err
	}
	for _, actor := range actors {
		if err := enc.EncodeArrayLen(2); err != nil {
			return err
		}
		if err := enc.EncodeUint(uint64(actor)); err != nil {
			return err
		}
		if err := enc.EncodeUint(vc[actor]); err != nil {
			return err
		}
	}
	return nil
}

func (vc *VClock) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	out := make(VClock, max(n, 0))
	for i := 0; i < n; i++ {
		pairLen, err := dec.DecodeArrayLen()
		if err != nil {
			return err
		}
		if pairLen != 2 {
			return fmt.Errorf("vclock entry: expected 2 fields, got %d", pairLen)
		}
		actor, err := dec.DecodeUint64()
		if err != nil {
			return err
		}
		counter, err := dec.DecodeUint64()
		if err != nil {
			return err
		}
		out.Insert(Dot{Actor: ActorID(actor), Counter: counter})
	}
	*vc = out
	return nil
}

// Bytes 将时钟序列化为 msgpack。
func (vc VClock) Bytes() ([]byte, error) {
	return msgpack.Marshal(vc)
}

func FromBytesVClock(data []byte) (VClock, error) {
	var vc VClock
	if err := msgpack.Unmarshal(data, &vc); err != nil {
		return nil, fmt.Errorf("decode vclock: %w", err)
	}
	if vc == nil {
		vc = NewVClock()
	}
	return vc, nil
}
