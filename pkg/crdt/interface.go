package crdt

import (
	"errors"

	"github.com/johvnik/CmRDTs/pkg/causal"
)

// Type 标识 CRDT 的类型。
type Type byte

const (
	TypeGCounter  Type = 0x01
	TypePNCounter Type = 0x02
	TypeGSet      Type = 0x03
	TypeORSet     Type = 0x04
	TypeLWW       Type = 0x05
)

func (t Type) String() string {
	switch t {
	case TypeGCounter:
		return "gcounter"
	case TypePNCounter:
		return "pncounter"
	case TypeGSet:
		return "gset"
	case TypeORSet:
		return "orset"
	case TypeLWW:
		return "lww"
	default:
		return "unknown"
	}
}

var (
	ErrInvalidData = errors.New("invalid CRDT data")
)

// CmRDT 是所有 CRDT 变体共享的能力契约。
// S 是实现类型本身，O 是操作类型，V 是面向用户的值类型。
//
// 三个方法都不会失败：过期或无效的输入按各变体的规则被静默吸收。
type CmRDT[S, O, V any] interface {
	// Apply 根据操作及其因果上下文修改状态。
	// ctx 可以来自任意副本，而不仅是本副本。
	Apply(op O, ctx causal.AddCtx)

	// Merge 将另一个副本的完整状态并入此状态。
	// 必须满足交换律、结合律和幂等性。other 只读，不会被别名引用。
	Merge(other S)

	// Read 将当前状态投影为用户可见的值，没有副作用。
	Read() V
}

// State 是可以被 Replica 持有、克隆和序列化的 CRDT。
type State[S, O, V any] interface {
	CmRDT[S, O, V]

	// Type 返回 CRDT 的类型。它不读取接收者，对 nil 指针也可调用。
	Type() Type

	// Clone 返回与接收者不共享任何可变容器的深拷贝。
	Clone() S

	// Bytes 将 CRDT 状态序列化为字节。
	Bytes() ([]byte, error)
}

var (
	_ State[*GCounter, OpGCounterInc, uint64]                         = (*GCounter)(nil)
	_ State[*PNCounter, OpPNCounter, int64]                           = (*PNCounter)(nil)
	_ State[*GSet[int], OpGSetAdd[int], []int]                        = (*GSet[int])(nil)
	_ State[*ORSet[string], OpORSet[string], []string]                = (*ORSet[string])(nil)
	_ State[*LWWRegister[string], OpLWWSet[string], LWWValue[string]] = (*LWWRegister[string])(nil)
)
