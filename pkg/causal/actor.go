package causal

import (
	"encoding/binary"
	"strconv"

	"github.com/google/uuid"
)

// ActorID 标识一个副本 (replica)。
// 它在副本启动时创建一次，之后不可变；整数序即为全序。
type ActorID uint64

// NewActorID 基于随机 UUID 生成一个新的 ActorID。
// 取 UUID 的前 8 字节 (大端)；0 被保留，不会返回。
func NewActorID() ActorID {
	for {
		u := uuid.New()
		if id := ActorID(binary.BigEndian.Uint64(u[:8])); id != 0 {
			return id
		}
	}
}

func (a ActorID) String() string {
	return strconv.FormatUint(uint64(a), 10)
}
