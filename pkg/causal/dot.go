package causal

import "fmt"

// Dot 代表某个 actor 产生的一个因果事件。
// (Actor, Counter) 对全局唯一，永不复用。
type Dot struct {
	Actor   ActorID `msgpack:"a"`
	Counter uint64  `msgpack:"c"`
}

// Compare 比较两个 Dot。先比较计数器，计数器相同时用 actor 打破平局。
// 返回值:
//   - 如果 a > b: 返回 1
//   - 如果 a == b: 返回 0
//   - 如果 a < b: 返回 -1
func Compare(a, b Dot) int {
	if a.Counter > b.Counter {
		return 1
	}
	if a.Counter < b.Counter {
		return -1
	}
	if a.Actor > b.Actor {
		return 1
	}
	if a.Actor < b.Actor {
		return -1
	}
	return 0
}

// Less 报告 d 是否严格小于 other。
func (d Dot) Less(other Dot) bool {
	return Compare(d, other) < 0
}

func (d Dot) String() string {
	return fmt.Sprintf("%d:%d", d.Actor, d.Counter)
}
