package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/johvnik/CmRDTs/pkg/causal"
	"github.com/johvnik/CmRDTs/pkg/crdt"
	"github.com/johvnik/CmRDTs/pkg/replica"
	"github.com/johvnik/CmRDTs/pkg/snapshot"
	"github.com/johvnik/CmRDTs/pkg/store"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dataRoot := flag.String("data", "", "可选：快照数据目录，为空时使用内存存储")
	debug := flag.Bool("debug", false, "开启调试日志")
	flag.Parse()

	logger := zap.NewNop()
	if *debug {
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		logger = l
	}
	defer logger.Sync()

	var st store.Store
	if *dataRoot == "" {
		s, err := store.NewBadgerStore("", store.WithInMemory(), store.WithLogger(logger))
		if err != nil {
			return err
		}
		defer s.Close()
		st = s
	} else {
		ms := store.NewMultiStore(*dataRoot, store.WithLogger(logger))
		defer ms.CloseAll()
		s, err := ms.Get("demo")
		if err != nil {
			return err
		}
		st = s
	}

	snaps := snapshot.New(st, snapshot.WithLogger(logger.Named("snapshot")))

	fmt.Println("CmRDT 演示")
	if *dataRoot != "" {
		fmt.Printf("数据目录:  %s\n", *dataRoot)
	}

	counters()
	sets()
	register()

	return persist(snaps)
}

func counters() {
	fmt.Println("\n== 计数器 ==")

	a := replica.NewPNCounter(1)
	b := replica.NewPNCounter(2)

	incA, ctxA := a.Apply(crdt.PNInc(5))
	decB, ctxB := b.Apply(crdt.PNDec(2))
	fmt.Printf("A 本地: %d, B 本地: %d\n", a.Read(), b.Read())

	// 交换操作，重复投递一次
	b.ApplyRemote(incA, ctxA)
	a.ApplyRemote(decB, ctxB)
	a.ApplyRemote(decB, ctxB)
	fmt.Printf("交换后 A: %d, B: %d\n", a.Read(), b.Read())
	fmt.Printf("A 时钟: %s\n", a.Clock())

	g1 := replica.NewGCounter(1)
	g2 := replica.NewGCounter(2)
	g1.Apply(crdt.GCounterInc(3))
	g2.Apply(crdt.GCounterInc(4))
	g1.MergeFrom(g2)
	fmt.Printf("GCounter 合并后: %d\n", g1.Read())
}

func sets() {
	fmt.Println("\n== 集合 ==")

	a := replica.NewORSet[string](1)
	b := replica.NewORSet[string](2)

	a.Apply(crdt.ORSetAdd("x"))
	b.MergeFrom(a)

	// A 删除 x 的同时 B 再次添加 x
	rmOp, rmCtx := a.Apply(crdt.ORSetRemove("x"))
	addOp, addCtx := b.Apply(crdt.ORSetAdd("x"))
	a.ApplyRemote(addOp, addCtx)
	b.ApplyRemote(rmOp, rmCtx)
	fmt.Printf("并发添加/删除后 A: %v, B: %v\n", a.Read(), b.Read())
	fmt.Printf("A 视图包含 x: %t\n", replica.ORSetView(a).Contains("x"))

	gs1 := replica.NewGSet[int](1)
	gs2 := replica.NewGSet[int](2)
	gs1.Apply(crdt.GSetAdd(1))
	gs1.Apply(crdt.GSetAdd(1))
	gs2.Apply(crdt.GSetAdd(2))
	gs1.MergeFrom(gs2)
	view := replica.GSetView(gs1)
	fmt.Printf("GSet 合并后: %v, 包含 2: %t\n", view.Elements(), view.Contains(2))
}

func register() {
	fmt.Println("\n== 寄存器 ==")

	a := replica.NewLWWRegister[string](1)
	b := replica.NewLWWRegister[string](2)

	opA, ctxA := a.Apply(crdt.LWWSet("from-a"))
	opB, ctxB := b.Apply(crdt.LWWSet("from-b"))
	a.ApplyRemote(opB, ctxB)
	b.ApplyRemote(opA, ctxA)
	fmt.Printf("同计数器写入 %s 与 %s\n", ctxA.Dot, ctxB.Dot)
	fmt.Printf("A: %q, B: %q\n", a.Read().Value, b.Read().Value)
}

func persist(snaps *snapshot.Manager) error {
	fmt.Println("\n== 快照 ==")

	var r *replica.PNCounter
	prev, err := snaps.Load("counter")
	switch {
	case errors.Is(err, snapshot.ErrNotFound):
		r = replica.NewPNCounter(causal.NewActorID())
		fmt.Printf("新建副本 %s\n", r.Actor())
	case err != nil:
		return err
	default:
		if r, err = replica.RestorePNCounter(prev); err != nil {
			return err
		}
		fmt.Printf("恢复副本 %s, 当前值 %d\n", r.Actor(), r.Read())
	}

	_, ctx := r.Apply(crdt.PNInc(1))
	fmt.Printf("新操作 Dot: %s, 值: %d\n", ctx.Dot, r.Read())

	snap, err := r.Snapshot()
	if err != nil {
		return err
	}
	if err := snaps.Save("counter", snap); err != nil {
		return err
	}

	names, err := snaps.List()
	if err != nil {
		return err
	}
	fmt.Printf("已保存快照: %v\n", names)
	return nil
}
