// Package snapshot 把副本快照持久化到 store.Store。
//
// 每个快照以 <prefix><name> 为键保存为一条 msgpack 记录。
package snapshot

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/johvnik/CmRDTs/pkg/replica"
	"github.com/johvnik/CmRDTs/pkg/store"
	"go.uber.org/zap"
)

var (
	ErrNotFound    = errors.New("snapshot not found")
	ErrInvalidName = errors.New("invalid snapshot name")
)

const defaultKeyPrefix = "snap/"

// Manager 在一个 Store 上保存、读取和删除快照。
type Manager struct {
	st     store.Store
	prefix []byte
	logger *zap.Logger
}

type Option func(*Manager)

// WithLogger 设置日志记录器，默认不输出。
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithKeyPrefix 设置快照键的前缀。
func WithKeyPrefix(prefix string) Option {
	return func(m *Manager) {
		m.prefix = []byte(prefix)
	}
}

func New(st store.Store, opts ...Option) *Manager {
	m := &Manager{
		st:     st,
		prefix: []byte(defaultKeyPrefix),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) key(name string) ([]byte, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	k := make([]byte, 0, len(m.prefix)+len(name))
	k = append(k, m.prefix...)
	return append(k, name...), nil
}

// Save 以 name 保存快照，覆盖已有的同名快照。
func (m *Manager) Save(name string, snap replica.Snapshot) error {
	key, err := m.key(name)
	if err != nil {
		return err
	}
	data, err := snap.Bytes()
	if err != nil {
		return fmt.Errorf("encode snapshot %q: %w", name, err)
	}
	if err := m.st.Update(func(tx store.Tx) error {
		return tx.Set(key, data)
	}); err != nil {
		m.logger.Error("snapshot save failed", zap.String("name", name), zap.Error(err))
		return fmt.Errorf("save snapshot %q: %w", name, err)
	}
	m.logger.Debug("snapshot saved",
		zap.String("name", name),
		zap.Stringer("type", snap.Type),
		zap.Uint64("actor", uint64(snap.Actor)),
		zap.Uint64("op_counter", snap.OpCounter),
		zap.Int("bytes", len(data)))
	return nil
}

// Load 读取 name 对应的快照。不存在时返回 ErrNotFound。
func (m *Manager) Load(name string) (replica.Snapshot, error) {
	key, err := m.key(name)
	if err != nil {
		return replica.Snapshot{}, err
	}
	var data []byte
	err = m.st.View(func(tx store.Tx) error {
		v, err := tx.Get(key)
		if err != nil {
			return err
		}
		data = v
		return nil
	})
	if errors.Is(err, store.ErrKeyNotFound) {
		return replica.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return replica.Snapshot{}, fmt.Errorf("load snapshot %q: %w", name, err)
	}

	snap, err := replica.FromBytesSnapshot(data)
	if err != nil {
		m.logger.Warn("snapshot corrupt", zap.String("name", name), zap.Error(err))
		return replica.Snapshot{}, err
	}
	return snap, nil
}

// Delete 删除快照。删除不存在的快照不是错误。
func (m *Manager) Delete(name string) error {
	key, err := m.key(name)
	if err != nil {
		return err
	}
	if err := m.st.Update(func(tx store.Tx) error {
		return tx.Delete(key)
	}); err != nil {
		return fmt.Errorf("delete snapshot %q: %w", name, err)
	}
	m.logger.Debug("snapshot deleted", zap.String("name", name))
	return nil
}

// List 按键序返回所有快照名称。
func (m *Manager) List() ([]string, error) {
	var names []string
	err := m.st.View(func(tx store.Tx) error {
		it := tx.NewIterator(store.IteratorOptions{Prefix: m.prefix})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			k, _, err := it.Item()
			if err != nil {
				return err
			}
			names = append(names, string(bytes.TrimPrefix(k, m.prefix)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return names, nil
}
