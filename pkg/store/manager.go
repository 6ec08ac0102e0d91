package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// MultiStore 管理多个 Store 实例，每个副本一个。
type MultiStore struct {
	rootPath string
	options  []BadgerOption
	mu       sync.RWMutex
	stores   map[string]*BadgerStore
}

// NewMultiStore 创建一个新的 MultiStore 管理器。
// rootPath 是存储所有副本数据库的目录，options 用于打开每个存储。
func NewMultiStore(rootPath string, options ...BadgerOption) *MultiStore {
	return &MultiStore{
		rootPath: rootPath,
		options:  options,
		stores:   make(map[string]*BadgerStore),
	}
}

// validateName 拒绝空名称和会逃出 rootPath 的名称。
func validateName(name string) error {
	if strings.TrimSpace(name) == "" || name == "." || name == ".." {
		return fmt.Errorf("invalid store name %q", name)
	}
	if strings.ContainsAny(name, `/\:`) || filepath.IsAbs(name) {
		return fmt.Errorf("invalid store name %q", name)
	}
	return nil
}

// Get 返回给定名称的 Store。
// 如果存储尚未打开，它将打开存储。
func (m *MultiStore) Get(name string) (Store, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	m.mu.RLock()
	s, ok := m.stores[name]
	m.mu.RUnlock()
	if ok {
		return s, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// 双重检查
	if s, ok := m.stores[name]; ok {
		return s, nil
	}

	dbPath := filepath.Join(m.rootPath, name)
	if err := os.MkdirAll(dbPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	store, err := NewBadgerStore(dbPath, m.options...)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	m.stores[name] = store
	return store, nil
}

// Close 关闭给定名称的存储。
func (m *MultiStore) Close(name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.stores[name]
	if !ok {
		return nil
	}

	delete(m.stores, name)
	return s.Close()
}

// CloseAll 关闭所有打开的存储。
func (m *MultiStore) CloseAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for id, s := range m.stores {
		if err := s.Close(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		}
		delete(m.stores, id)
	}
	return firstErr
}
