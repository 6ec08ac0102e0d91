package store

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

type BadgerStore struct {
	db     *badger.DB
	logger *zap.Logger
}

const defaultBadgerValueLogFileSize = 128 * 1024 * 1024 // 128MB

type badgerConfig struct {
	valueLogFileSize int64
	inMemory         bool
	logger           *zap.Logger
}

// BadgerOption customizes how Badger is opened.
type BadgerOption func(*badgerConfig) error

// WithBadgerValueLogFileSize sets max bytes per value log (vlog) file.
func WithBadgerValueLogFileSize(sizeBytes int64) BadgerOption {
	return func(cfg *badgerConfig) error {
		if sizeBytes <= 0 {
			return fmt.Errorf("badger value log file size must be > 0, got %d", sizeBytes)
		}
		cfg.valueLogFileSize = sizeBytes
		return nil
	}
}

// WithInMemory keeps all data in memory; path is ignored.
func WithInMemory() BadgerOption {
	return func(cfg *badgerConfig) error {
		cfg.inMemory = true
		return nil
	}
}

// WithLogger routes store and Badger logs to logger.
func WithLogger(logger *zap.Logger) BadgerOption {
	return func(cfg *badgerConfig) error {
		if logger == nil {
			return errors.New("badger logger must not be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// NewBadgerStore creates a Badger-backed store.
func NewBadgerStore(path string, options ...BadgerOption) (*BadgerStore, error) {
	cfg := badgerConfig{
		valueLogFileSize: defaultBadgerValueLogFileSize,
		logger:           zap.NewNop(),
	}
	for _, option := range options {
		if option == nil {
			continue
		}
		if err := option(&cfg); err != nil {
			return nil, err
		}
	}

	opts := badger.DefaultOptions(path)
	if cfg.inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithValueLogFileSize(cfg.valueLogFileSize)
	opts = opts.WithLogger(&badgerLogger{s: cfg.logger.Named("badger").Sugar()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}
	cfg.logger.Debug("badger store opened", zap.String("path", path), zap.Bool("in_memory", cfg.inMemory))

	return &BadgerStore{db: db, logger: cfg.logger}, nil
}

func (s *BadgerStore) Close() error {
	s.logger.Debug("badger store closing")
	return s.db.Close()
}

// RunTx 在一个 Badger 事务中执行 fn。fn 返回错误时事务回滚。
func (s *BadgerStore) RunTx(update bool, fn func(Tx) error) error {
	run := s.db.View
	if update {
		run = s.db.Update
	}
	err := run(func(txn *badger.Txn) error {
		return fn(&badgerTx{txn: txn})
	})
	if err != nil && !errors.Is(err, ErrKeyNotFound) {
		s.logger.Debug("badger tx failed", zap.Bool("update", update), zap.Error(err))
	}
	return err
}

func (s *BadgerStore) View(fn func(Tx) error) error {
	return s.RunTx(false, fn)
}

func (s *BadgerStore) Update(fn func(Tx) error) error {
	return s.RunTx(true, fn)
}

type badgerTx struct {
	txn *badger.Txn
}

func (tx *badgerTx) Set(key, value []byte) error {
	return tx.txn.Set(key, value)
}

func (tx *badgerTx) Get(key []byte) ([]byte, error) {
	item, err := tx.txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (tx *badgerTx) Delete(key []byte) error {
	return tx.txn.Delete(key)
}

func (tx *badgerTx) NewIterator(opts IteratorOptions) Iterator {
	bOpts := badger.DefaultIteratorOptions
	bOpts.Reverse = opts.Reverse
	bOpts.Prefix = opts.Prefix
	return &badgerIterator{
		it:      tx.txn.NewIterator(bOpts),
		prefix:  bytes.Clone(opts.Prefix),
		reverse: opts.Reverse,
	}
}

type badgerIterator struct {
	it      *badger.Iterator
	prefix  []byte
	reverse bool
}

// Rewind 定位到范围起点。
// 反向带前缀时 Badger 的 Rewind 会落在整个库的末尾，需从 prefix+0xFF 向前查找。
func (i *badgerIterator) Rewind() {
	if i.reverse && len(i.prefix) > 0 {
		i.it.Seek(append(bytes.Clone(i.prefix), 0xFF))
		return
	}
	i.it.Rewind()
}

// Valid 还要求当前键带有前缀。
func (i *badgerIterator) Valid() bool {
	return i.it.ValidForPrefix(i.prefix)
}

func (i *badgerIterator) Next() {
	i.it.Next()
}

func (i *badgerIterator) Item() ([]byte, []byte, error) {
	item := i.it.Item()
	k := item.KeyCopy(nil)
	v, err := item.ValueCopy(nil)
	return k, v, err
}

func (i *badgerIterator) Close() {
	i.it.Close()
}

type badgerLogger struct {
	s *zap.SugaredLogger
}

func (l *badgerLogger) Errorf(format string, args ...any)   { l.s.Errorf(format, args...) }
func (l *badgerLogger) Warningf(format string, args ...any) { l.s.Warnf(format, args...) }
func (l *badgerLogger) Infof(format string, args ...any)    { l.s.Infof(format, args...) }
func (l *badgerLogger) Debugf(format string, args ...any)   { l.s.Debugf(format, args...) }
