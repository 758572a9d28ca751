package storage

import (
	"sort"
	"strings"
	"sync"

	"github.com/tolelom/tolledger/core"
)

// MemDB is a thread-safe in-memory DB. Used by tests and the "memory"
// backend; contents are lost on exit.
type MemDB struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemDB creates an empty MemDB.
func NewMemDB() *MemDB {
	return &MemDB{data: make(map[string][]byte)}
}

func (m *MemDB) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, core.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemDB) Set(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[string(key)] = append([]byte(nil), value...)
	return nil
}

func (m *MemDB) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
	return nil
}

func (m *MemDB) NewIterator(prefix []byte) Iterator {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p := string(prefix)
	var pairs []kv
	for k, v := range m.data {
		if strings.HasPrefix(k, p) {
			pairs = append(pairs, kv{k: []byte(k), v: append([]byte(nil), v...)})
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return string(pairs[i].k) < string(pairs[j].k) })
	return newSliceIterator(pairs)
}

func (m *MemDB) NewBatch() Batch {
	return &memBatch{db: m}
}

func (m *MemDB) Close() error { return nil }

// Len returns the number of stored keys.
func (m *MemDB) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

type memBatchOp struct {
	key   string
	value []byte // nil means delete
}

type memBatch struct {
	db  *MemDB
	ops []memBatchOp
}

func (b *memBatch) Set(key, value []byte) {
	b.ops = append(b.ops, memBatchOp{string(key), append([]byte{}, value...)})
}

func (b *memBatch) Delete(key []byte) {
	b.ops = append(b.ops, memBatchOp{string(key), nil})
}

func (b *memBatch) Reset() { b.ops = nil }

func (b *memBatch) Write() error {
	b.db.mu.Lock()
	defer b.db.mu.Unlock()
	for _, op := range b.ops {
		if op.value == nil {
			delete(b.db.data, op.key)
		} else {
			b.db.data[op.key] = op.value
		}
	}
	return nil
}
