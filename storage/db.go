// Package storage persists ledger state. DB is a flat key-value store;
// StateDB layers the Balance Store keyspaces and an atomic write buffer on top.
package storage

// DB is the generic key-value store interface.
type DB interface {
	Get(key []byte) ([]byte, error) // core.ErrNotFound when absent
	Set(key, value []byte) error
	Delete(key []byte) error
	NewIterator(prefix []byte) Iterator
	NewBatch() Batch
	Close() error
}

// Iterator walks key-value pairs matching a prefix in key order.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Release()
	Error() error
}

// Batch collects writes that are applied atomically by Write.
type Batch interface {
	Set(key, value []byte)
	Delete(key []byte)
	Reset()
	Write() error
}

// sliceIterator iterates a pre-collected, sorted set of pairs.
type sliceIterator struct {
	pairs []kv
	idx   int
}

type kv struct{ k, v []byte }

func newSliceIterator(pairs []kv) *sliceIterator {
	return &sliceIterator{pairs: pairs, idx: -1}
}

func (it *sliceIterator) Next() bool    { it.idx++; return it.idx < len(it.pairs) }
func (it *sliceIterator) Key() []byte   { return it.pairs[it.idx].k }
func (it *sliceIterator) Value() []byte { return it.pairs[it.idx].v }
func (it *sliceIterator) Release()      {}
func (it *sliceIterator) Error() error  { return nil }
