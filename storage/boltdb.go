package storage

import (
	"bytes"
	"fmt"
	"time"

	"github.com/tolelom/tolledger/core"
	bolt "go.etcd.io/bbolt"
)

var boltBucket = []byte("ledger")

// BoltDB implements DB on a single bbolt bucket.
type BoltDB struct {
	db *bolt.DB
}

// NewBoltDB opens (or creates) the bbolt file at path.
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %q: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &BoltDB{db: db}, nil
}

func (b *BoltDB) Get(key []byte) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(boltBucket).Get(key)
		if v == nil {
			return core.ErrNotFound
		}
		// bbolt values are only valid inside the transaction.
		out = append([]byte(nil), v...)
		return nil
	})
	return out, err
}

func (b *BoltDB) Set(key, value []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put(key, value)
	})
}

func (b *BoltDB) Delete(key []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Delete(key)
	})
}

// NewIterator snapshots the matching range; the cursor cannot outlive the
// read transaction.
func (b *BoltDB) NewIterator(prefix []byte) Iterator {
	var pairs []kv
	err := b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(boltBucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			pairs = append(pairs, kv{k: append([]byte(nil), k...), v: append([]byte(nil), v...)})
		}
		return nil
	})
	if err != nil {
		return &errIterator{err: err}
	}
	return newSliceIterator(pairs)
}

func (b *BoltDB) NewBatch() Batch {
	return &boltBatch{db: b.db}
}

func (b *BoltDB) Close() error {
	return b.db.Close()
}

type boltBatch struct {
	db  *bolt.DB
	ops []memBatchOp
}

func (b *boltBatch) Set(key, value []byte) {
	b.ops = append(b.ops, memBatchOp{string(key), append([]byte{}, value...)})
}

func (b *boltBatch) Delete(key []byte) {
	b.ops = append(b.ops, memBatchOp{string(key), nil})
}

func (b *boltBatch) Reset() { b.ops = nil }

func (b *boltBatch) Write() error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(boltBucket)
		for _, op := range b.ops {
			var err error
			if op.value == nil {
				err = bkt.Delete([]byte(op.key))
			} else {
				err = bkt.Put([]byte(op.key), op.value)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

type errIterator struct{ err error }

func (it *errIterator) Next() bool    { return false }
func (it *errIterator) Key() []byte   { return nil }
func (it *errIterator) Value() []byte { return nil }
func (it *errIterator) Release()      {}
func (it *errIterator) Error() error  { return it.err }
