package storage

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tolelom/tolledger/core"
	"github.com/tolelom/tolledger/crypto"
)

// statePrefixes lists every keyspace covered by ComputeRoot.
var statePrefixes []string

func registerPrefix(p string) string {
	statePrefixes = append(statePrefixes, p)
	return p
}

var (
	prefixAccount = registerPrefix("acct:")
	prefixNonce   = registerPrefix("nonce:")
	prefixSystem  = registerPrefix("sys:")

	keyTotalIssuance = prefixSystem + "total_issuance"
)

type stateSnapshot struct {
	dirty map[string][]byte
}

// StateDB implements core.State on top of a DB with an in-memory write
// buffer, snapshot/rollback, and deterministic state-root computation.
// It is not safe for concurrent use; the dispatcher serializes access.
type StateDB struct {
	db        DB
	dirty     map[string][]byte
	snapshots []stateSnapshot
}

// NewStateDB creates a StateDB backed by db.
func NewStateDB(db DB) *StateDB {
	return &StateDB{
		db:    db,
		dirty: make(map[string][]byte),
	}
}

func (s *StateDB) get(key string) ([]byte, error) {
	if v, ok := s.dirty[key]; ok {
		return v, nil
	}
	return s.db.Get([]byte(key))
}

func (s *StateDB) set(key string, val []byte) {
	s.dirty[key] = val
}

// scan merges persisted entries under prefix with the write buffer.
func (s *StateDB) scan(prefix string) (map[string][]byte, error) {
	merged := make(map[string][]byte)
	it := s.db.NewIterator([]byte(prefix))
	for it.Next() {
		merged[string(it.Key())] = append([]byte(nil), it.Value()...)
	}
	it.Release()
	if err := it.Error(); err != nil {
		return nil, err
	}
	for k, v := range s.dirty {
		if strings.HasPrefix(k, prefix) {
			merged[k] = v
		}
	}
	return merged, nil
}

// ---- Accounts ----

func (s *StateDB) GetAccount(id core.AccountID) (core.AccountData, error) {
	data, err := s.get(prefixAccount + string(id))
	if errors.Is(err, core.ErrNotFound) {
		return core.AccountData{}, nil
	}
	if err != nil {
		return core.AccountData{}, err
	}
	var acc core.AccountData
	if err := json.Unmarshal(data, &acc); err != nil {
		return core.AccountData{}, fmt.Errorf("decode account %s: %w", id, err)
	}
	return acc, nil
}

func (s *StateDB) SetAccount(id core.AccountID, acc core.AccountData) error {
	data, err := json.Marshal(acc)
	if err != nil {
		return err
	}
	s.set(prefixAccount+string(id), data)
	return nil
}

// ForEachAccount visits every stored account in id order until fn returns false.
func (s *StateDB) ForEachAccount(fn func(core.AccountID, core.AccountData) bool) error {
	merged, err := s.scan(prefixAccount)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var acc core.AccountData
		if err := json.Unmarshal(merged[k], &acc); err != nil {
			return fmt.Errorf("decode account %s: %w", k, err)
		}
		if !fn(core.AccountID(strings.TrimPrefix(k, prefixAccount)), acc) {
			return nil
		}
	}
	return nil
}

// ---- Total issuance ----

func (s *StateDB) TotalIssuance() (core.Balance, bool, error) {
	data, err := s.get(keyTotalIssuance)
	if errors.Is(err, core.ErrNotFound) {
		return core.Balance{}, false, nil
	}
	if err != nil {
		return core.Balance{}, false, err
	}
	var total core.Balance
	if err := total.UnmarshalText(data); err != nil {
		return core.Balance{}, false, fmt.Errorf("decode total issuance: %w", err)
	}
	return total, true, nil
}

func (s *StateDB) SetTotalIssuance(total core.Balance) error {
	data, _ := total.MarshalText()
	s.set(keyTotalIssuance, data)
	return nil
}

// MutateTotalIssuance reads, transforms and writes back the scalar within
// the current write buffer.
func (s *StateDB) MutateTotalIssuance(f func(core.Balance, bool) core.Balance) error {
	cur, ok, err := s.TotalIssuance()
	if err != nil {
		return err
	}
	return s.SetTotalIssuance(f(cur, ok))
}

// ---- Nonces ----

func (s *StateDB) GetNonce(id core.AccountID) (uint64, error) {
	data, err := s.get(prefixNonce + string(id))
	if errors.Is(err, core.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(string(data), 10, 64)
}

func (s *StateDB) SetNonce(id core.AccountID, nonce uint64) error {
	s.set(prefixNonce+string(id), []byte(strconv.FormatUint(nonce, 10)))
	return nil
}

// ---- Snapshot / Rollback / Commit ----

// Snapshot saves the current write buffer and returns a snapshot ID.
func (s *StateDB) Snapshot() (int, error) {
	snap := stateSnapshot{dirty: copyBuffer(s.dirty)}
	s.snapshots = append(s.snapshots, snap)
	return len(s.snapshots) - 1, nil
}

// RevertToSnapshot restores the write buffer to a previously saved snapshot
// and discards it along with every later snapshot.
func (s *StateDB) RevertToSnapshot(id int) error {
	if id < 0 || id >= len(s.snapshots) {
		return fmt.Errorf("invalid snapshot id %d", id)
	}
	s.dirty = copyBuffer(s.snapshots[id].dirty)
	s.snapshots = s.snapshots[:id]
	return nil
}

func copyBuffer(src map[string][]byte) map[string][]byte {
	dst := make(map[string][]byte, len(src))
	for k, v := range src {
		dst[k] = append([]byte(nil), v...)
	}
	return dst
}

// ComputeRoot returns the hash of the complete world state: persisted
// entries under every registered prefix overlaid with the write buffer,
// sorted and length-prefix encoded. It does not flush.
func (s *StateDB) ComputeRoot() string {
	merged := make(map[string][]byte)
	for _, prefix := range statePrefixes {
		part, err := s.scan(prefix)
		if err != nil {
			return ""
		}
		for k, v := range part {
			merged[k] = v
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	var lenBuf [4]byte
	for _, k := range keys {
		v := merged[k]
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(k)))
		buf.Write(lenBuf[:])
		buf.WriteString(k)
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(v)))
		buf.Write(lenBuf[:])
		buf.Write(v)
	}
	return crypto.Hash(buf.Bytes())
}

// Commit atomically flushes the write buffer to the underlying DB and
// clears it along with all snapshots.
func (s *StateDB) Commit() error {
	if len(s.dirty) == 0 {
		s.snapshots = nil
		return nil
	}
	batch := s.db.NewBatch()
	for k, v := range s.dirty {
		batch.Set([]byte(k), v)
	}
	if err := batch.Write(); err != nil {
		return err
	}
	s.dirty = make(map[string][]byte)
	s.snapshots = nil
	return nil
}

