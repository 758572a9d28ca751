package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// Backend names a DB implementation.
type Backend string

const (
	BackendLevelDB Backend = "leveldb"
	BackendBolt    Backend = "bolt"
	BackendMemory  Backend = "memory"
)

// Open creates the DB for backend under dataDir.
func Open(backend Backend, dataDir string) (DB, error) {
	if backend == BackendMemory {
		return NewMemDB(), nil
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("mkdir data dir: %w", err)
	}
	switch backend {
	case BackendLevelDB, "":
		return NewLevelDB(filepath.Join(dataDir, "ledger"))
	case BackendBolt:
		return NewBoltDB(filepath.Join(dataDir, "ledger.bolt"))
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", backend)
	}
}
