package storage

import "fmt"

// Backend names selectable via configuration.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Open creates the KV implementation named by backend. dbPath is only used
// by the sqlite backend.
func Open(backend, dbPath string) (KV, error) {
	switch backend {
	case BackendMemory:
		return NewMemoryKV(), nil
	case BackendSQLite:
		return NewSQLiteKV(dbPath)
	default:
		return nil, fmt.Errorf("unknown data backend %q", backend)
	}
}
