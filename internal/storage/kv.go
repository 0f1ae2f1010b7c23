// Package storage provides the key-value shaped persistence layer.
//
// Records live under prefixed namespaces ("transaction:<id>",
// "installment:<id>", "history:<YYYY-MM>") and are stored as JSON. The
// store only needs four operations: read-one, write-one, delete-one and
// list-by-prefix; anything more specific (such as deleting all
// installments of a transaction) is done by filtering client-side.
package storage

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned when a key has no value.
var ErrNotFound = errors.New("key not found")

// KV is the minimal key-value contract the application depends on.
type KV interface {
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Set(ctx context.Context, key string, value json.RawMessage) error
	Delete(ctx context.Context, key string) error
	ListByPrefix(ctx context.Context, prefix string) ([]json.RawMessage, error)
	Close() error
}

// Key namespaces.
const (
	TransactionPrefix = "transaction:"
	InstallmentPrefix = "installment:"
	HistoryPrefix     = "history:"
	ExportPrefix      = "export:"
)

// TransactionKey builds the storage key for a transaction ID.
func TransactionKey(id string) string { return TransactionPrefix + id }

// InstallmentKey builds the storage key for an installment ID.
func InstallmentKey(id string) string { return InstallmentPrefix + id }

// HistoryKey builds the storage key for a YYYY-MM month bucket.
func HistoryKey(monthKey string) string { return HistoryPrefix + monthKey }

// ExportKey builds the storage key marking an installment as exported.
func ExportKey(installmentID string) string { return ExportPrefix + installmentID }
