// Package history implements the append-only monthly event log. Events
// are bucketed by the calendar month of their timestamp under
// "history:<YYYY-MM>" keys in the KV store.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Josehuhu/financeiro/internal/core"
	"github.com/Josehuhu/financeiro/internal/storage"
)

// Recorder is the event sink consumed by the ledger service. Append is
// fire-and-forget from the caller's point of view: failures are logged by
// the caller, never propagated into the mutating operation.
type Recorder interface {
	Append(ctx context.Context, event core.Event) error
	QueryByMonth(ctx context.Context, year, month int) ([]core.Event, error)
	ListAllMonths(ctx context.Context) ([]MonthEntry, error)
	ClearAll(ctx context.Context) error
}

// MonthEntry is one month's bucket of events.
type MonthEntry struct {
	Year   int          `json:"year"`
	Month  int          `json:"month"`
	Events []core.Event `json:"events"`
}

// Store is the KV-backed Recorder implementation.
type Store struct {
	kv storage.KV
}

// NewStore creates a history store over the given KV.
func NewStore(kv storage.KV) *Store {
	return &Store{kv: kv}
}

var _ Recorder = (*Store)(nil)

type monthBucket struct {
	Events []core.Event `json:"events"`
}

// Append adds the event to its month's bucket. Appending the same event
// ID twice is a no-op: the server records events directly and the worker
// mirrors them from a queue with at-least-once delivery, so the same
// event can arrive here more than once. The read-modify-write is not
// atomic across writers; acceptable for a single-session tool.
func (s *Store) Append(ctx context.Context, event core.Event) error {
	key := storage.HistoryKey(event.MonthKey())

	var bucket monthBucket
	data, err := s.kv.Get(ctx, key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		// first event of the month
	case err != nil:
		return fmt.Errorf("load history bucket %s: %w", key, err)
	default:
		if err := json.Unmarshal(data, &bucket); err != nil {
			return fmt.Errorf("unmarshal history bucket %s: %w", key, err)
		}
	}

	for _, existing := range bucket.Events {
		if existing.ID == event.ID {
			return nil
		}
	}

	bucket.Events = append(bucket.Events, event)
	out, err := json.Marshal(bucket)
	if err != nil {
		return fmt.Errorf("marshal history bucket %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, out); err != nil {
		return fmt.Errorf("save history bucket %s: %w", key, err)
	}
	return nil
}

// QueryByMonth returns the events recorded for one calendar month, oldest
// first. An empty month yields an empty slice, not an error.
func (s *Store) QueryByMonth(ctx context.Context, year, month int) ([]core.Event, error) {
	key := storage.HistoryKey(fmt.Sprintf("%04d-%02d", year, month))

	data, err := s.kv.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return []core.Event{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load history bucket %s: %w", key, err)
	}

	var bucket monthBucket
	if err := json.Unmarshal(data, &bucket); err != nil {
		return nil, fmt.Errorf("unmarshal history bucket %s: %w", key, err)
	}
	return bucket.Events, nil
}

// ListAllMonths returns every recorded month, newest month first.
func (s *Store) ListAllMonths(ctx context.Context) ([]MonthEntry, error) {
	raws, err := s.kv.ListByPrefix(ctx, storage.HistoryPrefix)
	if err != nil {
		return nil, fmt.Errorf("list history buckets: %w", err)
	}

	entries := make([]MonthEntry, 0, len(raws))
	for _, raw := range raws {
		var bucket monthBucket
		if err := json.Unmarshal(raw, &bucket); err != nil {
			return nil, fmt.Errorf("unmarshal history bucket: %w", err)
		}
		if len(bucket.Events) == 0 {
			continue
		}
		year, month, err := splitMonthKey(bucket.Events[0].MonthKey())
		if err != nil {
			return nil, err
		}
		entries = append(entries, MonthEntry{Year: year, Month: month, Events: bucket.Events})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Year != entries[j].Year {
			return entries[i].Year > entries[j].Year
		}
		return entries[i].Month > entries[j].Month
	})
	return entries, nil
}

// ClearAll drops every month bucket.
func (s *Store) ClearAll(ctx context.Context) error {
	raws, err := s.kv.ListByPrefix(ctx, storage.HistoryPrefix)
	if err != nil {
		return fmt.Errorf("list history buckets: %w", err)
	}
	for _, raw := range raws {
		var bucket monthBucket
		if err := json.Unmarshal(raw, &bucket); err != nil {
			return fmt.Errorf("unmarshal history bucket: %w", err)
		}
		if len(bucket.Events) == 0 {
			continue
		}
		key := storage.HistoryKey(bucket.Events[0].MonthKey())
		if err := s.kv.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete history bucket %s: %w", key, err)
		}
	}
	return nil
}

func splitMonthKey(key string) (year, month int, err error) {
	parts := strings.SplitN(key, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed month key %q", key)
	}
	year, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed month key %q", key)
	}
	month, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed month key %q", key)
	}
	return year, month, nil
}
