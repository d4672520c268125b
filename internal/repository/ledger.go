package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MelParker66/flowerama-vd2026/internal/domain"
	"github.com/MelParker66/flowerama-vd2026/internal/metrics"
	"github.com/MelParker66/flowerama-vd2026/internal/ports"
	"github.com/google/uuid"
)

// isoMillis matches the timestamp shape clients already sort on.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// Ledger holds the three append-only activity logs, the last-modified date
// per product and the generic history list. Entries are never edited.
type Ledger struct {
	journal ports.LedgerJournal
	now     func() time.Time

	mu           sync.RWMutex
	entries      map[domain.LedgerKind][]domain.ActivityEntry
	lastModified map[string]string
	history      []domain.HistoryEntry
}

// NewLedger returns an empty ledger. journal may be nil.
func NewLedger(journal ports.LedgerJournal) *Ledger {
	return &Ledger{
		journal:      journal,
		now:          time.Now,
		entries:      make(map[domain.LedgerKind][]domain.ActivityEntry, len(domain.LedgerKinds)),
		lastModified: map[string]string{},
	}
}

// SetClock overrides the time source used for history timestamps.
func (l *Ledger) SetClock(now func() time.Time) {
	l.now = now
}

// Append adds e to the given ledger and marks e.Product as modified on e.Date.
// With a journal configured the entry is journaled first; a journal failure
// leaves the ledger untouched.
func (l *Ledger) Append(ctx context.Context, kind domain.LedgerKind, e domain.ActivityEntry) (domain.ActivityEntry, error) {
	if !kind.Valid() {
		return e, fmt.Errorf("unknown ledger %q", kind)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if l.journal != nil {
		if err := l.journal.Append(ctx, domain.LedgerRecord{Kind: kind, Entry: e}); err != nil {
			return e, fmt.Errorf("journal %s entry: %w", kind, err)
		}
	}
	l.apply(kind, e)
	metrics.LedgerEntries.WithLabelValues(string(kind)).Inc()
	return e, nil
}

func (l *Ledger) apply(kind domain.LedgerKind, e domain.ActivityEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[kind] = append(l.entries[kind], e)
	l.lastModified[e.Product] = e.Date
}

// Replay loads journaled entries into memory, in journal order.
func (l *Ledger) Replay(ctx context.Context) (int, error) {
	if l.journal == nil {
		return 0, nil
	}
	records, err := l.journal.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load journal: %w", err)
	}
	for _, rec := range records {
		if !rec.Kind.Valid() {
			continue
		}
		l.apply(rec.Kind, rec.Entry)
	}
	return len(records), nil
}

// Entries returns a copy of one ledger. The result is never nil.
func (l *Ledger) Entries(kind domain.LedgerKind) []domain.ActivityEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.ActivityEntry, len(l.entries[kind]))
	copy(out, l.entries[kind])
	return out
}

func (l *Ledger) LastModified() map[string]string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]string, len(l.lastModified))
	for k, v := range l.lastModified {
		out[k] = v
	}
	return out
}

// RecordHistory appends a generic history event unless it belongs to
// product management, which is never tracked. It reports whether the event
// was stored. Missing ts and date default to now.
func (l *Ledger) RecordHistory(e domain.HistoryEntry) bool {
	if e.Area == domain.AreaManageProducts || e.Type == domain.HistoryTypeManageProducts {
		return false
	}
	now := l.now().UTC()
	if e.TS == "" {
		e.TS = now.Format(isoMillis)
	}
	if e.Date == "" {
		e.Date = now.Format("2006-01-02")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.history = append(l.history, e)
	return true
}

func (l *Ledger) History() []domain.HistoryEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.HistoryEntry, len(l.history))
	copy(out, l.history)
	return out
}
