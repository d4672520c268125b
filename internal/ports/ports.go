package ports

import (
	"context"

	"github.com/MelParker66/flowerama-vd2026/internal/domain"
)

// HealthChecker is used to probe dependencies.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// LedgerJournal durably records ledger writes so they survive a restart.
type LedgerJournal interface {
	Append(ctx context.Context, rec domain.LedgerRecord) error
	Load(ctx context.Context) ([]domain.LedgerRecord, error)
}
