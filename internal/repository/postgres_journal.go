package repository

import (
	"context"

	"github.com/MelParker66/flowerama-vd2026/internal/db"
	"github.com/MelParker66/flowerama-vd2026/internal/domain"
	"github.com/MelParker66/flowerama-vd2026/internal/ports"
)

// PostgresJournal mirrors ledger writes into the ledger_entries table.
type PostgresJournal struct {
	DB *db.Postgres
}

var _ ports.LedgerJournal = PostgresJournal{}

// qty must hold any int64 quantity the handlers accept.
var journalSchema = []string{
	`CREATE TABLE IF NOT EXISTS ledger_entries (
		seq        BIGSERIAL PRIMARY KEY,
		id         TEXT NOT NULL UNIQUE,
		ledger     TEXT NOT NULL,
		date       TEXT NOT NULL,
		product    TEXT NOT NULL,
		qty        BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`ALTER TABLE ledger_entries ALTER COLUMN qty TYPE BIGINT`,
	`CREATE INDEX IF NOT EXISTS ledger_entries_product_idx ON ledger_entries (product)`,
}

// EnsureSchema creates the journal table if it does not exist yet and
// widens qty on tables created before it was BIGINT.
func (j PostgresJournal) EnsureSchema(ctx context.Context) error {
	return j.DB.Migrate(ctx, journalSchema...)
}

func (j PostgresJournal) Append(ctx context.Context, rec domain.LedgerRecord) error {
	_, err := j.DB.Pool.Exec(ctx, `
		INSERT INTO ledger_entries (id, ledger, date, product, qty, created_at)
		VALUES ($1,$2,$3,$4,$5, now())
	`, rec.Entry.ID, string(rec.Kind), rec.Entry.Date, rec.Entry.Product, rec.Entry.Qty)
	if db.IsUniqueViolation(err) {
		// Already journaled under this id.
		return nil
	}
	return err
}

func (j PostgresJournal) Load(ctx context.Context) ([]domain.LedgerRecord, error) {
	rows, err := j.DB.Pool.Query(ctx, `
		SELECT id, ledger, date, product, qty
		FROM ledger_entries
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LedgerRecord
	for rows.Next() {
		var rec domain.LedgerRecord
		var kind string
		if err := rows.Scan(&rec.Entry.ID, &kind, &rec.Entry.Date, &rec.Entry.Product, &rec.Entry.Qty); err != nil {
			return nil, err
		}
		rec.Kind = domain.LedgerKind(kind)
		out = append(out, rec)
	}
	return out, rows.Err()
}
