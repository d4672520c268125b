package service

import (
	"time"

	"github.com/MelParker66/flowerama-vd2026/internal/domain"
	"github.com/MelParker66/flowerama-vd2026/internal/repository"
)

// SummaryInput is everything ComputeSummary reads.
type SummaryInput struct {
	Products     map[string]domain.PlannedEntry
	Planned      map[string]float64
	Produced     []domain.ActivityEntry
	SentToShop   []domain.ActivityEntry
	Sold         []domain.ActivityEntry
	LastModified map[string]string
	Today        string
}

// ComputeSummary builds per-product figures and totals. It covers every
// product not explicitly deactivated: registered products with no activity
// yet, and products that only appear in the ledgers.
func ComputeSummary(in SummaryInput) domain.Summary {
	produced := totalsByProduct(in.Produced)
	sent := totalsByProduct(in.SentToShop)
	sold := totalsByProduct(in.Sold)

	inactive := func(product string) bool {
		e, ok := in.Products[product]
		return ok && !e.Active
	}

	universe := make(map[string]struct{}, len(in.Products))
	for product := range in.Products {
		if !inactive(product) {
			universe[product] = struct{}{}
		}
	}
	for _, m := range []map[string]int{produced, sent, sold} {
		for product := range m {
			if !inactive(product) {
				universe[product] = struct{}{}
			}
		}
	}

	out := domain.Summary{ByProduct: make(map[string]domain.ProductSummary, len(universe))}
	for product := range universe {
		p := domain.ProductSummary{
			Product:    product,
			Planned:    in.Planned[product],
			Produced:   produced[product],
			SentToShop: sent[product],
			Sold:       sold[product],
		}
		p.Net = p.Produced - p.SentToShop - p.Sold
		p.AheadBehind = float64(p.Produced) - p.Planned
		p.DateModified = in.LastModified[product]
		if p.DateModified == "" {
			p.DateModified = in.Today
		}
		p.Status, p.StatusColor = StockStatus(p.Net)
		p.ProgressStatus, p.ProgressClass = ProgressStatus(p.Planned, p.Produced, p.AheadBehind)

		out.ByProduct[product] = p
		out.Totals.Planned += p.Planned
		out.Totals.Produced += p.Produced
		out.Totals.SentToShop += p.SentToShop
		out.Totals.Sold += p.Sold
		out.Totals.Net += p.Net
		out.Totals.AheadBehind += p.AheadBehind
	}
	return out
}

func totalsByProduct(entries []domain.ActivityEntry) map[string]int {
	out := make(map[string]int)
	for _, e := range entries {
		out[e.Product] += e.Qty
	}
	return out
}

// SummaryService feeds the current state into ComputeSummary. Nothing is
// cached; each call reads the full ledgers.
type SummaryService struct {
	Planning *PlanningService
	Ledger   *repository.Ledger
	Now      func() time.Time
}

func (s SummaryService) Summary() domain.Summary {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return ComputeSummary(SummaryInput{
		Products:     s.Planning.AllProducts(),
		Planned:      s.Planning.Merged(false),
		Produced:     s.Ledger.Entries(domain.LedgerProduced),
		SentToShop:   s.Ledger.Entries(domain.LedgerSentToShop),
		Sold:         s.Ledger.Entries(domain.LedgerSold),
		LastModified: s.Ledger.LastModified(),
		Today:        now().Format("2006-01-02"),
	})
}
