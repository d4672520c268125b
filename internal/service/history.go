package service

import (
	"sort"

	"github.com/MelParker66/flowerama-vd2026/internal/domain"
)

// HistoryAreas are the only areas ever shown in history.
var HistoryAreas = map[string]bool{
	domain.AreaWarehouse:  true,
	domain.AreaSentToShop: true,
	domain.AreaShop:       true,
}

// CombineHistory merges the three ledgers and the generic history list,
// drops anything outside HistoryAreas and sorts newest first: by ts when
// both entries carry one, entries with ts before those without, then by
// date descending and product ascending.
func CombineHistory(produced, sentToShop, sold []domain.ActivityEntry, extra []domain.HistoryEntry) []domain.HistoryEntry {
	out := make([]domain.HistoryEntry, 0, len(produced)+len(sentToShop)+len(sold)+len(extra))
	out = appendLedger(out, produced, domain.HistoryTypeProduced, domain.AreaWarehouse)
	out = appendLedger(out, sentToShop, domain.HistoryTypeSent, domain.AreaSentToShop)
	out = appendLedger(out, sold, domain.HistoryTypeShop, domain.AreaShop)
	for _, h := range extra {
		if HistoryAreas[h.Area] {
			out = append(out, h)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.TS != "" && b.TS != "":
			return a.TS > b.TS
		case a.TS != "":
			return true
		case b.TS != "":
			return false
		case a.Date != b.Date:
			return a.Date > b.Date
		default:
			return a.Product < b.Product
		}
	})
	return out
}

func appendLedger(out []domain.HistoryEntry, entries []domain.ActivityEntry, typ, area string) []domain.HistoryEntry {
	for _, e := range entries {
		qty := e.Qty
		out = append(out, domain.HistoryEntry{
			ID:      e.ID,
			Date:    e.Date,
			Type:    typ,
			Product: e.Product,
			Area:    area,
			Qty:     &qty,
		})
	}
	return out
}
