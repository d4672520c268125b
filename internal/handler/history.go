package handler

import (
	"net/http"

	"github.com/MelParker66/flowerama-vd2026/internal/domain"
	"github.com/MelParker66/flowerama-vd2026/internal/repository"
	"github.com/MelParker66/flowerama-vd2026/internal/service"
	"github.com/go-chi/chi/v5"
)

type HistoryHandler struct {
	Ledger *repository.Ledger
}

func (h HistoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/history", h.list)
	r.Post("/api/history", h.create)
}

func (h HistoryHandler) list(w http.ResponseWriter, r *http.Request) {
	window, err := parseDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, keyOK, err.Error())
		return
	}
	history := service.CombineHistory(
		h.Ledger.Entries(domain.LedgerProduced),
		h.Ledger.Entries(domain.LedgerSentToShop),
		h.Ledger.Entries(domain.LedgerSold),
		h.Ledger.History(),
	)
	if !window.open() {
		kept := history[:0]
		for _, e := range history {
			if window.contains(e.Date) {
				kept = append(kept, e)
			}
		}
		history = kept
	}
	writeOK(w, map[string]any{"history": history})
}

// create records a free-form event. Events for Manage Products are refused
// by the ledger and reported as recorded:false.
func (h HistoryHandler) create(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, keyOK, "invalid payload")
		return
	}
	product, ok := stringField(body, "product")
	if !ok {
		writeError(w, http.StatusBadRequest, keyOK, "product is required")
		return
	}

	e := domain.HistoryEntry{Product: product}
	e.TS, _ = body["ts"].(string)
	e.Date, _ = body["date"].(string)
	e.Type, _ = body["type"].(string)
	e.Action, _ = body["action"].(string)
	e.Notes, _ = body["notes"].(string)
	e.Area, _ = body["area"].(string)
	if raw, present := body["qty"]; present && raw != nil {
		qty, ok := parseQty(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, keyOK, "qty must be an integer")
			return
		}
		e.Qty = &qty
	}

	writeOK(w, map[string]any{"recorded": h.Ledger.RecordHistory(e)})
}
