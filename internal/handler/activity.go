package handler

import (
	"log/slog"
	"net/http"

	"github.com/MelParker66/flowerama-vd2026/internal/domain"
	"github.com/MelParker66/flowerama-vd2026/internal/repository"
	"github.com/go-chi/chi/v5"
)

const (
	errQuantityRequired = "date, product, and quantity (integer) are required"
	errQtyRequired      = "date, product, and qty (integer) are required"
)

// ActivityHandler records production, shop transfers and sales. Several
// routes write the same ledger; they differ in which quantity field they
// read and how they spell the success flag.
type ActivityHandler struct {
	Ledger *repository.Ledger
	Logger *slog.Logger
}

// activityRoute describes one write endpoint.
type activityRoute struct {
	kind    domain.LedgerKind
	fields  []string // quantity fields in order of preference
	key     string
	message string
}

func (h ActivityHandler) RegisterRoutes(r chi.Router) {
	r.Post("/warehouse", h.record(activityRoute{domain.LedgerProduced, []string{"quantity", "qty"}, keySuccess, errQuantityRequired}))
	r.Post("/api/warehouse", h.record(activityRoute{domain.LedgerProduced, []string{"qty", "quantity"}, keySuccess, errQuantityRequired}))
	r.Post("/api/produced", h.record(activityRoute{domain.LedgerProduced, []string{"qty"}, keySuccess, errQtyRequired}))
	r.Post("/api/sent-to-shop", h.record(activityRoute{domain.LedgerSentToShop, []string{"qty", "quantity"}, keyOK, errQuantityRequired}))
	r.Post("/api/shop", h.record(activityRoute{domain.LedgerSold, []string{"qty", "quantity"}, keySuccess, errQuantityRequired}))
	r.Post("/api/sold", h.record(activityRoute{domain.LedgerSold, []string{"qty"}, keyOK, errQtyRequired}))

	r.Get("/api/produced", h.list(domain.LedgerProduced))
	r.Get("/api/sent-to-shop", h.list(domain.LedgerSentToShop))
	r.Get("/api/sold", h.list(domain.LedgerSold))
}

func (h ActivityHandler) record(rt activityRoute) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := decodeBody(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, rt.key, rt.message)
			return
		}
		date, okDate := stringField(body, "date")
		product, okProduct := stringField(body, "product")

		// The first present field wins, even when it is invalid.
		var raw any
		for _, f := range rt.fields {
			if v, present := body[f]; present {
				raw = v
				break
			}
		}
		qty, okQty := parseQty(raw)
		if !okDate || !okProduct || !okQty {
			writeError(w, http.StatusBadRequest, rt.key, rt.message)
			return
		}

		e, err := h.Ledger.Append(r.Context(), rt.kind, domain.ActivityEntry{Date: date, Product: product, Qty: qty})
		if err != nil {
			h.Logger.Error("append ledger entry", "ledger", rt.kind, "product", product, "err", err)
			writeError(w, http.StatusInternalServerError, rt.key, "Failed to record entry")
			return
		}
		h.Logger.Debug("ledger entry recorded", "ledger", rt.kind, "id", e.ID, "product", product, "qty", qty)
		writeJSON(w, rt.key, nil)
	}
}

func (h ActivityHandler) list(kind domain.LedgerKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		window, err := parseDateRange(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, keyOK, err.Error())
			return
		}
		entries := h.Ledger.Entries(kind)
		if !window.open() {
			kept := make([]domain.ActivityEntry, 0, len(entries))
			for _, e := range entries {
				if window.contains(e.Date) {
					kept = append(kept, e)
				}
			}
			entries = kept
		}
		writeOK(w, map[string]any{"entries": entries})
	}
}
