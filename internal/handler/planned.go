package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/MelParker66/flowerama-vd2026/internal/service"
	"github.com/go-chi/chi/v5"
)

const (
	errProductRequired = "Product name is required"
	errInvalidPlanned  = "Planned quantity must be a valid number"
	errSaveOverride    = "Failed to save override"
	errSaveStatus      = "Failed to save product status"
)

// PlannedHandler serves planned quantities and product activation.
type PlannedHandler struct {
	Planning *service.PlanningService
	Logger   *slog.Logger
}

func (h PlannedHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/planned", h.planned)
	r.Get("/api/planned/debug", h.debug)
	r.Post("/api/planned", h.upsert)
	r.Delete("/api/planned/{product}", h.remove)

	r.Get("/api/products", h.products)
	r.Post("/api/products/deactivate", h.setActive(false))
	r.Post("/api/products/reactivate", h.setActive(true))
}

func (h PlannedHandler) writeMerged(w http.ResponseWriter) {
	merged := h.Planning.Merged(false)
	writeOK(w, map[string]any{
		"plannedByProduct": merged,
		"count":            len(merged),
	})
}

func (h PlannedHandler) planned(w http.ResponseWriter, r *http.Request) {
	h.writeMerged(w)
}

func (h PlannedHandler) debug(w http.ResponseWriter, r *http.Request) {
	rep := h.Planning.Report()
	merged := h.Planning.Merged(false)

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 5 {
		keys = keys[:5]
	}

	fileExists := false
	if rep.Path != "" {
		_, err := os.Stat(rep.Path)
		fileExists = err == nil
	}

	var (
		path, sheet, loadErr any
		preview              any
	)
	if rep.Path != "" {
		path = rep.Path
	}
	if rep.SheetName != "" {
		sheet = rep.SheetName
	}
	if rep.LoadError != "" {
		loadErr = rep.LoadError
	}
	if rep.Preview != nil {
		preview = rep.Preview
	}

	writeOK(w, map[string]any{
		"plannedPathUsed":    path,
		"fileExists":         fileExists,
		"sheetName":          sheet,
		"detectedProductCol": rep.Columns.Product,
		"detectedPlannedCol": rep.Columns.Planned,
		"first5RowsPreview":  preview,
		"count":              len(merged),
		"sampleKeys":         keys,
		"loadError":          loadErr,
	})
}

func (h PlannedHandler) upsert(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, keyOK, "invalid payload")
		return
	}
	product, _ := body["product"].(string)
	if strings.TrimSpace(product) == "" {
		writeError(w, http.StatusBadRequest, keyOK, errProductRequired)
		return
	}
	planned, ok := parsePlanned(body["planned"])
	if !ok {
		writeError(w, http.StatusBadRequest, keyOK, errInvalidPlanned)
		return
	}

	switch err := h.Planning.Upsert(product, planned); {
	case err == nil:
		h.writeMerged(w)
	case errors.Is(err, service.ErrProductRequired):
		writeError(w, http.StatusBadRequest, keyOK, errProductRequired)
	case errors.Is(err, service.ErrInvalidPlanned):
		writeError(w, http.StatusBadRequest, keyOK, errInvalidPlanned)
	default:
		h.Logger.Error("upsert planned override", "product", product, "err", err)
		writeError(w, http.StatusInternalServerError, keyOK, errSaveOverride)
	}
}

func (h PlannedHandler) remove(w http.ResponseWriter, r *http.Request) {
	product := chi.URLParam(r, "product")
	if r.URL.RawPath != "" {
		if decoded, err := url.PathUnescape(product); err == nil {
			product = decoded
		}
	}

	if _, err := h.Planning.Remove(product); err != nil {
		h.Logger.Error("remove planned override", "product", product, "err", err)
		writeError(w, http.StatusInternalServerError, keyOK, errSaveOverride)
		return
	}
	h.writeMerged(w)
}

func (h PlannedHandler) products(w http.ResponseWriter, r *http.Request) {
	writeOK(w, map[string]any{"products": h.Planning.ProductList()})
}

func (h PlannedHandler) setActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := decodeBody(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, keyOK, errProductRequired)
			return
		}
		name, _ := body["productName"].(string)
		switch err := h.Planning.SetActive(name, active); {
		case err == nil:
			writeOK(w, nil)
		case errors.Is(err, service.ErrProductRequired):
			writeError(w, http.StatusBadRequest, keyOK, errProductRequired)
		default:
			h.Logger.Error("set product active", "product", name, "active", active, "err", err)
			writeError(w, http.StatusInternalServerError, keyOK, errSaveStatus)
		}
	}
}
