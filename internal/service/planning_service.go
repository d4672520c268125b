package service

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/MelParker66/flowerama-vd2026/internal/domain"
	"github.com/MelParker66/flowerama-vd2026/internal/ingest"
	"github.com/MelParker66/flowerama-vd2026/internal/repository"
)

var (
	ErrProductRequired = errors.New("product name is required")
	ErrInvalidPlanned  = errors.New("planned quantity must be a valid number")
)

// PlanningService reconciles spreadsheet planned quantities with manual
// overrides. The spreadsheet map is fixed after startup; overrides change
// through Upsert, SetActive and Remove, each of which saves the store.
type PlanningService struct {
	base      map[string]float64
	report    ingest.Report
	overrides *repository.OverrideStore
	logger    *slog.Logger

	// serializes mutate-and-save so saves never interleave
	mu sync.Mutex
}

func NewPlanningService(sheet ingest.Result, overrides *repository.OverrideStore, logger *slog.Logger) *PlanningService {
	base := make(map[string]float64, len(sheet.Planned))
	for k, v := range sheet.Planned {
		base[k] = v
	}
	return &PlanningService{
		base:      base,
		report:    sheet.Report,
		overrides: overrides,
		logger:    logger,
	}
}

// Report returns how the spreadsheet was ingested.
func (s *PlanningService) Report() ingest.Report {
	return s.report
}

// Merged returns planned quantity per product: spreadsheet values overlaid
// by overrides. Unless includeInactive is set, products whose override is
// inactive are left out entirely, including spreadsheet-only values.
func (s *PlanningService) Merged(includeInactive bool) map[string]float64 {
	overrides := s.overrides.Snapshot()

	merged := make(map[string]float64, len(s.base)+len(overrides))
	for product, planned := range s.base {
		merged[product] = planned
	}
	for product, o := range overrides {
		if !includeInactive && !o.Active {
			delete(merged, product)
			continue
		}
		merged[product] = o.Planned
	}
	return merged
}

// AllProducts returns every known product with its resolved plan. An
// override replaces the spreadsheet record for the same product.
func (s *PlanningService) AllProducts() map[string]domain.PlannedEntry {
	overrides := s.overrides.Snapshot()
	out := make(map[string]domain.PlannedEntry, len(s.base)+len(overrides))
	for product, planned := range s.base {
		out[product] = domain.PlannedEntry{Planned: planned, Active: true}
	}
	for product, o := range overrides {
		out[product] = o
	}
	return out
}

// ProductRow is one line of the product list.
type ProductRow struct {
	Product string  `json:"product"`
	Planned float64 `json:"planned"`
	Active  bool    `json:"active"`
}

// ProductList returns AllProducts sorted by name.
func (s *PlanningService) ProductList() []ProductRow {
	all := s.AllProducts()
	out := make([]ProductRow, 0, len(all))
	for product, e := range all {
		out = append(out, ProductRow{Product: product, Planned: e.Planned, Active: e.Active})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Product < out[j].Product })
	return out
}

// Upsert sets the planned quantity override for a product, creating the
// product if it is new. An existing active flag is kept.
func (s *PlanningService) Upsert(product string, planned float64) error {
	product = strings.TrimSpace(product)
	if product == "" {
		return ErrProductRequired
	}
	if math.IsNaN(planned) || math.IsInf(planned, 0) {
		return ErrInvalidPlanned
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := domain.PlannedEntry{Planned: planned, Active: true}
	if existing, ok := s.overrides.Get(product); ok {
		entry.Active = existing.Active
	}
	s.overrides.Put(product, entry)
	return s.save()
}

// SetActive flags a product active or inactive. The product's current
// planned quantity (override, else spreadsheet, else 0) is written into the
// override so the quantity survives a deactivate/reactivate cycle.
func (s *PlanningService) SetActive(product string, active bool) error {
	product = strings.TrimSpace(product)
	if product == "" {
		return ErrProductRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	planned := s.base[product]
	if existing, ok := s.overrides.Get(product); ok {
		planned = existing.Planned
	}
	s.overrides.Put(product, domain.PlannedEntry{Planned: planned, Active: active})
	s.logger.Info("product status changed", "product", product, "active", active, "planned", planned)
	return s.save()
}

// Remove deletes a product's override, if any. Removing twice is a no-op.
func (s *PlanningService) Remove(product string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.overrides.Delete(product) {
		return false, nil
	}
	return true, s.save()
}

// save persists the store. The in-memory change is kept even on failure.
func (s *PlanningService) save() error {
	if err := s.overrides.Save(); err != nil {
		return fmt.Errorf("save overrides: %w", err)
	}
	return nil
}
