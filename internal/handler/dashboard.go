package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/MelParker66/flowerama-vd2026/internal/domain"
	"github.com/MelParker66/flowerama-vd2026/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"
)

// DashboardHandler serves progress against plan. The dashboard and summary
// routes are the same computation under two names.
type DashboardHandler struct {
	Summary service.SummaryService
	Logger  *slog.Logger
}

func (h DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/dashboard", h.summary)
	r.Get("/api/summary", h.summary)
	r.Get("/api/dashboard/export", h.export)
}

func (h DashboardHandler) summary(w http.ResponseWriter, r *http.Request) {
	s := h.Summary.Summary()
	writeOK(w, map[string]any{
		"totals":    s.Totals,
		"byProduct": s.ByProduct,
	})
}

func (h DashboardHandler) export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	rows := sortedProducts(h.Summary.Summary())
	filenameSuffix := time.Now().Format("20060102_150405")

	switch format {
	case "csv":
		data, err := exportDashboardCSV(rows)
		if err != nil {
			h.Logger.Error("export dashboard csv", "err", err)
			writeErrorWithErr(w, http.StatusInternalServerError, keyOK, "export failed", err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"dashboard_%s.csv\"", filenameSuffix))
		_, _ = w.Write(data)
	case "xlsx", "excel":
		data, err := exportDashboardXLSX(rows)
		if err != nil {
			h.Logger.Error("export dashboard xlsx", "err", err)
			writeErrorWithErr(w, http.StatusInternalServerError, keyOK, "export failed", err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"dashboard_%s.xlsx\"", filenameSuffix))
		_, _ = w.Write(data)
	default:
		writeError(w, http.StatusBadRequest, keyOK, "invalid format (use csv or xlsx)")
	}
}

func sortedProducts(s domain.Summary) []domain.ProductSummary {
	rows := make([]domain.ProductSummary, 0, len(s.ByProduct))
	for _, p := range s.ByProduct {
		rows = append(rows, p)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Product < rows[j].Product })
	return rows
}

var exportHeader = []string{"Product", "Date Modified", "Planned", "Produced", "Sent to Shop", "Sold", "Net", "Ahead/Behind", "Status", "Progress"}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func exportDashboardCSV(rows []domain.ProductSummary) ([]byte, error) {
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	_ = w.Write(exportHeader)
	for _, p := range rows {
		_ = w.Write([]string{
			p.Product,
			p.DateModified,
			formatFloat(p.Planned),
			strconv.Itoa(p.Produced),
			strconv.Itoa(p.SentToShop),
			strconv.Itoa(p.Sold),
			strconv.Itoa(p.Net),
			formatFloat(p.AheadBehind),
			p.Status,
			p.ProgressStatus,
		})
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func exportDashboardXLSX(rows []domain.ProductSummary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Dashboard"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	_ = f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	for c, v := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		_ = f.SetCellValue(sheet, cell, v)
	}
	for r, p := range rows {
		values := []any{p.Product, p.DateModified, p.Planned, p.Produced, p.SentToShop, p.Sold, p.Net, p.AheadBehind, p.Status, p.ProgressStatus}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 32)
	_ = f.SetColWidth(sheet, "B", "B", 14)
	_ = f.SetColWidth(sheet, "C", "H", 12)
	_ = f.SetColWidth(sheet, "I", "J", 20)

	style, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#F9A8D4"}, Pattern: 1},
	})
	_ = f.SetCellStyle(sheet, "A1", "J1", style)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
