// Package ingest reads the planned-quantity spreadsheet. The sheet has two
// columns in unknown order and no header row; the column roles are guessed
// from a sample of the first rows.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// scanRows bounds the sample used for column-role detection.
const scanRows = 30

// Columns maps the two spreadsheet columns to their roles.
type Columns struct {
	Product int
	Planned int
}

// DefaultColumns is used whenever detection is ambiguous.
var DefaultColumns = Columns{Product: 1, Planned: 0}

// Tally counts string-like and numeric-looking cells per column in the sample.
type Tally struct {
	Col0Strings int
	Col0Numbers int
	Col1Strings int
	Col1Numbers int
	RowsScanned int
}

type PreviewRow struct {
	Product string  `json:"product"`
	Planned *string `json:"planned"`
}

// Report describes how the spreadsheet was read. It backs /api/planned/debug.
type Report struct {
	Path       string
	FileExists bool
	SheetName  string
	Columns    Columns
	Tally      Tally
	Preview    []PreviewRow
	RowCount   int
	LoadError  string
}

// Result is the outcome of Load. Planned is never nil.
type Result struct {
	Planned map[string]float64
	Report  Report
}

// Load reads the spreadsheet at path and sums planned quantities per product.
// Failures never abort: they leave Planned empty and set Report.LoadError.
func Load(path string, logger *slog.Logger) (res Result) {
	res = Result{
		Planned: map[string]float64{},
		Report:  Report{Path: path, Columns: DefaultColumns},
	}
	logger.Info("planned spreadsheet path resolved", "path", path)

	defer func() {
		if r := recover(); r != nil {
			res.Planned = map[string]float64{}
			res.Report.LoadError = fmt.Sprintf("parse %s: %v", path, r)
			logger.Error("planned spreadsheet parse panic", "path", path, "err", r)
		}
	}()

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			res.Report.LoadError = fmt.Sprintf("spreadsheet not found at %s", path)
		} else {
			res.Report.LoadError = fmt.Sprintf("stat %s: %v", path, err)
		}
		logger.Warn("planned spreadsheet unavailable", "err", res.Report.LoadError)
		return res
	}
	res.Report.FileExists = true

	rows, sheet, err := ReadRows(path)
	if err != nil {
		res.Report.LoadError = err.Error()
		logger.Error("planned spreadsheet read failed", "path", path, "err", err)
		return res
	}
	res.Report.SheetName = sheet
	res.Report.RowCount = len(rows)

	cols, tally := DetectColumns(rows)
	res.Report.Columns = cols
	res.Report.Tally = tally
	res.Report.Preview = preview(rows, cols, 5)
	logger.Info("planned spreadsheet columns detected",
		"sheet", sheet,
		"rows", len(rows),
		"productCol", cols.Product,
		"plannedCol", cols.Planned,
		"scanned", tally.RowsScanned,
		"col0", fmt.Sprintf("%ds/%dn", tally.Col0Strings, tally.Col0Numbers),
		"col1", fmt.Sprintf("%ds/%dn", tally.Col1Strings, tally.Col1Numbers),
	)

	res.Planned = Aggregate(rows, cols)
	logger.Info("planned quantities loaded", "products", len(res.Planned))
	return res
}

// ReadRows returns every row of the first sheet as raw strings. CSV files are
// read as a single sheet named after the file.
func ReadRows(path string) ([][]string, string, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return readCSV(path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, "", fmt.Errorf("workbook %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, "", fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, sheets[0], nil
}

func readCSV(path string) ([][]string, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, "", fmt.Errorf("read csv %s: %w", path, err)
	}
	return records, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), nil
}

// DetectColumns decides which column holds product names by sampling up to
// the first 30 rows. Only rows with at least two cells are tallied.
func DetectColumns(rows [][]string) (Columns, Tally) {
	var t Tally
	for i := 0; i < len(rows) && i < scanRows; i++ {
		row := rows[i]
		if len(row) < 2 {
			continue
		}
		switch classify(row[0]) {
		case cellNumber:
			t.Col0Numbers++
		case cellString:
			t.Col0Strings++
		}
		switch classify(row[1]) {
		case cellNumber:
			t.Col1Numbers++
		case cellString:
			t.Col1Strings++
		}
		t.RowsScanned++
	}

	switch {
	case t.Col1Strings > t.Col0Strings && t.Col0Numbers > t.Col1Numbers:
		return Columns{Product: 1, Planned: 0}, t
	case t.Col0Strings > t.Col1Strings && t.Col1Numbers > t.Col0Numbers:
		return Columns{Product: 0, Planned: 1}, t
	default:
		return DefaultColumns, t
	}
}

// Aggregate sums planned quantities per exact (trimmed) product name over all
// rows. A blank planned cell counts as 0. Rows with an empty product, a
// missing planned cell or non-numeric planned text are skipped.
func Aggregate(rows [][]string, cols Columns) map[string]float64 {
	return aggregate(rows, cols, strings.TrimSpace)
}

func aggregate(rows [][]string, cols Columns, key func(string) string) map[string]float64 {
	sums := make(map[string]decimal.Decimal)
	for _, row := range rows {
		product := key(cell(row, cols.Product))
		if product == "" {
			continue
		}
		qty, ok := plannedQty(row, cols.Planned)
		if !ok {
			continue
		}
		sums[product] = sums[product].Add(qty)
	}

	out := make(map[string]float64, len(sums))
	for product, sum := range sums {
		out[product] = sum.InexactFloat64()
	}
	return out
}

func plannedQty(row []string, idx int) (decimal.Decimal, bool) {
	if idx < 0 || idx >= len(row) {
		return decimal.Zero, false
	}
	s := strings.TrimSpace(row[idx])
	if s == "" {
		return decimal.Zero, true
	}
	qty, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return qty, true
}

type cellKind int

const (
	cellEmpty cellKind = iota
	cellString
	cellNumber
)

// classify treats a cell as numeric only when its text is already the
// canonical form of the number it parses to ("12" yes, "12.0" or "1e3" no).
// A zero cell counts as blank and lands in neither tally.
func classify(raw string) cellKind {
	s := strings.TrimSpace(raw)
	if s == "" {
		return cellEmpty
	}
	d, err := decimal.NewFromString(s)
	if err == nil && d.String() == s {
		if d.IsZero() {
			return cellEmpty
		}
		return cellNumber
	}
	return cellString
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func preview(rows [][]string, cols Columns, n int) []PreviewRow {
	if len(rows) < n {
		n = len(rows)
	}
	out := make([]PreviewRow, 0, n)
	for _, row := range rows[:n] {
		p := PreviewRow{Product: strings.TrimSpace(cell(row, cols.Product))}
		if cols.Planned < len(row) {
			v := row[cols.Planned]
			p.Planned = &v
		}
		out = append(out, p)
	}
	return out
}
