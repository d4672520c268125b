package ingest

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	spaceRun     = regexp.MustCompile(`\s+`)
	spacedHyphen = regexp.MustCompile(`\s*-\s*`)
	hyphenRun    = regexp.MustCompile(`-+`)
	separatorRun = regexp.MustCompile(`[\s\-/()&]+`)
	withSlash    = regexp.MustCompile(`\bW/`)
)

// Size and unit abbreviations kept upper-case.
var upperTokens = map[string]bool{
	"SM": true, "MD": true, "LG": true, "XL": true, "DX": true,
	"S": true, "M": true, "L": true, "DZ": true,
}

// NormalizeProductName cleans a spreadsheet product name into Title Case.
// The live server never calls it; it backs the normalize-planned command.
func NormalizeProductName(name string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return ""
	}
	n = spaceRun.ReplaceAllString(n, " ")
	n = spacedHyphen.ReplaceAllString(n, "-")
	n = hyphenRun.ReplaceAllString(n, "-")

	var b strings.Builder
	last := 0
	for _, loc := range separatorRun.FindAllStringIndex(n, -1) {
		b.WriteString(titleWord(n[last:loc[0]]))
		b.WriteString(n[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(titleWord(n[last:]))

	return withSlash.ReplaceAllString(b.String(), "w/")
}

func titleWord(w string) string {
	if w == "" {
		return ""
	}
	if up := strings.ToUpper(w); upperTokens[up] {
		return up
	}
	r, size := utf8.DecodeRuneInString(w)
	return string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
}

// NormalizedPlanned reads rows with fixed roles (column A planned, column B
// product), normalizes names, and sums duplicates that normalize alike.
func NormalizedPlanned(rows [][]string) map[string]float64 {
	return aggregate(rows, Columns{Product: 1, Planned: 0}, NormalizeProductName)
}
