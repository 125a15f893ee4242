package dataprocessing

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"rankdelta/internal/config"
	apperrors "rankdelta/internal/errors"
)

// codeWidth is the fixed width of a normalized stock code.
const codeWidth = 6

// percentFallbackTokens are placeholder values the screener emits for a
// missing percent-change; they normalize to zero instead of failing.
var percentFallbackTokens = map[string]bool{
	"--":   true,
	"nan":  true,
	"None": true,
	"":     true,
}

// Normalizer rewrites a raw snapshot table into the canonical schema:
// columns code/name/pct_change, six-digit zero-padded codes, and float
// percent-change values. Passthrough columns are kept untouched.
type Normalizer struct {
	markers config.MarkerConfig
}

// NewNormalizer creates a normalizer using the given column markers.
func NewNormalizer(markers config.MarkerConfig) *Normalizer {
	return &Normalizer{markers: markers}
}

// Normalize rewrites t in place. It fails with a missing-column error when
// no column matches the code marker or the percent marker; the name marker
// is optional. Column matching is substring-based, first match wins in
// column order. Duplicate codes are kept as-is.
func (n *Normalizer) Normalize(t *Table) error {
	for i, col := range t.Columns {
		t.Columns[i] = stripWhitespace(col)
	}

	codeIdx := findColumn(t.Columns, n.markers.Code, ColCode)
	nameIdx := findColumn(t.Columns, n.markers.Name, ColName)
	pctIdx := findColumn(t.Columns, n.markers.Percent, ColPctChange)

	if codeIdx < 0 || pctIdx < 0 {
		return apperrors.NewMissingColumnError(
			fmt.Sprintf("required columns not found (code marker %q, percent marker %q)",
				n.markers.Code, n.markers.Percent))
	}

	t.Columns[codeIdx] = ColCode
	if nameIdx >= 0 {
		t.Columns[nameIdx] = ColName
	}
	t.Columns[pctIdx] = ColPctChange

	for _, row := range t.Rows {
		if codeIdx < len(row) {
			row[codeIdx] = NormalizeCode(row[codeIdx])
		}
		if pctIdx < len(row) {
			row[pctIdx] = formatPercent(NormalizePercent(row[pctIdx]))
		}
	}
	return nil
}

// findColumn returns the position of the first column containing marker.
// Columns already carrying the canonical name also match, so normalizing an
// already-canonical table is a no-op.
func findColumn(columns []string, marker, canonical string) int {
	if marker == "" && canonical == "" {
		return -1
	}
	for i, col := range columns {
		if col == canonical {
			return i
		}
		if marker != "" && strings.Contains(col, marker) {
			return i
		}
	}
	return -1
}

// NormalizeCode extracts the first run of digits from s and left-pads it
// with zeros to six characters. A value with no digits becomes "000000".
func NormalizeCode(s string) string {
	digits := firstDigitRun(s)
	if len(digits) >= codeWidth {
		return digits
	}
	return strings.Repeat("0", codeWidth-len(digits)) + digits
}

// NormalizePercent parses a percent-change cell. A trailing percent sign is
// stripped, the screener's placeholder tokens map to zero, and any residual
// parse failure coerces to 0.0 rather than failing the run.
func NormalizePercent(s string) float64 {
	v := strings.TrimSpace(s)
	v = strings.TrimSuffix(v, "%")
	if percentFallbackTokens[v] || percentFallbackTokens[strings.ToLower(v)] {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

// parsePercent reads back a value written by formatPercent.
func parsePercent(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func formatPercent(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func firstDigitRun(s string) string {
	start := -1
	for i, r := range s {
		if unicode.IsDigit(r) && r < 128 {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			return s[start:i]
		}
	}
	if start >= 0 {
		return s[start:]
	}
	return ""
}
