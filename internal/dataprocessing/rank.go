package dataprocessing

import (
	"sort"
	"strconv"

	apperrors "rankdelta/internal/errors"
)

// Rank sorts t by pct_change descending and appends rankCol holding the
// dense 1..N rank. The sort is stable, so ties keep their input row order;
// rank assignment is therefore deterministic given a deterministic upstream
// row order.
func Rank(t *Table, rankCol string) error {
	pctIdx := t.ColumnIndex(ColPctChange)
	if pctIdx < 0 {
		return apperrors.NewMissingColumnError("cannot rank: pct_change column not found")
	}

	sort.SliceStable(t.Rows, func(i, j int) bool {
		return parsePercent(t.Cell(t.Rows[i], pctIdx)) > parsePercent(t.Cell(t.Rows[j], pctIdx))
	})

	t.Columns = append(t.Columns, rankCol)
	rankIdx := len(t.Columns) - 1
	for i, row := range t.Rows {
		padded := make([]string, rankIdx+1)
		copy(padded, row)
		padded[rankIdx] = strconv.Itoa(i + 1)
		t.Rows[i] = padded
	}
	return nil
}
