package dataprocessing

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	apperrors "rankdelta/internal/errors"
)

// ColRank is the column appended by Rank and consumed by Merge.
const ColRank = "rank"

// ColDelta holds the rank movement between the two snapshots.
const ColDelta = "delta"

// dateLabelPattern matches the 8-digit date token embedded in snapshot
// file names, e.g. "zxg20240115.csv".
var dateLabelPattern = regexp.MustCompile(`20\d{6}`)

// ExtractDateLabel returns the first 8-digit date token found in path, or
// fallback when the path carries none.
func ExtractDateLabel(path, fallback string) string {
	if m := dateLabelPattern.FindString(path); m != "" {
		return m
	}
	return fallback
}

// RangeColumns returns the inclusive, order-preserving slice of t's columns
// between start and end. When either bound is absent the slice is empty;
// when end precedes start the bounds are swapped.
func RangeColumns(t *Table, start, end string) []string {
	startIdx := t.ColumnIndex(start)
	endIdx := t.ColumnIndex(end)
	if startIdx < 0 || endIdx < 0 {
		return nil
	}
	if endIdx < startIdx {
		startIdx, endIdx = endIdx, startIdx
	}
	cols := make([]string, 0, endIdx-startIdx+1)
	cols = append(cols, t.Columns[startIdx:endIdx+1]...)
	return cols
}

// Merge inner-joins two ranked snapshots on code. Codes present in only one
// snapshot are dropped; only codes in both are comparable. The merged table
// carries code, name, the date-labeled percent and rank columns of both
// days, delta = day1 rank - day2 rank (positive means the rank improved),
// and the day2-labeled extra range columns, sorted by delta descending.
func Merge(day1, day2 *Table, day1Label, day2Label string, rangeCols []string) (*Table, error) {
	d1, err := joinIndices(day1, "day1")
	if err != nil {
		return nil, err
	}
	d2, err := joinIndices(day2, "day2")
	if err != nil {
		return nil, err
	}

	columns := []string{
		ColCode,
		ColName,
		day1Label + "_pct",
		day1Label + "_rank",
		day2Label + "_pct",
		day2Label + "_rank",
		ColDelta,
	}
	rangeIdx := make([]int, len(rangeCols))
	for i, col := range rangeCols {
		columns = append(columns, day2Label+"_"+col)
		rangeIdx[i] = day2.ColumnIndex(col)
	}
	merged := NewTable(columns)

	// Index day2 rows by code, preserving row order. A code duplicated in
	// an input joins once per matching pair.
	byCode := make(map[string][]int, day2.Len())
	for i, row := range day2.Rows {
		code := day2.Cell(row, d2.code)
		byCode[code] = append(byCode[code], i)
	}

	deltas := make([]int, 0, day1.Len())
	for _, row1 := range day1.Rows {
		code := day1.Cell(row1, d1.code)
		for _, i := range byCode[code] {
			row2 := day2.Rows[i]

			name := ""
			if d1.name >= 0 {
				name = day1.Cell(row1, d1.name)
			}
			if name == "" && d2.name >= 0 {
				name = day2.Cell(row2, d2.name)
			}

			rank1 := parseRank(day1.Cell(row1, d1.rank))
			rank2 := parseRank(day2.Cell(row2, d2.rank))

			out := []string{
				code,
				name,
				day1.Cell(row1, d1.pct),
				strconv.Itoa(rank1),
				day2.Cell(row2, d2.pct),
				strconv.Itoa(rank2),
				strconv.Itoa(rank1 - rank2),
			}
			for _, idx := range rangeIdx {
				out = append(out, day2.Cell(row2, idx))
			}
			merged.AppendRow(out)
			deltas = append(deltas, rank1-rank2)
		}
	}

	// Biggest rank improvement first; stable, so ties keep join order.
	order := make([]int, merged.Len())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return deltas[order[a]] > deltas[order[b]]
	})
	sorted := make([][]string, merged.Len())
	for i, idx := range order {
		sorted[i] = merged.Rows[idx]
	}
	merged.Rows = sorted

	return merged, nil
}

// joinColumns holds the column positions Merge needs from one snapshot.
type joinColumns struct {
	code, name, pct, rank int
}

func joinIndices(t *Table, side string) (joinColumns, error) {
	cols := joinColumns{
		code: t.ColumnIndex(ColCode),
		name: t.ColumnIndex(ColName),
		pct:  t.ColumnIndex(ColPctChange),
		rank: t.ColumnIndex(ColRank),
	}
	if cols.code < 0 || cols.pct < 0 || cols.rank < 0 {
		return cols, apperrors.NewMissingColumnError(
			fmt.Sprintf("%s snapshot is missing a merge column (need %s, %s and %s)",
				side, ColCode, ColPctChange, ColRank))
	}
	return cols, nil
}

func parseRank(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
