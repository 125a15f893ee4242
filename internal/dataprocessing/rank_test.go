package dataprocessing

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "rankdelta/internal/errors"
)

func TestRank_OrderAndDensity(t *testing.T) {
	table := &Table{
		Columns: []string{ColCode, ColPctChange},
		Rows: [][]string{
			{"000001", "5"},
			{"000022", "10"},
			{"000333", "-2"},
		},
	}

	require.NoError(t, Rank(table, ColRank))

	rankIdx := table.ColumnIndex(ColRank)
	require.GreaterOrEqual(t, rankIdx, 0)

	// Ranks are exactly {1..N}, each once, in row order.
	seen := make(map[int]bool)
	prev := 0.0
	for i, row := range table.Rows {
		rank, err := strconv.Atoi(row[rankIdx])
		require.NoError(t, err)
		assert.Equal(t, i+1, rank)
		assert.False(t, seen[rank])
		seen[rank] = true

		pct, err := strconv.ParseFloat(row[table.ColumnIndex(ColPctChange)], 64)
		require.NoError(t, err)
		if i > 0 {
			assert.LessOrEqual(t, pct, prev, "pct_change must be non-increasing by rank")
		}
		prev = pct
	}
	assert.Len(t, seen, 3)

	// Highest percent change gets rank 1.
	assert.Equal(t, "000022", table.Rows[0][0])
}

func TestRank_TiesKeepInputOrder(t *testing.T) {
	table := &Table{
		Columns: []string{ColCode, ColPctChange},
		Rows: [][]string{
			{"000001", "5"},
			{"000002", "5"},
			{"000003", "9"},
			{"000004", "5"},
		},
	}

	require.NoError(t, Rank(table, ColRank))

	codes := table.Column(ColCode)
	assert.Equal(t, []string{"000003", "000001", "000002", "000004"}, codes)
}

func TestRank_MissingPctColumn(t *testing.T) {
	table := &Table{Columns: []string{ColCode}}
	err := Rank(table, ColRank)
	require.Error(t, err)
	assert.True(t, apperrors.IsMissingColumn(err))
}

func TestRank_ShortRowsTreatedAsZero(t *testing.T) {
	table := &Table{
		Columns: []string{ColCode, ColPctChange},
		Rows: [][]string{
			{"000001"}, // missing pct cell
			{"000002", "3"},
		},
	}

	require.NoError(t, Rank(table, ColRank))
	assert.Equal(t, []string{"000002", "000001"}, table.Column(ColCode))
	// Padded row carries its rank.
	assert.Equal(t, "2", table.Rows[1][table.ColumnIndex(ColRank)])
}
