package debt

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nf(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}

func TestStoredRateCellsFeedResolver(t *testing.T) {
	rt := NewTable(storedRateColumns)
	rt.AddRow(storedRateCells(day(2026, 1, 1), nf(50), nf(4000), nf(0.9)))
	rt.AddRow(storedRateCells(day(2026, 1, 5), nf(55), sql.NullFloat64{}, nf(0.92)))

	rates := BuildRateTable(rt)
	require.Equal(t, 2, rates.Len())

	// exact date, per-currency columns
	v := rates.Resolve(day(2026, 1, 1), "VES")
	require.NotNil(t, v)
	assert.Equal(t, "50", v.String())
	v = rates.Resolve(day(2026, 1, 1), "COP")
	require.NotNil(t, v)
	assert.Equal(t, "4000", v.String())

	// prior-date fallback past the newest entry
	v = rates.Resolve(day(2026, 1, 9), "EUR")
	require.NotNil(t, v)
	assert.Equal(t, "0.92", v.String())

	// SQL NULL on the closest prior date is a miss
	assert.Nil(t, rates.Resolve(day(2026, 1, 5), "COP"))
}

func TestStoredRateCellsNullMapping(t *testing.T) {
	cells := storedRateCells(day(2026, 2, 1), nf(51.25), sql.NullFloat64{}, sql.NullFloat64{})
	require.Len(t, cells, 4)
	assert.Equal(t, day(2026, 2, 1), cells[0])
	assert.Equal(t, 51.25, cells[1])
	assert.Nil(t, cells[2])
	assert.Nil(t, cells[3])
}

func TestLoadStoredRatesWithoutDB(t *testing.T) {
	_, err := LoadStoredRates(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate store")
}
