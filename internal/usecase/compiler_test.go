package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradeMind/internal/domain/models"
)

func TestCompileReport(t *testing.T) {
	now := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	results := []models.FilterResult{
		{FilterName: "cts", Flag: models.FlagWarn, Score: 0.8, CandleTimestamp: 1700000000000},
		{FilterName: "trend_confirmation", Flag: models.FlagNone, Score: 0.1, CandleTimestamp: 1700000000000},
	}

	report, err := CompileReport("ETHUSDT", results, now)
	require.NoError(t, err)

	assert.Equal(t, "ETHUSDT", report.Symbol)
	assert.Equal(t, int64(1700000000000), report.CandleTimestamp)
	assert.Equal(t, now, report.CompiledAt)
	assert.Equal(t, results, report.Filters)
}

func TestCompileReportIdempotent(t *testing.T) {
	now := time.Now().UTC()
	results := []models.FilterResult{{FilterName: "cts", CandleTimestamp: 42}}

	a, err := CompileReport("ETHUSDT", results, now)
	require.NoError(t, err)
	b, err := CompileReport("ETHUSDT", results, now)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCompileReportCopiesInput(t *testing.T) {
	results := []models.FilterResult{{FilterName: "cts", Score: 0.5}}
	report, err := CompileReport("ETHUSDT", results, time.Now())
	require.NoError(t, err)

	results[0].Score = 0.9
	assert.Equal(t, 0.5, report.Filters[0].Score)
}

func TestCompileReportEmptyResults(t *testing.T) {
	_, err := CompileReport("ETHUSDT", nil, time.Now())
	assert.Error(t, err)
}
