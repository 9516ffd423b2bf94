package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradeMind/internal/domain/models"
)

func newStoreMock(t *testing.T) (*ClickHouseMemoryStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &ClickHouseMemoryStore{db: db, retentionDays: 30}, mock
}

func TestInitCreatesVerdictSchema(t *testing.T) {
	store, mock := newStoreMock(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS mt_filters").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS mt_verdicts \( module_timestamp (.+) direction String, entry_price Float64, verdict String, confidence Float64, reason String \)`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS mt_trades").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Init(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveVerdictWritesDecisionLabel(t *testing.T) {
	store, mock := newStoreMock(t)
	now := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO mt_verdicts").
		WithArgs(now, int64(1000), "LONG", 2500.0, "Execute", 0.9, "breakout confirmed").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.SaveVerdict(context.Background(), &models.Verdict{
		Direction:       models.DirectionLong,
		Decision:        "Execute",
		Confidence:      0.9,
		Reason:          "breakout confirmed",
		EntryPrice:      2500,
		ModuleTimestamp: now,
		CandleTimestamp: 1000,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveVerdictFailureRowCarriesNoneLabel(t *testing.T) {
	store, mock := newStoreMock(t)
	now := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO mt_verdicts").
		WithArgs(now, int64(1000), "NONE", 0.0, "NONE", 0.0, "decision_timeout").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.SaveVerdict(context.Background(), &models.Verdict{
		Direction:       models.DirectionNone,
		Reason:          "decision_timeout",
		ModuleTimestamp: now,
		CandleTimestamp: 1000,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentVerdictsScansDecisionLabel(t *testing.T) {
	store, mock := newStoreMock(t)
	now := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{
		"module_timestamp", "candle_timestamp", "direction",
		"entry_price", "verdict", "confidence", "reason",
	}).
		AddRow(now, int64(1000), "NONE", 0.0, "NONE", 0.0, "decision_service_error").
		AddRow(now.Add(-time.Minute), int64(940), "SHORT", 2510.0, "Execute", 0.8, "rejection wick")

	mock.ExpectQuery("SELECT (.+) FROM mt_verdicts").
		WithArgs(20).
		WillReturnRows(rows)

	out, err := store.RecentVerdicts(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, models.DirectionNone, out[0].Direction)
	assert.Equal(t, "NONE", out[0].Decision)
	assert.Equal(t, "decision_service_error", out[0].Reason)

	assert.Equal(t, models.DirectionShort, out[1].Direction)
	assert.Equal(t, "Execute", out[1].Decision)
	assert.Equal(t, 2510.0, out[1].EntryPrice)

	assert.NoError(t, mock.ExpectationsWereMet())
}
