package marketstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradeMind/internal/domain/models"
	"TradeMind/internal/domain/repository"
)

func candle(openTime int64, close float64) models.Candle {
	return models.Candle{
		OpenTime: openTime,
		Open:     close - 1,
		High:     close + 1,
		Low:      close - 2,
		Close:    close,
		Volume:   100,
	}
}

func TestStoreAppendAndRefresh(t *testing.T) {
	s := New("ETHUSDT", 10)

	s.Apply(repository.MarketEvent{Candle: ptr(candle(1000, 50))})
	s.Apply(repository.MarketEvent{Candle: ptr(candle(2000, 51))})
	require.Equal(t, 2, s.CandleCount())
	assert.Equal(t, int64(2000), s.LastCandleTime())

	// same open time refreshes the live bar in place
	s.Apply(repository.MarketEvent{Candle: ptr(candle(2000, 55))})
	assert.Equal(t, 2, s.CandleCount())

	snap := s.Snapshot()
	last, ok := snap.LastCandle()
	require.True(t, ok)
	assert.Equal(t, 55.0, last.Close)
}

func TestStoreEvictsOldest(t *testing.T) {
	s := New("ETHUSDT", 3)
	for i := int64(1); i <= 5; i++ {
		s.Apply(repository.MarketEvent{Candle: ptr(candle(i*1000, float64(i)))})
	}

	assert.Equal(t, 3, s.CandleCount())
	snap := s.Snapshot()
	require.Len(t, snap.Candles, 3)
	assert.Equal(t, int64(3000), snap.Candles[0].OpenTime)
	assert.Equal(t, int64(5000), snap.Candles[2].OpenTime)
}

func TestStoreSnapshotIsolation(t *testing.T) {
	s := New("ETHUSDT", 10)
	s.Apply(repository.MarketEvent{Candle: ptr(candle(1000, 50))})
	s.Apply(repository.MarketEvent{Book: &models.BookSnapshot{
		Bids: []models.BookLevel{{Price: 49.9, Qty: 10}},
		Asks: []models.BookLevel{{Price: 50.1, Qty: 12}},
	}})

	snap := s.Snapshot()
	snap.Candles[0].Close = 0
	snap.Book.Bids[0].Qty = 0

	again := s.Snapshot()
	assert.Equal(t, 50.0, again.Candles[0].Close)
	assert.Equal(t, 10.0, again.Book.Bids[0].Qty)
}

func TestStoreMarkPriceFallback(t *testing.T) {
	s := New("ETHUSDT", 10)
	s.Apply(repository.MarketEvent{Candle: ptr(candle(1000, 50))})

	// no ticker yet, mark falls back to the newest close
	assert.Equal(t, 50.0, s.Snapshot().MarkPrice)

	s.Apply(repository.MarketEvent{Ticker: &repository.TickerUpdate{MarkPrice: 51.5, FundingRate: 0.0001}})
	snap := s.Snapshot()
	assert.Equal(t, 51.5, snap.MarkPrice)
	assert.Equal(t, 0.0001, snap.FundingRate)
}

func TestStoreBackfill(t *testing.T) {
	s := New("ETHUSDT", 100)
	var seed []models.Candle
	for i := int64(1); i <= 20; i++ {
		seed = append(seed, candle(i*60000, float64(i)))
	}
	s.Backfill(seed)

	assert.Equal(t, 20, s.CandleCount())
	assert.Equal(t, int64(20*60000), s.LastCandleTime())
	assert.Equal(t, "ETHUSDT", s.Symbol())
}

func ptr(c models.Candle) *models.Candle { return &c }
