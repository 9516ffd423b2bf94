package marketstate

import (
	"sync"

	"TradeMind/internal/domain/models"
	"TradeMind/internal/domain/repository"
)

// Store is the single source of truth for one evaluation cycle: a bounded
// rolling candle window, the latest depth snapshot and auxiliary ticker
// data. Writers swap whole values under the lock; Snapshot hands filters an
// immutable copy, so a refresh never exposes a half-updated window.
type Store struct {
	mu sync.RWMutex

	symbol  string
	candles *candleRing
	book    models.BookSnapshot
	mark    float64
	funding float64
	volume  float64
}

// New creates a Store with the given candle window capacity.
func New(symbol string, windowMax int) *Store {
	return &Store{
		symbol:  symbol,
		candles: newCandleRing(windowMax),
	}
}

// Apply folds one stream event into the store.
func (s *Store) Apply(ev repository.MarketEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case ev.Candle != nil:
		s.candles.Append(*ev.Candle)
		s.volume = ev.Candle.Volume
	case ev.Book != nil:
		// replaced wholesale, never partially mutated
		s.book = *ev.Book
	case ev.Ticker != nil:
		if ev.Ticker.MarkPrice > 0 {
			s.mark = ev.Ticker.MarkPrice
		}
		s.funding = ev.Ticker.FundingRate
		if ev.Ticker.Volume > 0 {
			s.volume = ev.Ticker.Volume
		}
	}
}

// Backfill seeds the candle window, oldest first.
func (s *Store) Backfill(candles []models.Candle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range candles {
		s.candles.Append(c)
	}
}

// Snapshot returns an immutable copy of the current market state. Exactly
// one snapshot is taken per evaluation cycle and shared by all filters.
func (s *Store) Snapshot() models.MarketState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	book := models.BookSnapshot{
		Bids:       append([]models.BookLevel(nil), s.book.Bids...),
		Asks:       append([]models.BookLevel(nil), s.book.Asks...),
		CapturedAt: s.book.CapturedAt,
	}
	mark := s.mark
	if mark == 0 {
		if c, ok := s.candles.Newest(); ok {
			mark = c.Close
		}
	}
	return models.MarketState{
		Symbol:      s.symbol,
		Candles:     s.candles.Slice(),
		Book:        book,
		MarkPrice:   mark,
		FundingRate: s.funding,
		Volume:      s.volume,
	}
}

// Symbol returns the instrument this store tracks.
func (s *Store) Symbol() string { return s.symbol }

// CandleCount returns the number of candles currently in the window.
func (s *Store) CandleCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.candles.Len()
}

// LastCandleTime returns the open time of the newest candle, or 0.
func (s *Store) LastCandleTime() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.candles.Newest(); ok {
		return c.OpenTime
	}
	return 0
}
