package marketstate

import "TradeMind/internal/domain/models"

// candleRing is a fixed-capacity rolling window of candles. Appending past
// capacity evicts the oldest entry.
type candleRing struct {
	buf   []models.Candle
	head  int // index of oldest
	count int
}

func newCandleRing(capacity int) *candleRing {
	if capacity < 1 {
		capacity = 1
	}
	return &candleRing{buf: make([]models.Candle, capacity)}
}

func (r *candleRing) Len() int { return r.count }

func (r *candleRing) Cap() int { return len(r.buf) }

// Append adds a candle, evicting the oldest when full. A candle with the
// same open time as the newest entry replaces it (intra-bar refresh).
func (r *candleRing) Append(c models.Candle) {
	if r.count > 0 {
		last := (r.head + r.count - 1) % len(r.buf)
		if r.buf[last].OpenTime == c.OpenTime {
			r.buf[last] = c
			return
		}
	}
	if r.count < len(r.buf) {
		r.buf[(r.head+r.count)%len(r.buf)] = c
		r.count++
		return
	}
	r.buf[r.head] = c
	r.head = (r.head + 1) % len(r.buf)
}

// Newest returns the most recent candle.
func (r *candleRing) Newest() (models.Candle, bool) {
	if r.count == 0 {
		return models.Candle{}, false
	}
	return r.buf[(r.head+r.count-1)%len(r.buf)], true
}

// Slice returns a fresh copy ordered oldest to newest.
func (r *candleRing) Slice() []models.Candle {
	out := make([]models.Candle, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}
