package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"TradeMind/internal/domain/models"
	drepo "TradeMind/internal/domain/repository"
	"TradeMind/pkg/logger"
)

// Stream implements a MarketStream over the futures WebSocket feed. It
// subscribes to the 1m kline, partial depth and mark price channels of one
// symbol and translates the frames into MarketEvents. Kline frames are only
// emitted once the candle is closed; the in-flight candle is forwarded too
// so the store can refresh the live bar.
type Stream struct {
	websocketURL   string
	symbol         string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	logger         *logger.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	subID     int
}

func NewStream(websocketURL, symbol string, reconnectDelay, pingInterval time.Duration, lgr *logger.Logger) drepo.MarketStream {
	return &Stream{
		websocketURL:   websocketURL,
		symbol:         strings.ToLower(symbol),
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		logger:         lgr,
	}
}

// Connect establishes the WebSocket connection.
func (s *Stream) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.websocketURL, nil)
	if err != nil {
		return fmt.Errorf("exchange connect: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.mu.Unlock()

	s.logger.Info("exchange stream connected", logger.String("url", s.websocketURL))
	return nil
}

// Subscribe joins the kline, depth and mark price channels.
func (s *Stream) Subscribe(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil || !s.connected {
		return fmt.Errorf("exchange stream not connected")
	}

	s.subID++
	msg := map[string]interface{}{
		"method": "SUBSCRIBE",
		"params": []string{
			s.symbol + "@kline_1m",
			s.symbol + "@depth20@500ms",
			s.symbol + "@markPrice@1s",
		},
		"id": s.subID,
	}
	if err := s.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("subscribe %s: %w", s.symbol, err)
	}

	s.logger.Info("exchange channels subscribed", logger.String("symbol", s.symbol))
	return nil
}

type wsKline struct {
	OpenTime int64  `json:"t"`
	Open     string `json:"o"`
	High     string `json:"h"`
	Low      string `json:"l"`
	Close    string `json:"c"`
	Volume   string `json:"v"`
	Closed   bool   `json:"x"`
}

type wsFrame struct {
	Event string  `json:"e"`
	Kline wsKline `json:"k"`

	// depth frame
	Bids [][]string `json:"b"`
	Asks [][]string `json:"a"`

	// mark price frame
	MarkPrice   string `json:"p"`
	FundingRate string `json:"r"`
}

// Read streams market events and errors until ctx is cancelled or the
// connection breaks. The caller reconnects; Read never does.
func (s *Stream) Read(ctx context.Context) (<-chan drepo.MarketEvent, <-chan error) {
	events := make(chan drepo.MarketEvent, 1024)
	errs := make(chan error, 1)

	// keepalive
	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.mu.Lock()
				if s.conn != nil && s.connected {
					_ = s.conn.WriteMessage(websocket.PingMessage, nil)
				}
				s.mu.Unlock()
			}
		}
	}()

	go func() {
		defer close(events)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			s.mu.Lock()
			conn := s.conn
			s.mu.Unlock()
			if conn == nil {
				errs <- fmt.Errorf("exchange conn nil")
				return
			}

			_, b, err := conn.ReadMessage()
			if err != nil {
				errs <- fmt.Errorf("exchange read: %w", err)
				return
			}

			ev, ok := s.parseFrame(b)
			if !ok {
				continue
			}
			if !deliver(ctx, events, ev) {
				return
			}
		}
	}()

	return events, errs
}

// deliver forwards one event to the consumer. Candle frames gate the
// trading cycle, so they wait for the consumer rather than drop; depth and
// mark price frames are droppable under backpressure, the next one
// supersedes. Returns false once ctx is cancelled.
func deliver(ctx context.Context, events chan<- drepo.MarketEvent, ev drepo.MarketEvent) bool {
	if ev.Candle != nil {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}
	select {
	case events <- ev:
	default:
	}
	return true
}

func (s *Stream) parseFrame(b []byte) (drepo.MarketEvent, bool) {
	var f wsFrame
	if err := json.Unmarshal(b, &f); err != nil {
		return drepo.MarketEvent{}, false
	}

	switch f.Event {
	case "kline":
		c := models.Candle{
			OpenTime: f.Kline.OpenTime,
			Open:     parseFloat(f.Kline.Open),
			High:     parseFloat(f.Kline.High),
			Low:      parseFloat(f.Kline.Low),
			Close:    parseFloat(f.Kline.Close),
			Volume:   parseFloat(f.Kline.Volume),
		}
		if c.OpenTime == 0 || c.Close <= 0 {
			return drepo.MarketEvent{}, false
		}
		return drepo.MarketEvent{Candle: &c}, true

	case "depthUpdate":
		book := models.BookSnapshot{
			Bids:       parseLevels(f.Bids),
			Asks:       parseLevels(f.Asks),
			CapturedAt: time.Now().UTC(),
		}
		if len(book.Bids) == 0 && len(book.Asks) == 0 {
			return drepo.MarketEvent{}, false
		}
		return drepo.MarketEvent{Book: &book}, true

	case "markPriceUpdate":
		t := drepo.TickerUpdate{
			MarkPrice:   parseFloat(f.MarkPrice),
			FundingRate: parseFloat(f.FundingRate),
		}
		return drepo.MarketEvent{Ticker: &t}, true
	}

	return drepo.MarketEvent{}, false
}

func parseLevels(raw [][]string) []models.BookLevel {
	levels := make([]models.BookLevel, 0, len(raw))
	for _, l := range raw {
		if len(l) < 2 {
			continue
		}
		levels = append(levels, models.BookLevel{
			Price: parseFloat(l[0]),
			Qty:   parseFloat(l[1]),
		})
	}
	return levels
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

// Reconnect closes and re-dials after the configured delay.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.reconnectDelay):
	}

	return s.Connect(ctx)
}

// Close closes the connection.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.connected = false
	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}

// IsConnected reports connection status.
func (s *Stream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}
