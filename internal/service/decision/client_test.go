package decision

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradeMind/internal/domain/models"
	"TradeMind/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	lgr, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return lgr
}

func testReport() *models.PreAnalysisReport {
	return &models.PreAnalysisReport{
		Symbol:          "ETHUSDT",
		CandleTimestamp: 1700000000000,
		CompiledAt:      time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC),
		Filters: []models.FilterResult{
			{FilterName: "cts", Flag: models.FlagTrigger, Score: 0.9},
		},
	}
}

func TestClientDecide(t *testing.T) {
	var gotAuth string
	var gotReport models.PreAnalysisReport

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/adjudicate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReport))

		json.NewEncoder(w).Encode(adjudicateResponse{
			Direction:  "LONG",
			Confidence: 0.82,
			Reason:     "compression break with absorption",
			EntryPrice: 2501.5,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret-key", 5*time.Second, testLogger(t))
	v, err := c.Decide(context.Background(), testReport())
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret-key", gotAuth)
	assert.Equal(t, "ETHUSDT", gotReport.Symbol)
	assert.Equal(t, models.DirectionLong, v.Direction)
	assert.Equal(t, 0.82, v.Confidence)
	assert.Equal(t, 2501.5, v.EntryPrice)
}

func TestClientDecideServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", 5*time.Second, testLogger(t))
	_, err := c.Decide(context.Background(), testReport())
	assert.True(t, errors.Is(err, models.ErrDecisionService))
}

func TestClientDecideTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", 5*time.Second, testLogger(t))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Decide(ctx, testReport())
	assert.True(t, errors.Is(err, models.ErrDecisionTimeout))
}

func TestClientBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", 5*time.Second, testLogger(t))
	for i := 0; i < 3; i++ {
		_, err := c.Decide(context.Background(), testReport())
		require.Error(t, err)
	}

	// breaker now sheds the call without reaching the service
	_, err := c.Decide(context.Background(), testReport())
	assert.True(t, errors.Is(err, models.ErrDecisionService))
	assert.Contains(t, err.Error(), "circuit open")
}

func TestToVerdictContract(t *testing.T) {
	c := NewClient("http://localhost:9100", "k", 5*time.Second, testLogger(t))

	t.Run("unknown_direction", func(t *testing.T) {
		_, err := c.toVerdict(&adjudicateResponse{Direction: "BUY", Confidence: 0.8, EntryPrice: 100})
		assert.True(t, errors.Is(err, models.ErrDecisionService))
	})

	t.Run("confidence_out_of_range", func(t *testing.T) {
		_, err := c.toVerdict(&adjudicateResponse{Direction: "LONG", Confidence: 1.2, EntryPrice: 100})
		assert.True(t, errors.Is(err, models.ErrDecisionService))
	})

	t.Run("tradeable_verdict_needs_entry", func(t *testing.T) {
		_, err := c.toVerdict(&adjudicateResponse{Direction: "SHORT", Confidence: 0.8})
		assert.True(t, errors.Is(err, models.ErrDecisionService))
	})

	t.Run("none_without_entry_is_valid", func(t *testing.T) {
		v, err := c.toVerdict(&adjudicateResponse{Direction: "NONE", Confidence: 0.3, Reason: "mixed signals"})
		require.NoError(t, err)
		assert.Equal(t, models.DirectionNone, v.Direction)
		assert.Equal(t, "NONE", v.Decision, "absent verdict label falls back to the direction")
	})

	t.Run("verdict_label_preserved", func(t *testing.T) {
		v, err := c.toVerdict(&adjudicateResponse{Direction: "LONG", Verdict: "Execute", Confidence: 0.8, EntryPrice: 2500})
		require.NoError(t, err)
		assert.Equal(t, "Execute", v.Decision)
	})
}
