package decision

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"TradeMind/internal/domain/models"
	pkghttp "TradeMind/pkg/http"
	"TradeMind/pkg/logger"
)

// adjudicateResponse is the raw wire shape of a verdict. The optional
// verdict field carries the service's own decision label; absent, the
// direction stands in for it.
type adjudicateResponse struct {
	Direction  string  `json:"direction"`
	Verdict    string  `json:"verdict"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
	EntryPrice float64 `json:"entry_price"`
}

// Client calls the external adjudication service. One call per cycle under
// the caller's deadline; a circuit breaker sheds calls while the service is
// failing so a flapping adjudicator cannot stall every cycle for the full
// timeout.
type Client struct {
	http    *pkghttp.Client
	breaker *gobreaker.CircuitBreaker
	url     string
	apiKey  string
	logger  *logger.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, lgr *logger.Logger) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "decision-service",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			lgr.Warn("decision breaker state change",
				logger.String("from", from.String()),
				logger.String("to", to.String()))
		},
	})

	return &Client{
		http:    pkghttp.NewClient(pkghttp.WithTimeout(timeout)),
		breaker: cb,
		url:     strings.TrimRight(baseURL, "/") + "/adjudicate",
		apiKey:  apiKey,
		logger:  lgr,
	}
}

// Decide submits the report and returns the parsed verdict. Timeouts map to
// models.ErrDecisionTimeout, everything else (transport faults, non-2xx,
// malformed payloads, open breaker) to models.ErrDecisionService. The
// client never retries; a failed cycle stays failed.
func (c *Client) Decide(ctx context.Context, report *models.PreAnalysisReport) (*models.Verdict, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		var resp adjudicateResponse
		err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
			Method: pkghttp.MethodPost,
			URL:    c.url,
			Headers: map[string]string{
				"Authorization": "Bearer " + c.apiKey,
				"Content-Type":  "application/json",
			},
			Body: report,
		}, &resp)
		if err != nil {
			return nil, err
		}
		return &resp, nil
	})

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: %v", models.ErrDecisionTimeout, err)
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open", models.ErrDecisionService)
		}
		return nil, fmt.Errorf("%w: %v", models.ErrDecisionService, err)
	}

	resp := out.(*adjudicateResponse)
	return c.toVerdict(resp)
}

// toVerdict validates the wire payload. Anything out of contract is a
// service error, never a tradeable verdict.
func (c *Client) toVerdict(resp *adjudicateResponse) (*models.Verdict, error) {
	dir, ok := models.ParseDirection(resp.Direction)
	if !ok {
		return nil, fmt.Errorf("%w: unknown direction %q", models.ErrDecisionService, resp.Direction)
	}
	if resp.Confidence < 0 || resp.Confidence > 1 {
		return nil, fmt.Errorf("%w: confidence %f out of range", models.ErrDecisionService, resp.Confidence)
	}
	if dir != models.DirectionNone && resp.EntryPrice <= 0 {
		return nil, fmt.Errorf("%w: missing entry price for %s verdict", models.ErrDecisionService, dir)
	}

	decision := resp.Verdict
	if decision == "" {
		decision = string(dir)
	}

	return &models.Verdict{
		Direction:  dir,
		Decision:   decision,
		Confidence: resp.Confidence,
		Reason:     resp.Reason,
		EntryPrice: resp.EntryPrice,
	}, nil
}
