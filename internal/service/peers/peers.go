package peers

import (
	"context"
	"fmt"
	"sync"
	"time"

	pkghttp "TradeMind/pkg/http"
	"TradeMind/pkg/logger"
)

// AlertClient pushes cycle outcomes to the companion alerting service.
// Delivery is best effort: a dead peer costs one log line, never a cycle.
type AlertClient struct {
	http   *pkghttp.Client
	url    string
	logger *logger.Logger
}

func NewAlertClient(alertURL string, timeout time.Duration, lgr *logger.Logger) *AlertClient {
	return &AlertClient{
		http:   pkghttp.NewClient(pkghttp.WithTimeout(timeout)),
		url:    alertURL,
		logger: lgr,
	}
}

func (c *AlertClient) Send(ctx context.Context, severity, message string, fields map[string]any) error {
	if c.url == "" {
		return nil
	}
	payload := map[string]any{
		"source":    "trademind",
		"severity":  severity,
		"message":   message,
		"fields":    fields,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodPost,
		URL:    c.url,
		Body:   payload,
	}, nil)
	if err != nil {
		return fmt.Errorf("send alert: %w", err)
	}
	return nil
}

// HealthClient probes the peer services in parallel.
type HealthClient struct {
	http    *pkghttp.Client
	urls    []string
	timeout time.Duration
}

func NewHealthClient(urls []string, timeout time.Duration) *HealthClient {
	return &HealthClient{
		http:    pkghttp.NewClient(pkghttp.WithTimeout(timeout)),
		urls:    urls,
		timeout: timeout,
	}
}

// Check returns one entry per configured peer; nil means reachable.
func (c *HealthClient) Check(ctx context.Context) map[string]error {
	out := make(map[string]error, len(c.urls))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, u := range c.urls {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			err := c.http.SendAndParse(cctx, &pkghttp.RequestOptions{
				Method: pkghttp.MethodGet,
				URL:    u,
			}, nil)

			mu.Lock()
			out[u] = err
			mu.Unlock()
		}(u)
	}
	wg.Wait()

	return out
}
