package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"TradeMind/internal/domain/models"
	pkghttp "TradeMind/pkg/http"
	"TradeMind/pkg/logger"
)

// RESTClient talks to the futures REST API: candle backfill at startup and
// market order submission in live mode. Requests that mutate state are
// signed with the account secret.
type RESTClient struct {
	http    *pkghttp.Client
	baseURL string
	apiKey  string
	secret  string
	logger  *logger.Logger
}

func NewRESTClient(baseURL, apiKey, secret string, timeout time.Duration, lgr *logger.Logger) *RESTClient {
	return &RESTClient{
		http:    pkghttp.NewClient(pkghttp.WithTimeout(timeout)),
		baseURL: baseURL,
		apiKey:  apiKey,
		secret:  secret,
		logger:  lgr,
	}
}

// FetchKlines backfills up to limit closed 1m candles, oldest first.
func (c *RESTClient) FetchKlines(ctx context.Context, symbol string, limit int) ([]models.Candle, error) {
	var raw [][]json.RawMessage
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    c.baseURL + "/fapi/v1/klines",
		QueryParams: map[string][]string{
			"symbol":   {symbol},
			"interval": {"1m"},
			"limit":    {strconv.Itoa(limit)},
		},
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("fetch klines: %w", err)
	}

	candles := make([]models.Candle, 0, len(raw))
	for _, row := range raw {
		// [openTime, open, high, low, close, volume, ...]
		if len(row) < 6 {
			continue
		}
		var openTime int64
		if err := json.Unmarshal(row[0], &openTime); err != nil {
			continue
		}
		candles = append(candles, models.Candle{
			OpenTime: openTime,
			Open:     parseRawFloat(row[1]),
			High:     parseRawFloat(row[2]),
			Low:      parseRawFloat(row[3]),
			Close:    parseRawFloat(row[4]),
			Volume:   parseRawFloat(row[5]),
		})
	}

	c.logger.Info("klines backfilled",
		logger.String("symbol", symbol),
		logger.Int("count", len(candles)))
	return candles, nil
}

// SubmitOrder places a market order. The response body is returned as-is in
// the trade record's order data.
func (c *RESTClient) SubmitOrder(ctx context.Context, intent *models.OrderIntent) (map[string]any, error) {
	side := "BUY"
	if intent.Direction == models.DirectionShort {
		side = "SELL"
	}

	params := url.Values{}
	params.Set("symbol", intent.Symbol)
	params.Set("side", side)
	params.Set("type", "MARKET")
	params.Set("quantity", strconv.FormatFloat(intent.Quantity, 'f', -1, 64))
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	query := params.Encode()
	query += "&signature=" + c.sign(query)

	var orderData map[string]any
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodPost,
		URL:    c.baseURL + "/fapi/v1/order?" + query,
		Headers: map[string]string{
			"X-MBX-APIKEY": c.apiKey,
			"Content-Type": "application/x-www-form-urlencoded",
		},
	}, &orderData)
	if err != nil {
		return nil, fmt.Errorf("submit order: %w", err)
	}

	return orderData, nil
}

func (c *RESTClient) sign(query string) string {
	mac := hmac.New(sha256.New, []byte(c.secret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

func parseRawFloat(raw json.RawMessage) float64 {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return parseFloat(s)
	}
	var f float64
	_ = json.Unmarshal(raw, &f)
	return f
}
