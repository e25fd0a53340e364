// Package pricing supplies current prices to the tax calculator. Lookups here
// are external collaborators: the core only consumes tax.PriceLookup.
package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tax-harvest-go/internal/config"
	"tax-harvest-go/internal/models"
	"tax-harvest-go/internal/tax"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	maxRetries = 3
	// invalidSymbolCode is returned by the exchange for an unlisted pair.
	invalidSymbolCode = -1121
)

// APIError is a non-retryable error response from the ticker API.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       int    `json:"code"`
	Message    string `json:"msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ticker API returned %d (code %d): %s", e.StatusCode, e.Code, e.Message)
}

// TickerPrice represents the response for a single ticker price.
type TickerPrice struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// TickerClient is a rate-limited REST client for an exchange ticker endpoint.
// It prices crypto holdings quoted in QuoteAsset and reports every other
// category as unpriced.
type TickerClient struct {
	client  *resty.Client
	quote   string
	logger  *zap.Logger
	limiter *rate.Limiter
	backoff func(attempt int) time.Duration
}

var _ tax.PriceLookup = (*TickerClient)(nil)

// NewTickerClient creates a new TickerClient.
func NewTickerClient(cfg config.Pricing, logger *zap.Logger) *TickerClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second)

	// rate.Limit is requests per second.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &TickerClient{
		client:  client,
		quote:   strings.ToUpper(cfg.QuoteAsset),
		logger:  logger.Named("pricing"),
		limiter: limiter,
		backoff: exponentialBackoff,
	}
}

// exponentialBackoff waits 1s, 2s, 4s.
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * time.Second
}

// Pair maps a holding symbol to the exchange pair, e.g. BTC -> BTCUSDT.
func (c *TickerClient) Pair(symbol string) string { return pairFor(symbol, c.quote) }

func pairFor(symbol, quote string) string {
	symbol = strings.ToUpper(symbol)
	if quote == "" || strings.HasSuffix(symbol, quote) {
		return symbol
	}
	return symbol + quote
}

// CurrentPrice implements tax.PriceLookup.
func (c *TickerClient) CurrentPrice(ctx context.Context, symbol string, category models.AssetCategory) (decimal.Decimal, bool, error) {
	if category != models.CategoryCrypto {
		return decimal.Zero, false, nil
	}

	price, err := c.TickerPrice(ctx, c.Pair(symbol))
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code == invalidSymbolCode {
		c.logger.Debug("Symbol not listed", zap.String("symbol", symbol))
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	return price, true, nil
}

// TickerPrice fetches the latest price of one pair.
func (c *TickerClient) TickerPrice(ctx context.Context, pair string) (decimal.Decimal, error) {
	req := c.client.R().
		SetQueryParam("symbol", pair).
		SetResult(&TickerPrice{})

	resp, err := c.doRequest(ctx, http.MethodGet, "/ticker/price", req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get ticker price for %s: %w", pair, err)
	}

	result := resp.Result().(*TickerPrice)
	price, err := decimal.NewFromString(result.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("malformed price %q for %s: %w", result.Price, pair, err)
	}
	return price, nil
}

// AllTickerPrices fetches the latest price for all pairs.
func (c *TickerClient) AllTickerPrices(ctx context.Context) (map[string]decimal.Decimal, error) {
	var prices []TickerPrice
	req := c.client.R().SetResult(&prices)

	if _, err := c.doRequest(ctx, http.MethodGet, "/ticker/price", req); err != nil {
		return nil, fmt.Errorf("failed to get all ticker prices: %w", err)
	}

	out := make(map[string]decimal.Decimal, len(prices))
	for _, p := range prices {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			c.logger.Warn("Skipping malformed ticker price", zap.String("symbol", p.Symbol), zap.String("price", p.Price))
			continue
		}
		out[p.Symbol] = price
	}
	return out, nil
}

// Snapshot fetches every listed price in one request and returns a lookup
// over them, for refreshing many holdings without a request per symbol.
func (c *TickerClient) Snapshot(ctx context.Context) (*Snapshot, error) {
	prices, err := c.AllTickerPrices(ctx)
	if err != nil {
		return nil, err
	}
	return &Snapshot{quote: c.quote, prices: prices}, nil
}

// Snapshot is a point-in-time copy of the ticker's prices, keyed by pair.
type Snapshot struct {
	quote  string
	prices map[string]decimal.Decimal
}

var _ tax.PriceLookup = (*Snapshot)(nil)

// CurrentPrice implements tax.PriceLookup for crypto holdings.
func (s *Snapshot) CurrentPrice(_ context.Context, symbol string, category models.AssetCategory) (decimal.Decimal, bool, error) {
	if category != models.CategoryCrypto {
		return decimal.Zero, false, nil
	}
	p, ok := s.prices[pairFor(symbol, s.quote)]
	return p, ok, nil
}

// doRequest handles the actual request execution with rate limiting and retry logic.
func (c *TickerClient) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error

	for i := 0; i < maxRetries; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+url))
		resp, err = req.SetContext(ctx).Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil
		}

		var retryAfter time.Duration

		if err != nil {
			// Network or other client-side errors are retried unless the caller gave up.
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
		} else {
			statusCode := resp.StatusCode()
			switch {
			case statusCode == http.StatusTooManyRequests || statusCode == http.StatusTeapot:
				if seconds, convErr := strconv.Atoi(resp.Header().Get("Retry-After")); convErr == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			case statusCode >= http.StatusInternalServerError:
			default:
				return nil, decodeAPIError(resp)
			}
			err = fmt.Errorf("request failed with status %s", resp.Status())
		}

		if retryAfter == 0 {
			retryAfter = c.backoff(i)
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}

func decodeAPIError(resp *resty.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode()}
	if json.Unmarshal(resp.Body(), apiErr) != nil || apiErr.Message == "" {
		apiErr.Message = resp.String()
	}
	return apiErr
}
