package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/folio/internal/domain"
	"github.com/iho/folio/internal/usecase"
)

// Client is an HTTP client for the market-data provider. It implements
// both usecase.PriceSource and usecase.RateSource. A 404 from the provider
// means "no such quote/rate" and maps to the domain unavailable errors; it
// is never treated as a zero price or a 1.0 rate.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a new market-data client.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log.With().Str("component", "marketdata_client").Logger(),
	}
}

type quoteResponse struct {
	Ticker   string          `json:"ticker"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
	Source   string          `json:"source"`
}

// CurrentPrice fetches the current quote for a ticker.
func (c *Client) CurrentPrice(ctx context.Context, ticker string) (usecase.Quote, error) {
	endpoint := fmt.Sprintf("%s/v1/quote?ticker=%s", c.baseURL, url.QueryEscape(ticker))

	var resp quoteResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		if err == errNotFound {
			return usecase.Quote{}, fmt.Errorf("quote %s: %w", ticker, domain.ErrPriceUnavailable)
		}

		c.log.Warn().Err(err).Str("ticker", ticker).Msg("quote lookup failed")

		return usecase.Quote{}, fmt.Errorf("quote %s: %w: %v", ticker, domain.ErrPriceUnavailable, err)
	}

	source := resp.Source
	if source == "" {
		source = "live"
	}

	return usecase.Quote{
		Ticker:   ticker,
		Price:    resp.Price,
		Currency: resp.Currency,
		Source:   source,
	}, nil
}

type rateResponse struct {
	From string          `json:"from"`
	To   string          `json:"to"`
	Rate decimal.Decimal `json:"rate"`
}

// Rate fetches the FX rate for a currency pair as of a date.
func (c *Client) Rate(ctx context.Context, from, to string, asOf time.Time) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/v1/fx?from=%s&to=%s&date=%s",
		c.baseURL,
		url.QueryEscape(from),
		url.QueryEscape(to),
		asOf.Format("2006-01-02"),
	)

	var resp rateResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		if err == errNotFound {
			return decimal.Zero, fmt.Errorf("rate %s/%s: %w", from, to, domain.ErrConversionUnavailable)
		}

		c.log.Warn().Err(err).Str("from", from).Str("to", to).Msg("rate lookup failed")

		return decimal.Zero, fmt.Errorf("rate %s/%s: %w: %v", from, to, domain.ErrConversionUnavailable, err)
	}

	if !resp.Rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("rate %s/%s: non-positive rate from provider: %w", from, to, domain.ErrConversionUnavailable)
	}

	return resp.Rate, nil
}

var errNotFound = fmt.Errorf("not found")

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
