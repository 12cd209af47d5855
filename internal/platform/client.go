package platform

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/yourusername/lab-ranker/internal/ingest"
	"github.com/yourusername/lab-ranker/internal/logger"
	"github.com/yourusername/lab-ranker/internal/market"
	"github.com/yourusername/lab-ranker/internal/metrics"
	"github.com/yourusername/lab-ranker/internal/models"
)

const (
	headerAPIKey    = "X-API-Key"
	headerAPISecret = "X-API-Secret"

	endpointBacktests = "lab_backtests"
	endpointMarkets   = "markets"

	// NoNextPage marks the last page of a paged listing
	NoNextPage = -1

	defaultPageSize = 100
	maxPages        = 10000
)

// ClientConfig configures access to the trading platform API
type ClientConfig struct {
	BaseURL   string
	APIKey    string
	APISecret string
	PageSize  int
	HTTP      HTTPClientConfig
}

// BacktestPage is one page of lab backtest results
type BacktestPage struct {
	Results  []models.RawResult
	NextPage int
}

// Client reads lab backtests and the market list from the trading platform
type Client struct {
	baseURL   string
	apiKey    string
	apiSecret string
	pageSize  int
	http      *RateLimitedHTTPClient
	log       *logger.PlatformLogger
}

// NewClient creates a platform client
func NewClient(cfg ClientConfig, log *logrus.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("platform base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid platform base url: %w", err)
	}
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		pageSize:  pageSize,
		http:      NewRateLimitedHTTPClient(cfg.HTTP, log),
		log:       logger.NewPlatformLogger(log),
	}, nil
}

// Close releases idle connections
func (c *Client) Close() error {
	return c.http.Close()
}

// GetLabBacktests fetches one page of backtest results for a lab.
// Results that carry no lab identifier are tagged with labID. Entries that
// are not objects are returned as nil.
func (c *Client) GetLabBacktests(ctx context.Context, labID string, page, pageSize int) (BacktestPage, error) {
	if pageSize <= 0 {
		pageSize = c.pageSize
	}
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("page_size", strconv.Itoa(pageSize))
	path := fmt.Sprintf("/labs/%s/backtests?%s", url.PathEscape(labID), query.Encode())

	start := time.Now()
	data, err := c.get(ctx, endpointBacktests, path)
	if err != nil {
		return BacktestPage{}, err
	}

	items := data
	next := NoNextPage
	if data.IsObject() {
		items = data.Get("I")
		if np := data.Get("NP"); np.Exists() && np.Int() > int64(page) {
			next = int(np.Int())
		}
	}
	if !items.IsArray() {
		return BacktestPage{}, fmt.Errorf("%w: backtest list is not an array", ErrMalformedEnvelope)
	}

	var results []models.RawResult
	var decodeErr error
	items.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			// kept so the entry still gets a MALFORMED disposition
			results = append(results, nil)
			return true
		}
		raw, err := ingest.Decode([]byte(item.Raw))
		if err != nil {
			decodeErr = err
			return false
		}
		if _, ok := raw["lab_id"]; !ok {
			if _, ok := raw["labId"]; !ok {
				raw["lab_id"] = labID
			}
		}
		results = append(results, raw)
		return true
	})
	if decodeErr != nil {
		return BacktestPage{}, fmt.Errorf("decode lab %s page %d: %w", labID, page, decodeErr)
	}
	if len(results) == 0 {
		next = NoNextPage
	}

	c.log.LogBacktestsFetched(labID, page, len(results), float64(time.Since(start).Milliseconds()))
	return BacktestPage{Results: results, NextPage: next}, nil
}

// GetAllLabBacktests follows pages until the platform reports no next page
func (c *Client) GetAllLabBacktests(ctx context.Context, labID string) ([]models.RawResult, error) {
	var all []models.RawResult
	page := 0
	for i := 0; i < maxPages; i++ {
		result, err := c.GetLabBacktests(ctx, labID, page, c.pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, result.Results...)
		if result.NextPage == NoNextPage {
			return all, nil
		}
		page = result.NextPage
	}
	return nil, fmt.Errorf("lab %s exceeded %d pages", labID, maxPages)
}

// GetMarkets returns the canonical tags of every market the platform lists.
// Entries that cannot be normalized are skipped.
func (c *Client) GetMarkets(ctx context.Context) ([]string, error) {
	data, err := c.get(ctx, endpointMarkets, "/markets")
	if err != nil {
		return nil, err
	}
	if !data.IsArray() {
		return nil, fmt.Errorf("%w: market list is not an array", ErrMalformedEnvelope)
	}

	var tags []string
	data.ForEach(func(_, item gjson.Result) bool {
		raw := item.String()
		if item.IsObject() {
			raw = firstString(item, "market_tag", "marketTag", "tag")
		}
		tag, err := market.Normalize(raw)
		if err != nil {
			c.log.WithField("market", raw).Debug("Skipping unparseable market")
			return true
		}
		tags = append(tags, tag.String())
		return true
	})
	return tags, nil
}

// get performs an authenticated GET and unwraps the {Success, Error, Data} envelope
func (c *Client) get(ctx context.Context, endpoint, path string) (gjson.Result, error) {
	start := time.Now()
	status := "failure"
	defer func() {
		metrics.RecordPlatformRequest(endpoint, status, time.Since(start).Seconds())
	}()

	header := http.Header{}
	if c.apiKey != "" {
		header.Set(headerAPIKey, c.apiKey)
	}
	if c.apiSecret != "" {
		header.Set(headerAPISecret, c.apiSecret)
	}
	header.Set("Accept", "application/json")

	resp, err := c.http.Get(ctx, c.baseURL+path, header)
	if err != nil {
		c.log.LogPlatformError(endpoint, err)
		return gjson.Result{}, fmt.Errorf("platform %s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.LogPlatformError(endpoint, err)
		return gjson.Result{}, fmt.Errorf("read platform %s response: %w", endpoint, err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: gjson.GetBytes(body, "Error").String()}
		c.log.LogPlatformError(endpoint, apiErr)
		return gjson.Result{}, apiErr
	}
	if !gjson.ValidBytes(body) {
		c.log.LogPlatformError(endpoint, ErrMalformedEnvelope)
		return gjson.Result{}, fmt.Errorf("%w: invalid json from %s", ErrMalformedEnvelope, endpoint)
	}

	envelope := gjson.ParseBytes(body)
	if !envelope.Get("Success").Bool() {
		apiErr := &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: envelope.Get("Error").String()}
		c.log.LogPlatformError(endpoint, apiErr)
		return gjson.Result{}, apiErr
	}

	status = "success"
	return envelope.Get("Data"), nil
}

func firstString(item gjson.Result, keys ...string) string {
	for _, key := range keys {
		if v := item.Get(key); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}
