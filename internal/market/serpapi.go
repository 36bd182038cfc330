package market

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"radar_backend/internal/domain"
	"radar_backend/internal/utils"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"
)

// ErrNotConfigured is returned when no SerpApi key is set
var ErrNotConfigured = &domain.Error{Kind: domain.ErrTransport, Msg: "Market analysis service is not configured"}

// maxBody caps how much of an upstream response is read
const maxBody = 4 << 20

// Client queries SerpApi through a circuit breaker
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// NewClient creates a SerpApi client. timeout bounds each request.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		breaker: utils.NewBreaker("serpapi", 5, 30*time.Second),
	}
}

// Configured reports whether an API key is present
func (c *Client) Configured() bool { return c.apiKey != "" }

// OrganicResult is one Amazon search hit. Several fields come back with varying JSON
// types and are decoded leniently.
type OrganicResult struct {
	Title          string          `json:"title"`
	ASIN           string          `json:"asin"`
	Price          json.RawMessage `json:"price"`
	Reviews        json.RawMessage `json:"reviews"`
	RatingsTotal   json.RawMessage `json:"ratings_total"`
	Rating         json.RawMessage `json:"rating"`
	Brand          string          `json:"brand"`
	Thumbnail      string          `json:"thumbnail"`
	Link           string          `json:"link"`
	IsPrime        bool            `json:"is_prime"`
	IsBestSeller   bool            `json:"is_best_seller"`
	IsAmazonChoice bool            `json:"is_amazon_choice"`
}

// AmazonSearch is the subset of the amazon engine response the analyzer reads
type AmazonSearch struct {
	OrganicResults    []OrganicResult `json:"organic_results"`
	SearchInformation json.RawMessage `json:"search_information"`
	Error             json.RawMessage `json:"error"`
}

// ShoppingResult is one Google Shopping offer
type ShoppingResult struct {
	Source         string          `json:"source"`
	Price          string          `json:"price"`
	ExtractedPrice json.RawMessage `json:"extracted_price"`
	Delivery       json.RawMessage `json:"delivery"`
	Rating         json.RawMessage `json:"rating"`
	Link           string          `json:"link"`
	Thumbnail      string          `json:"thumbnail"`
}

// ShoppingSearch is the subset of the google_shopping engine response used for sourcing
type ShoppingSearch struct {
	ShoppingResults []ShoppingResult `json:"shopping_results"`
	Error           json.RawMessage  `json:"error"`
}

// SearchAmazon runs a keyword search on amazon.com
func (c *Client) SearchAmazon(ctx context.Context, keyword string) (*AmazonSearch, error) {
	params := url.Values{}
	params.Set("engine", "amazon")
	params.Set("amazon_domain", "amazon.com")
	params.Set("k", keyword)

	var out AmazonSearch
	if err := c.search(ctx, params, &out); err != nil {
		return nil, err
	}
	if msg := providerError(out.Error); msg != "" {
		return nil, upstreamError(fmt.Errorf("provider error: %s", msg))
	}
	return &out, nil
}

// SearchShopping runs a Google Shopping query for sourcing offers
func (c *Client) SearchShopping(ctx context.Context, query string) (*ShoppingSearch, error) {
	params := url.Values{}
	params.Set("engine", "google_shopping")
	params.Set("q", query)
	params.Set("google_domain", "google.com")
	params.Set("gl", "us")
	params.Set("hl", "en")

	var out ShoppingSearch
	if err := c.search(ctx, params, &out); err != nil {
		return nil, err
	}
	if msg := providerError(out.Error); msg != "" {
		return nil, upstreamError(fmt.Errorf("provider error: %s", msg))
	}
	return &out, nil
}

func (c *Client) search(ctx context.Context, params url.Values, dest any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	params.Set("api_key", c.apiKey)
	endpoint := c.baseURL + "?" + params.Encode()

	body, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("upstream status %d", resp.StatusCode)
		}
		return b, nil
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"engine":   params.Get("engine"),
			"rejected": utils.IsBreakerRejection(err),
			"error":    err.Error(),
		}).Error("Market data request failed")
		return upstreamError(err)
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return upstreamError(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// providerError extracts SerpApi's error field, which is usually a string but not always
func providerError(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func upstreamError(err error) error {
	return fmt.Errorf("%w: %w", &domain.Error{Kind: domain.ErrTransport, Msg: "Failed to fetch market data"}, err)
}
