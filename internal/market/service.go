package market

import (
	"context"
	"strings"
	"time"

	"radar_backend/internal/domain"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

var analysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "radar_market_analyses_total",
	Help: "Market analyses by data source and verdict",
}, []string{"source", "verdict"})

// Data sources reported with each analysis
const (
	SourceSerpApi   = "SerpApi Amazon"
	SourceExtension = "Extension"
)

// Searcher is the upstream market data provider
type Searcher interface {
	SearchAmazon(ctx context.Context, keyword string) (*AmazonSearch, error)
	SearchShopping(ctx context.Context, query string) (*ShoppingSearch, error)
}

// Errors returned by the service
var (
	ErrNoSearchTerm = &domain.Error{Kind: domain.ErrValidation, Msg: "Please provide a keyword, URL, or ASIN"}
	ErrMissingQuery = &domain.Error{Kind: domain.ErrValidation, Msg: "Missing query"}
	ErrNoProducts   = &domain.Error{Kind: domain.ErrNotFound, Msg: "No products found for this search term"}
)

const sourcingResultCap = 10

// Service runs analyses and sourcing lookups
type Service struct {
	search Searcher
	feed   *ActivityFeed
	now    func() time.Time
}

// NewService creates a Service
func NewService(search Searcher, feed *ActivityFeed) *Service {
	return &Service{search: search, feed: feed, now: time.Now}
}

// AnalyzeRequest is the analysis input. Products, when present, are scored directly.
type AnalyzeRequest struct {
	URL      string           `json:"url"`
	Keyword  string           `json:"keyword"`
	ASIN     string           `json:"asin"`
	Products []ScrapedProduct `json:"products"`
}

// Analyze scores a niche from scraped products or from an upstream keyword search
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (*Analysis, error) {
	term := strings.TrimSpace(req.Keyword)
	if term == "" && req.URL != "" {
		term = KeywordFromURL(req.URL)
	}

	var analysis Analysis
	if len(req.Products) > 0 {
		analysis = Score(term, EnrichScraped(req.Products))
		analysis.DataSource = SourceExtension
	} else {
		asin := strings.TrimSpace(req.ASIN)
		if term == "" && asin == "" {
			return nil, ErrNoSearchTerm
		}
		query := term
		if query == "" {
			query = asin
		}
		res, err := s.search.SearchAmazon(ctx, query)
		if err != nil {
			return nil, err
		}
		products := ParseOrganic(res.OrganicResults)
		if len(products) == 0 {
			return nil, ErrNoProducts
		}
		analysis = Score(term, products)
		analysis.DataSource = SourceSerpApi
		analysis.SearchInfo = res.SearchInformation
	}

	now := s.now()
	analysis.CalculatedAt = now.UTC().Format(time.RFC3339)
	if err := s.feed.Record(ctx, analysis, now); err != nil {
		logrus.WithError(err).Warn("Failed to record market activity")
	}
	analysesTotal.WithLabelValues(analysis.DataSource, analysis.Verdict).Inc()
	logrus.WithFields(logrus.Fields{
		"keyword": analysis.Keyword,
		"verdict": analysis.Verdict,
		"score":   analysis.OpportunityScore,
		"source":  analysis.DataSource,
	}).Info("Market analysis complete")
	return &analysis, nil
}

// SourcingOffer is one supplier listing
type SourcingOffer struct {
	Source         string          `json:"source"`
	Price          string          `json:"price"`
	ExtractedPrice json.RawMessage `json:"extracted_price"`
	Delivery       json.RawMessage `json:"delivery"`
	Rating         json.RawMessage `json:"rating"`
	Link           string          `json:"link"`
	Thumbnail      string          `json:"thumbnail"`
}

// Sourcing is the sourcing lookup result
type Sourcing struct {
	ShoppingResults []SourcingOffer `json:"shopping_results"`
}

// Sourcing looks up supplier offers for a product query
func (s *Service) Sourcing(ctx context.Context, query string) (*Sourcing, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrMissingQuery
	}
	res, err := s.search.SearchShopping(ctx, query)
	if err != nil {
		return nil, err
	}
	items := res.ShoppingResults
	if len(items) > sourcingResultCap {
		items = items[:sourcingResultCap]
	}
	out := &Sourcing{ShoppingResults: make([]SourcingOffer, 0, len(items))}
	for _, item := range items {
		out.ShoppingResults = append(out.ShoppingResults, SourcingOffer{
			Source:         item.Source,
			Price:          item.Price,
			ExtractedPrice: item.ExtractedPrice,
			Delivery:       item.Delivery,
			Rating:         item.Rating,
			Link:           item.Link,
			Thumbnail:      item.Thumbnail,
		})
	}
	logrus.WithFields(logrus.Fields{
		"query":   query,
		"results": len(out.ShoppingResults),
	}).Info("Sourcing lookup complete")
	return out, nil
}

// Activity returns the recent analyses feed
func (s *Service) Activity(ctx context.Context) ([]Activity, error) {
	items, err := s.feed.List(ctx)
	if err != nil {
		return nil, domain.Internal(err)
	}
	return items, nil
}

// Stats returns aggregate figures over the feed
func (s *Service) Stats(ctx context.Context) (*PlatformStats, error) {
	stats, err := s.feed.Stats(ctx, s.now())
	if err != nil {
		return nil, domain.Internal(err)
	}
	return stats, nil
}
