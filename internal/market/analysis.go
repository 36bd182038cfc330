// Package market scores Amazon niches from search results or extension-scraped listings
// and keeps a short feed of recent analyses.
package market

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"radar_backend/internal/calc"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Verdicts and market states
const (
	VerdictHot = "HOT"
	VerdictOK  = "OK"
	VerdictBad = "BAD"

	StatusOpen      = "OPEN"
	StatusContested = "CONTESTED"
	StatusLocked    = "LOCKED"
)

// topN is how many organic results feed an analysis
const topN = 10

// Product is one analyzed listing
type Product struct {
	Position              int     `json:"position"`
	Title                 string  `json:"title"`
	ASIN                  string  `json:"asin"`
	Price                 float64 `json:"price"`
	Reviews               int     `json:"reviews"`
	Rating                float64 `json:"rating"`
	Sales                 int     `json:"sales"`
	EstimatedMonthlySales int     `json:"estimatedMonthlySales"`
	Revenue               float64 `json:"revenue"`
	EstimatedRevenue      float64 `json:"estimatedRevenue"`
	BSR                   int     `json:"bsr"`
	Fees                  string  `json:"fees"`
	LQS                   int     `json:"lqs"`
	Type                  string  `json:"type"`
	IsPrime               bool    `json:"isPrime"`
	IsBestSeller          bool    `json:"isBestSeller"`
	IsAmazonChoice        bool    `json:"isAmazonChoice"`
	Brand                 string  `json:"brand"`
	Thumbnail             string  `json:"thumbnail"`
	Link                  string  `json:"link"`
}

// ScrapedProduct is a listing captured by the extension on an Amazon page
type ScrapedProduct struct {
	Title     string      `json:"title"`
	ASIN      string      `json:"asin"`
	Price     calc.Number `json:"price"`
	BSR       calc.Number `json:"bsr"`
	Category  string      `json:"category"`
	Reviews   calc.Number `json:"reviews"`
	Rating    calc.Number `json:"rating"`
	Brand     string      `json:"brand"`
	Thumbnail string      `json:"thumbnail"`
	Link      string      `json:"link"`
	IsPrime   bool        `json:"isPrime"`
}

// TopSeller summarises the highest-revenue listing
type TopSeller struct {
	Name    string  `json:"name"`
	Brand   string  `json:"brand"`
	Revenue float64 `json:"revenue"`
	Reviews int     `json:"reviews"`
	Price   float64 `json:"price"`
	ASIN    string  `json:"asin"`
}

// Scores are the niche ratings
type Scores struct {
	Demand          int     `json:"demand"`
	Competition     float64 `json:"competition"`
	Dominance       int     `json:"dominance"`
	PLViability     float64 `json:"plViability"`
	PLViabilityText string  `json:"plViabilityText"`
}

// MarketData aggregates the analyzed listings
type MarketData struct {
	TotalRevenue float64 `json:"totalRevenue"`
	TotalSales   int     `json:"totalSales"`
	AvgPrice     float64 `json:"avgPrice"`
	AvgReviews   int     `json:"avgReviews"`
	AvgRating    float64 `json:"avgRating"`
	SellerCount  int     `json:"sellerCount"`
	UniqueBrands int     `json:"uniqueBrands"`
	MarketStatus string  `json:"marketStatus"`
}

// Analysis is the scored result of one niche
type Analysis struct {
	Keyword          string          `json:"keyword"`
	Verdict          string          `json:"verdict"`
	OpportunityScore int             `json:"opportunityScore"`
	DemandScore      int             `json:"demandScore"`
	CompetitionScore float64         `json:"competitionScore"`
	Dominance        int             `json:"dominance"`
	PLViability      float64         `json:"plViability"`
	Scores           Scores          `json:"scores"`
	MarketData       MarketData      `json:"marketData"`
	TopSeller        TopSeller       `json:"topSeller"`
	Products         []Product       `json:"products"`
	Recommendation   string          `json:"recommendation"`
	CalculatedAt     string          `json:"calculatedAt"`
	DataSource       string          `json:"dataSource"`
	SearchInfo       json.RawMessage `json:"searchInfo,omitempty"`
}

var nonNumeric = regexp.MustCompile(`[^0-9.]`)
var nonDigit = regexp.MustCompile(`[^0-9]`)
var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]`)

// ParseOrganic converts the top organic results into products
func ParseOrganic(results []OrganicResult) []Product {
	if len(results) > topN {
		results = results[:topN]
	}
	products := make([]Product, 0, len(results))
	for i, item := range results {
		price := parsePrice(item.Price)
		reviews := parseCount(item.Reviews)
		if reviews == 0 {
			reviews = parseCount(item.RatingsTotal)
		}
		rating := parseFloat(item.Rating)

		sales := fallbackSales
		if reviews > 0 {
			sales = int(math.Floor(float64(reviews) * salesPerReview))
		}
		bsr := 50000 + i*1000
		if sales > 0 {
			bsr = max(100000/sales, 1)
		}

		lqs := 5
		if len(item.Title) > 60 {
			lqs += 2
		}
		if item.Thumbnail != "" && !strings.Contains(item.Thumbnail, "grey-pixel") {
			lqs++
		}
		if rating > 4.0 {
			lqs++
		}
		if reviews > 50 {
			lqs++
		}

		title := item.Title
		if title == "" {
			title = "Unknown Product"
		}
		brand := item.Brand
		if brand == "" {
			brand = BrandFromTitle(item.Title)
		}
		listingType := "AMZ"
		if item.IsPrime {
			listingType = "FBA"
		}
		revenue := float64(sales) * price
		products = append(products, Product{
			Position:              i + 1,
			Title:                 title,
			ASIN:                  item.ASIN,
			Price:                 price,
			Reviews:               reviews,
			Rating:                rating,
			Sales:                 sales,
			EstimatedMonthlySales: sales,
			Revenue:               revenue,
			EstimatedRevenue:      revenue,
			BSR:                   bsr,
			Fees:                  FeeLabel(price),
			LQS:                   lqs,
			Type:                  listingType,
			IsPrime:               item.IsPrime,
			IsBestSeller:          item.IsBestSeller,
			IsAmazonChoice:        item.IsAmazonChoice,
			Brand:                 brand,
			Thumbnail:             item.Thumbnail,
			Link:                  item.Link,
		})
	}
	return products
}

const (
	salesPerReview = 0.15
	fallbackSales  = 50 // Listings without reviews
)

// EnrichScraped turns extension-scraped listings into products, estimating sales from the
// best-seller rank
func EnrichScraped(items []ScrapedProduct) []Product {
	products := make([]Product, 0, len(items))
	for i, item := range items {
		price := item.Price.Or(0)
		bsr := item.BSR.Or(0)
		sales := calc.EstimateMonthlySales(bsr, item.Category)
		revenue := float64(sales) * price
		brand := item.Brand
		if brand == "" {
			brand = BrandFromTitle(item.Title)
		}
		listingType := "AMZ"
		if item.IsPrime {
			listingType = "FBA"
		}
		products = append(products, Product{
			Position:              i + 1,
			Title:                 item.Title,
			ASIN:                  item.ASIN,
			Price:                 price,
			Reviews:               int(item.Reviews.Or(0)),
			Rating:                item.Rating.Or(0),
			Sales:                 sales,
			EstimatedMonthlySales: sales,
			Revenue:               revenue,
			EstimatedRevenue:      revenue,
			BSR:                   int(bsr),
			Fees:                  FeeLabel(price),
			Type:                  listingType,
			IsPrime:               item.IsPrime,
			Brand:                 brand,
			Thumbnail:             item.Thumbnail,
			Link:                  item.Link,
		})
	}
	return products
}

// FBAFee is the fixed fulfilment fee tier for a price
func FBAFee(price float64) float64 {
	switch {
	case price > 50:
		return 9.50
	case price > 25:
		return 6.10
	case price > 15:
		return 4.75
	default:
		return 3.22
	}
}

// FeeLabel renders the estimated referral plus FBA fee
func FeeLabel(price float64) string {
	if price <= 0 {
		return "$0.00"
	}
	return "-$" + strconv.FormatFloat(price*0.15+FBAFee(price), 'f', 2, 64)
}

var genericWords = map[string]bool{"the": true, "a": true, "an": true, "new": true, "pack": true, "set": true, "piece": true}

// BrandFromTitle guesses a brand from the first meaningful word of a title
func BrandFromTitle(title string) string {
	if title == "" {
		return "Unknown"
	}
	words := strings.Split(title, " ")
	if len(words) >= 2 {
		for i := 0; i < min(3, len(words)); i++ {
			if !genericWords[strings.ToLower(words[i])] && len(words[i]) > 1 {
				return nonAlnum.ReplaceAllString(words[i], "")
			}
		}
	}
	if words[0] == "" {
		return "Unknown"
	}
	return words[0]
}

// Score computes every rating over the products and assembles the analysis
func Score(keyword string, products []Product) Analysis {
	var data MarketData
	var sumPrice, sumReviews, sumRating float64
	brands := make(map[string]struct{})
	top := 0
	for i, p := range products {
		data.TotalRevenue += p.EstimatedRevenue
		data.TotalSales += p.EstimatedMonthlySales
		sumPrice += p.Price
		sumReviews += float64(p.Reviews)
		sumRating += p.Rating
		if p.Brand != "" {
			brands[p.Brand] = struct{}{}
		}
		if p.EstimatedRevenue > products[top].EstimatedRevenue {
			top = i
		}
	}

	rawAvgReviews := 0.0
	if n := float64(len(products)); n > 0 {
		data.AvgPrice = round(sumPrice/n, 2)
		rawAvgReviews = sumReviews / n
		data.AvgReviews = int(math.Round(rawAvgReviews))
		data.AvgRating = round(sumRating/n, 1)
	}
	data.SellerCount = len(products)
	data.UniqueBrands = len(brands)

	var seller TopSeller
	if len(products) > 0 {
		p := products[top]
		seller = TopSeller{Name: p.Title, Brand: p.Brand, Revenue: p.EstimatedRevenue, Reviews: p.Reviews, Price: p.Price, ASIN: p.ASIN}
	}

	demand := DemandScore(data.TotalRevenue)
	competition := CompetitionScore(float64(data.AvgReviews))
	dominance := Dominance(seller.Revenue, data.TotalRevenue)
	pl := PLViability(competition, demand, dominance)
	opportunity := OpportunityScore(demand, competition, data.AvgPrice)
	verdict := Verdict(opportunity)
	data.MarketStatus = MarketStatus(dominance)

	if products == nil {
		products = []Product{}
	}
	return Analysis{
		Keyword:          keyword,
		Verdict:          verdict,
		OpportunityScore: opportunity,
		DemandScore:      demand,
		CompetitionScore: competition,
		Dominance:        dominance,
		PLViability:      pl,
		Scores: Scores{
			Demand:          demand,
			Competition:     competition,
			Dominance:       dominance,
			PLViability:     pl,
			PLViabilityText: PLViabilityText(pl),
		},
		MarketData:     data,
		TopSeller:      seller,
		Products:       products,
		Recommendation: Recommendation(verdict),
	}
}

var demandTiers = []struct {
	min   float64
	score int
}{
	{500000, 10},
	{300000, 9},
	{200000, 8},
	{150000, 7},
	{100000, 6},
	{75000, 5},
	{50000, 4},
	{25000, 3},
	{10000, 2},
}

// DemandScore rates total monthly revenue from 1 to 10
func DemandScore(totalRevenue float64) int {
	for _, t := range demandTiers {
		if totalRevenue >= t.min {
			return t.score
		}
	}
	return 1
}

// CompetitionScore is 10 - avgReviews/500, clamped to 0..10 with one decimal
func CompetitionScore(avgReviews float64) float64 {
	return round(clamp(10-avgReviews/500, 0, 10), 1)
}

// Dominance is the top seller's share of revenue in percent
func Dominance(topRevenue, totalRevenue float64) int {
	if totalRevenue == 0 {
		return 0
	}
	return int(math.Round(topRevenue / totalRevenue * 100))
}

// PLViability rates private-label entry from 0 to 10 with one decimal
func PLViability(competition float64, demand, dominance int) float64 {
	domPart := math.Max(0, 10-float64(dominance)/10)
	score := competition*0.4 + float64(demand)*0.3 + domPart*0.3
	return round(clamp(score, 0, 10), 1)
}

// PLViabilityText labels a viability score
func PLViabilityText(score float64) string {
	switch {
	case score >= 7:
		return "Excellent"
	case score >= 5:
		return "Medium"
	default:
		return "Low"
	}
}

// PriceScore favours the 15..50 price band
func PriceScore(avgPrice float64) int {
	switch {
	case avgPrice >= 15 && avgPrice <= 50:
		return 10
	case (avgPrice >= 10 && avgPrice < 15) || (avgPrice > 50 && avgPrice <= 70):
		return 6
	default:
		return 3
	}
}

// OpportunityScore weighs demand, competition and price into a 0..10 integer
func OpportunityScore(demand int, competition, avgPrice float64) int {
	raw := float64(demand)*0.4 + competition*0.4 + float64(PriceScore(avgPrice))*0.2
	return int(math.Round(raw))
}

// Verdict maps an opportunity score to HOT, OK or BAD
func Verdict(opportunity int) string {
	switch {
	case opportunity >= 7:
		return VerdictHot
	case opportunity >= 4:
		return VerdictOK
	default:
		return VerdictBad
	}
}

// MarketStatus classifies a niche by top-seller dominance
func MarketStatus(dominance int) string {
	switch {
	case dominance < 30:
		return StatusOpen
	case dominance < 50:
		return StatusContested
	default:
		return StatusLocked
	}
}

// Recommendation is the human-readable advice for a verdict
func Recommendation(verdict string) string {
	switch verdict {
	case VerdictHot:
		return "This market shows strong potential for new entrants!"
	case VerdictOK:
		return "Proceed with caution, moderate competition detected."
	default:
		return "High barriers to entry, consider alternative niches."
	}
}

// KeywordFromURL extracts the k= search term of an Amazon search URL
func KeywordFromURL(raw string) string {
	i := strings.Index(raw, "?")
	if i < 0 {
		return ""
	}
	for _, pair := range strings.Split(raw[i+1:], "&") {
		key, value, _ := strings.Cut(pair, "=")
		if key != "k" || value == "" {
			continue
		}
		decoded, err := url.QueryUnescape(value)
		if err != nil {
			return strings.ReplaceAll(value, "+", " ")
		}
		return decoded
	}
	return ""
}

func parsePrice(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var obj struct {
		Raw   string          `json:"raw"`
		Value json.RawMessage `json:"value"`
	}
	if raw[0] == '{' && json.Unmarshal(raw, &obj) == nil {
		if v := numericPrefix(nonNumeric.ReplaceAllString(obj.Raw, "")); v > 0 {
			return v
		}
		return parseFloat(obj.Value)
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return numericPrefix(nonNumeric.ReplaceAllString(s, ""))
	}
	return parseFloat(raw)
}

func parseCount(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if json.Unmarshal(raw, &f) == nil {
		return int(f)
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		n, _ := strconv.Atoi(nonDigit.ReplaceAllString(s, ""))
		return n
	}
	return 0
}

func parseFloat(raw json.RawMessage) float64 {
	var n calc.Number
	if len(raw) > 0 {
		_ = n.UnmarshalJSON(raw)
	}
	return n.Or(0)
}

// numericPrefix parses the leading decimal number, so "12.99.5" reads as 12.99
func numericPrefix(s string) float64 {
	end, dot := 0, false
	for end < len(s) {
		if s[end] == '.' {
			if dot {
				break
			}
			dot = true
		}
		end++
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil {
		return 0
	}
	return f
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
