package api

import (
	"net/http" // HTTP status codes

	"radar_backend/internal/market" // Market analysis

	"github.com/gin-gonic/gin" // Gin web framework
)

// AnalyzeMarketHandler scores a niche. It is the endpoint the extension relay calls.
func AnalyzeMarketHandler(svc *market.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req market.AnalyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondEnvelope(c, http.StatusBadRequest, "Invalid request", nil)
			return
		}
		analysis, err := svc.Analyze(c.Request.Context(), req)
		if err != nil {
			respondEnvelopeError(c, err)
			return
		}
		respondEnvelope(c, http.StatusOK, "Market analysis complete", analysis)
	}
}

// SourcingRequest is the sourcing body
type SourcingRequest struct {
	Query string `json:"query"` // Product to source
}

// SourcingHandler looks up supplier offers
func SourcingHandler(svc *market.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SourcingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondEnvelope(c, http.StatusBadRequest, "Invalid request", nil)
			return
		}
		res, err := svc.Sourcing(c.Request.Context(), req.Query)
		if err != nil {
			respondEnvelopeError(c, err)
			return
		}
		respondEnvelope(c, http.StatusOK, "Sourcing found", res)
	}
}

// MarketActivityHandler returns the recent analyses feed
func MarketActivityHandler(svc *market.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := svc.Activity(c.Request.Context())
		if err != nil {
			respondEnvelopeError(c, err)
			return
		}
		respondEnvelope(c, http.StatusOK, "Market activity fetched", gin.H{"activities": items})
	}
}

// MarketStatsHandler returns aggregate figures over the feed
func MarketStatsHandler(svc *market.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := svc.Stats(c.Request.Context())
		if err != nil {
			respondEnvelopeError(c, err)
			return
		}
		respondEnvelope(c, http.StatusOK, "Platform stats fetched", stats)
	}
}
