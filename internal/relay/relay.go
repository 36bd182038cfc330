// Package relay forwards extension requests to the backend API and turns every outcome,
// including transport failures, into a {success, ...} reply.
package relay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"radar_backend/internal/utils"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"
)

// Actions understood by the relay
const (
	ActionAnalyzeProducts = "ANALYZE_PRODUCTS"
	ActionFindSourcing    = "FIND_SOURCING"
)

// Reply errors
const (
	ErrConnectionFailed = "connection failed"
	ErrUnknownAction    = "unknown action"
	ErrInvalidMessage   = "invalid message"
	ErrReplyTooLarge    = "reply too large"
)

// maxReplyBody caps how much of a backend response is buffered
const maxReplyBody = 8 << 20

// Message is a request from the extension
type Message struct {
	Action    string          `json:"action"`
	URL       string          `json:"url,omitempty"`
	Keyword   string          `json:"keyword,omitempty"`
	Products  json.RawMessage `json:"products,omitempty"`
	Query     string          `json:"query,omitempty"`
	RequestID json.RawMessage `json:"requestId,omitempty"`
}

// Reply is the JSON object sent back to the extension
type Reply map[string]any

func failure(msg string) Reply {
	return Reply{"success": false, "error": msg}
}

// Relay proxies extension actions to the backend
type Relay struct {
	backend string
	timeout time.Duration
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// New creates a Relay for the backend API rooted at backendURL
func New(backendURL string, timeout time.Duration) *Relay {
	return &Relay{
		backend: strings.TrimRight(backendURL, "/"),
		timeout: timeout,
		http:    &http.Client{},
		breaker: utils.NewBreaker("relay-backend", 5, 30*time.Second),
	}
}

// Handle serves one message. It never fails; every error becomes a failure reply.
func (r *Relay) Handle(ctx context.Context, msg Message) Reply {
	switch msg.Action {
	case ActionAnalyzeProducts:
		return r.analyze(ctx, msg)
	case ActionFindSourcing:
		return r.sourcing(ctx, msg)
	default:
		logrus.WithField("action", msg.Action).Debug("Unknown relay action")
		return failure(ErrUnknownAction)
	}
}

type analyzeRequest struct {
	URL      string          `json:"url,omitempty"`
	Keyword  string          `json:"keyword,omitempty"`
	Products json.RawMessage `json:"products,omitempty"`
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
	Data    struct {
		Products json.RawMessage `json:"products"`
	} `json:"data"`
}

func (r *Relay) analyze(ctx context.Context, msg Message) Reply {
	body, err := r.post(ctx, "/market/analyze", analyzeRequest{URL: msg.URL, Keyword: msg.Keyword, Products: msg.Products})
	if err != nil {
		return r.transportFailure(msg.Action, err)
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return r.transportFailure(msg.Action, fmt.Errorf("decode reply: %w", err))
	}
	if !env.Success {
		return failure(backendMessage(env))
	}
	products := env.Data.Products
	if len(products) == 0 || string(products) == "null" {
		products = json.RawMessage("[]")
	}
	return Reply{"success": true, "data": products}
}

func (r *Relay) sourcing(ctx context.Context, msg Message) Reply {
	body, err := r.post(ctx, "/market/sourcing", map[string]string{"query": msg.Query})
	if err != nil {
		return r.transportFailure(msg.Action, err)
	}
	var verbatim map[string]json.RawMessage
	if err := json.Unmarshal(body, &verbatim); err != nil {
		return r.transportFailure(msg.Action, fmt.Errorf("decode reply: %w", err))
	}
	if verbatim == nil {
		return r.transportFailure(msg.Action, errors.New("empty reply"))
	}
	reply := make(Reply, len(verbatim))
	for k, v := range verbatim {
		reply[k] = v
	}
	return reply
}

// post sends a JSON request through the breaker and returns the raw response body.
// Only network-level failures count against the breaker; HTTP error statuses carry a
// backend envelope and are relayed.
func (r *Relay) post(ctx context.Context, path string, payload any) ([]byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return r.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.backend+path, bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := r.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		return io.ReadAll(io.LimitReader(resp.Body, maxReplyBody))
	})
}

func (r *Relay) transportFailure(action string, err error) Reply {
	logrus.WithFields(logrus.Fields{
		"action":   action,
		"rejected": utils.IsBreakerRejection(err),
		"error":    err.Error(),
	}).Warn("Backend request failed")
	return failure(ErrConnectionFailed)
}

// backendMessage picks the human-readable failure from a backend envelope
func backendMessage(env envelope) string {
	if env.Message != "" {
		return env.Message
	}
	var s string
	if json.Unmarshal(env.Error, &s) == nil && s != "" {
		return s
	}
	return "request failed"
}
