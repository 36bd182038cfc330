package market

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const (
	activityKey = "market:activity"
	activityCap = 50
)

// Activity is one entry of the live analysis feed
type Activity struct {
	ID        int64  `json:"id"`
	Keyword   string `json:"keyword"`
	Verdict   string `json:"verdict"`
	Revenue   string `json:"revenue"`
	Dominance int    `json:"dominance"`
	Timestamp string `json:"timestamp"`
	User      string `json:"user"`
}

// PlatformStats summarises the feed
type PlatformStats struct {
	TotalScans     int      `json:"totalScans"`
	HotMarkets     int      `json:"hotMarkets"`
	AvgDominance   int      `json:"avgDominance"`
	RecentSearches []string `json:"recentSearches"`
	UpdatedAt      string   `json:"updatedAt"`
}

// ActivityFeed keeps the most recent analyses in a capped Redis list, newest first
type ActivityFeed struct {
	rdb *redis.Client
}

// NewActivityFeed creates a feed. A nil client yields an always-empty feed.
func NewActivityFeed(rdb *redis.Client) *ActivityFeed {
	return &ActivityFeed{rdb: rdb}
}

// Record pushes an analysis onto the feed
func (f *ActivityFeed) Record(ctx context.Context, a Analysis, now time.Time) error {
	if f.rdb == nil {
		return nil
	}
	entry := Activity{
		ID:        now.UnixMilli(),
		Keyword:   a.Keyword,
		Verdict:   a.Verdict,
		Revenue:   "$" + strconv.FormatFloat(math.Round(a.MarketData.TotalRevenue/1000), 'f', 0, 64) + "K",
		Dominance: a.Dominance,
		Timestamp: now.UTC().Format(time.RFC3339),
		User:      "Anonymous",
	}
	b, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	pipe := f.rdb.TxPipeline()
	pipe.LPush(ctx, activityKey, b)
	pipe.LTrim(ctx, activityKey, 0, activityCap-1)
	_, err = pipe.Exec(ctx)
	return err
}

// List returns the feed, newest first. Undecodable entries are skipped.
func (f *ActivityFeed) List(ctx context.Context) ([]Activity, error) {
	out := []Activity{}
	if f.rdb == nil {
		return out, nil
	}
	raw, err := f.rdb.LRange(ctx, activityKey, 0, activityCap-1).Result()
	if err != nil {
		return nil, err
	}
	for _, s := range raw {
		var a Activity
		if json.Unmarshal([]byte(s), &a) == nil {
			out = append(out, a)
		}
	}
	return out, nil
}

// Stats aggregates the feed
func (f *ActivityFeed) Stats(ctx context.Context, now time.Time) (*PlatformStats, error) {
	items, err := f.List(ctx)
	if err != nil {
		return nil, err
	}
	stats := &PlatformStats{
		TotalScans:     len(items),
		RecentSearches: []string{},
		UpdatedAt:      now.UTC().Format(time.RFC3339),
	}
	dominance := 0
	for i, a := range items {
		if a.Verdict == VerdictHot {
			stats.HotMarkets++
		}
		dominance += a.Dominance
		if i < 5 {
			stats.RecentSearches = append(stats.RecentSearches, a.Keyword)
		}
	}
	if len(items) > 0 {
		stats.AvgDominance = int(math.Round(float64(dominance) / float64(len(items))))
	}
	return stats, nil
}
