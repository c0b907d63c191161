package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisSink keeps the most recent results in a capped list and the best
// score per session in a per-mode leaderboard.
type RedisSink struct {
	client redis.UniversalClient
	prefix string
	keep   int64
}

func NewRedisSink(client redis.UniversalClient, prefix string, keep int64) (*RedisSink, error) {
	if client == nil {
		return nil, errors.New("results: redis client is required")
	}
	if keep <= 0 {
		keep = 100
	}
	return &RedisSink{client: client, prefix: prefix, keep: keep}, nil
}

func (s *RedisSink) recentKey() string {
	return s.prefix + ":results:recent"
}

func (s *RedisSink) leaderboardKey(mode string) string {
	return fmt.Sprintf("%s:results:leaderboard:%s", s.prefix, mode)
}

func (s *RedisSink) Record(ctx context.Context, r RoundResult) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, s.recentKey(), data)
	pipe.LTrim(ctx, s.recentKey(), 0, s.keep-1)
	pipe.ZAddGT(ctx, s.leaderboardKey(r.Mode), redis.Z{Score: float64(r.Score), Member: r.SessionID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record result %s: %w", r.SessionID, err)
	}
	return nil
}

// Recent returns up to n results, newest first.
func (s *RedisSink) Recent(ctx context.Context, n int64) ([]RoundResult, error) {
	raw, err := s.client.LRange(ctx, s.recentKey(), 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("recent results: %w", err)
	}
	out := make([]RoundResult, 0, len(raw))
	for _, item := range raw {
		var r RoundResult
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			return nil, fmt.Errorf("decode result: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}

// Entry is one leaderboard row.
type Entry struct {
	SessionID string `json:"sessionId"`
	Score     int    `json:"score"`
}

// Top returns the n best scores for mode.
func (s *RedisSink) Top(ctx context.Context, mode string, n int64) ([]Entry, error) {
	zs, err := s.client.ZRevRangeWithScores(ctx, s.leaderboardKey(mode), 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard %s: %w", mode, err)
	}
	out := make([]Entry, 0, len(zs))
	for _, z := range zs {
		member, _ := z.Member.(string)
		out = append(out, Entry{SessionID: member, Score: int(z.Score)})
	}
	return out, nil
}
