package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisSource reads bundles stored as two JSON lists per topic:
// {prefix}:content:{topic}:items and {prefix}:content:{topic}:questions.
// Elements that fail to decode are kept as zero values so the spawn cycle
// can substitute filler for them.
type RedisSource struct {
	client redis.UniversalClient
	prefix string
	logger *slog.Logger
}

func NewRedisSource(client redis.UniversalClient, prefix string, logger *slog.Logger) (*RedisSource, error) {
	if client == nil {
		return nil, errors.New("content: redis client is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisSource{client: client, prefix: prefix, logger: logger}, nil
}

func (s *RedisSource) itemsKey(topic string) string {
	return fmt.Sprintf("%s:content:%s:items", s.prefix, topic)
}

func (s *RedisSource) questionsKey(topic string) string {
	return fmt.Sprintf("%s:content:%s:questions", s.prefix, topic)
}

func (s *RedisSource) Fetch(ctx context.Context, topic string) (Bundle, error) {
	if topic == "" {
		return Bundle{}, ErrEmptyTopic
	}

	pipe := s.client.Pipeline()
	itemsCmd := pipe.LRange(ctx, s.itemsKey(topic), 0, -1)
	questionsCmd := pipe.LRange(ctx, s.questionsKey(topic), 0, -1)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return Bundle{}, fmt.Errorf("fetch topic %s: %w", topic, err)
	}

	bundle := Bundle{Topic: topic}
	valid := 0
	for _, raw := range itemsCmd.Val() {
		var item Item
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			s.logger.Warn("malformed content item", slog.String("topic", topic), slog.String("error", err.Error()))
			item = Item{}
		}
		if item.Valid() {
			valid++
		}
		bundle.Items = append(bundle.Items, item)
	}
	for _, raw := range questionsCmd.Val() {
		var q Question
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			s.logger.Warn("malformed question", slog.String("topic", topic), slog.String("error", err.Error()))
			q = Question{}
		}
		if q.Valid() {
			valid++
		}
		bundle.Questions = append(bundle.Questions, q)
	}

	// a topic holding only malformed elements has nothing to play
	if valid == 0 {
		return Bundle{}, ErrNotFound
	}
	return bundle, nil
}

// Store replaces the content of b.Topic atomically.
func (s *RedisSource) Store(ctx context.Context, b Bundle) error {
	if b.Topic == "" {
		return ErrEmptyTopic
	}

	items := make([]interface{}, 0, len(b.Items))
	for _, item := range b.Items {
		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshal item: %w", err)
		}
		items = append(items, data)
	}
	questions := make([]interface{}, 0, len(b.Questions))
	for _, q := range b.Questions {
		data, err := json.Marshal(q)
		if err != nil {
			return fmt.Errorf("marshal question: %w", err)
		}
		questions = append(questions, data)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.itemsKey(b.Topic), s.questionsKey(b.Topic))
	if len(items) > 0 {
		pipe.RPush(ctx, s.itemsKey(b.Topic), items...)
	}
	if len(questions) > 0 {
		pipe.RPush(ctx, s.questionsKey(b.Topic), questions...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store topic %s: %w", b.Topic, err)
	}
	return nil
}
