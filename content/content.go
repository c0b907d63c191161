// Package content supplies the ordered term and question lists consumed by
// game rounds. The engine treats content as opaque, finite and pre-fetched.
package content

import (
	"context"
	"errors"
	"strings"
)

//go:generate mockgen -destination=mock/mock_source.go -package=contentmock -source=content.go

var (
	// ErrNotFound is returned when a topic has no content at all.
	ErrNotFound = errors.New("content: topic not found")
	// ErrEmptyTopic is returned for a blank topic name.
	ErrEmptyTopic = errors.New("content: topic is required")
)

// Item is a term/definition pair carried by shooter targets and falling
// pieces.
type Item struct {
	Term       string `json:"term" yaml:"term" msgpack:"term"`
	Definition string `json:"definition" yaml:"definition" msgpack:"definition"`
}

// Valid reports whether both halves of the pair are present.
func (i Item) Valid() bool {
	return strings.TrimSpace(i.Term) != "" && strings.TrimSpace(i.Definition) != ""
}

// Question is a true/false prompt asked during wave-mode quiz pauses.
type Question struct {
	Question    string `json:"question" yaml:"question" msgpack:"question"`
	Answer      bool   `json:"answer" yaml:"answer" msgpack:"answer"`
	Explanation string `json:"explanation" yaml:"explanation" msgpack:"explanation"`
}

func (q Question) Valid() bool {
	return strings.TrimSpace(q.Question) != ""
}

// Bundle is everything fetched for one round.
type Bundle struct {
	Topic     string     `json:"topic" yaml:"topic"`
	Items     []Item     `json:"items" yaml:"items"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// Empty reports whether the bundle carries no content at all.
func (b Bundle) Empty() bool {
	return len(b.Items) == 0 && len(b.Questions) == 0
}

// Source fetches the content for a topic.
type Source interface {
	Fetch(ctx context.Context, topic string) (Bundle, error)
}

// StaticSource serves bundles held in memory, keyed by topic.
type StaticSource struct {
	bundles map[string]Bundle
}

func NewStaticSource(bundles ...Bundle) *StaticSource {
	s := &StaticSource{bundles: make(map[string]Bundle, len(bundles))}
	for _, b := range bundles {
		s.bundles[b.Topic] = b
	}
	return s
}

func (s *StaticSource) Fetch(ctx context.Context, topic string) (Bundle, error) {
	if err := ctx.Err(); err != nil {
		return Bundle{}, err
	}
	if topic == "" {
		return Bundle{}, ErrEmptyTopic
	}
	b, ok := s.bundles[topic]
	if !ok || b.Empty() {
		return Bundle{}, ErrNotFound
	}
	return b, nil
}

// Topics lists the topics a StaticSource can serve.
func (s *StaticSource) Topics() []string {
	topics := make([]string, 0, len(s.bundles))
	for t := range s.bundles {
		topics = append(topics, t)
	}
	return topics
}
