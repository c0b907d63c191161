package content

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type fileDocument struct {
	Topics []Bundle `yaml:"topics"`
}

// LoadFile reads a YAML content file of the form
//
//	topics:
//	  - topic: biology
//	    items:
//	      - {term: cell, definition: basic unit of life}
//	    questions:
//	      - {question: "Mitochondria store DNA", answer: true, explanation: "..."}
func LoadFile(path string) ([]Bundle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content %s: %w", path, err)
	}
	var doc fileDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse content %s: %w", path, err)
	}
	for i, b := range doc.Topics {
		if b.Topic == "" {
			return nil, fmt.Errorf("content %s: entry %d: %w", path, i, ErrEmptyTopic)
		}
	}
	return doc.Topics, nil
}

// Sample is the built-in bundle used when no content is configured.
func Sample() Bundle {
	return Bundle{
		Topic: "go",
		Items: []Item{
			{Term: "goroutine", Definition: "a function executing concurrently with others in the same address space"},
			{Term: "channel", Definition: "a typed conduit for communication between goroutines"},
			{Term: "interface", Definition: "a set of method signatures satisfied implicitly"},
			{Term: "slice", Definition: "a view over a contiguous segment of an array"},
			{Term: "defer", Definition: "schedules a call to run when the surrounding function returns"},
			{Term: "select", Definition: "waits on multiple channel operations"},
			{Term: "context", Definition: "carries deadlines and cancellation across API boundaries"},
			{Term: "mutex", Definition: "a mutual exclusion lock"},
		},
		Questions: []Question{
			{Question: "A nil map can be read from", Answer: true, Explanation: "Reads from a nil map return the zero value; writes panic."},
			{Question: "Goroutines are OS threads", Answer: false, Explanation: "Goroutines are multiplexed onto a smaller set of OS threads by the runtime."},
			{Question: "Closing a closed channel panics", Answer: true, Explanation: "Close may be called once; a second close panics."},
		},
	}
}
