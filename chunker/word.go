package chunker

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// WordTokenizer treats each whitespace separated word as one token and
// assigns ids from a vocabulary that grows as new words are seen. It is used
// with summarizers that do not expose their own tokenizer. Through Scope the
// Chunker gives every text its own vocabulary, so a long-lived WordTokenizer
// does not accumulate words across runs.
type WordTokenizer struct {
	mu    sync.Mutex
	ids   map[string]int
	words []string
}

func NewWordTokenizer() *WordTokenizer {
	return &WordTokenizer{ids: make(map[string]int)}
}

// Scope returns an empty tokenizer for one text.
func (t *WordTokenizer) Scope() Tokenizer {
	return NewWordTokenizer()
}

func (t *WordTokenizer) Encode(ctx context.Context, text string) ([]int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fields := strings.Fields(text)
	out := make([]int, len(fields))
	for i, w := range fields {
		id, ok := t.ids[w]
		if !ok {
			id = len(t.words)
			t.ids[w] = id
			t.words = append(t.words, w)
		}
		out[i] = id
	}
	return out, nil
}

func (t *WordTokenizer) Decode(ctx context.Context, ids []int) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	words := make([]string, len(ids))
	for i, id := range ids {
		if id < 0 || id >= len(t.words) {
			return "", fmt.Errorf("unknown token id %d", id)
		}
		words[i] = t.words[id]
	}
	return strings.Join(words, " "), nil
}
