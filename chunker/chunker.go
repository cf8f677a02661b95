package chunker

import (
	"context"
	"fmt"
	"iter"

	"github.com/nijaru/yt-summary/errors"
)

// DefaultMaxTokens fits the summarization model's 1024 token input with room
// for special tokens.
const DefaultMaxTokens = 950

// Tokenizer converts between text and model vocabulary ids. Encode must not
// add special tokens.
type Tokenizer interface {
	Encode(ctx context.Context, text string) ([]int, error)
	Decode(ctx context.Context, ids []int) (string, error)
}

// Scoper is implemented by tokenizers that keep state per text. Chunk encodes
// each text with a fresh tokenizer from Scope, and that text's windows decode
// with the same one.
type Scoper interface {
	Scope() Tokenizer
}

type Chunker struct {
	tokenizer Tokenizer
	maxTokens int
}

func New(tokenizer Tokenizer, maxTokens int) *Chunker {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Chunker{tokenizer: tokenizer, maxTokens: maxTokens}
}

func (c *Chunker) MaxTokens() int {
	return c.maxTokens
}

// Chunk encodes text once and returns its token windows.
func (c *Chunker) Chunk(ctx context.Context, text string) (Chunks, error) {
	const op = "Chunker.Chunk"

	if text == "" {
		return Chunks{size: c.maxTokens}, nil
	}

	tok := c.tokenizer
	if s, ok := tok.(Scoper); ok {
		tok = s.Scope()
	}

	ids, err := tok.Encode(ctx, text)
	if err != nil {
		return Chunks{}, errors.Internal(op, err, "Failed to tokenize transcript")
	}
	return Chunks{ids: ids, size: c.maxTokens, tokenizer: tok}, nil
}

// Chunks is an ordered, non-overlapping partition of a token sequence into
// windows of at most size ids. The last window may be shorter.
type Chunks struct {
	ids       []int
	size      int
	tokenizer Tokenizer
}

// Len returns the number of windows.
func (c Chunks) Len() int {
	if len(c.ids) == 0 || c.size <= 0 {
		return 0
	}
	return (len(c.ids) + c.size - 1) / c.size
}

// Tokens returns the total token count.
func (c Chunks) Tokens() int {
	return len(c.ids)
}

// All yields the windows in order. Each call starts from the first window.
func (c Chunks) All() iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		if c.size <= 0 {
			return
		}
		for i := 0; i < len(c.ids); i += c.size {
			end := min(i+c.size, len(c.ids))
			if !yield(c.ids[i:end:end]) {
				return
			}
		}
	}
}

// Decode turns one window back into text with the tokenizer that encoded it.
func (c Chunks) Decode(ctx context.Context, window []int) (string, error) {
	if c.tokenizer == nil {
		return "", fmt.Errorf("chunks carry no tokenizer")
	}
	return c.tokenizer.Decode(ctx, window)
}
