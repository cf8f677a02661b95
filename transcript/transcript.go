package transcript

import "context"

// Kind tags the shape of a raw transcript payload.
type Kind int

const (
	// Markup is XML or TTML caption text.
	Markup Kind = iota
	// Segments is a sequence of timed caption segments.
	Segments
	// SubtitleDocument is a WebVTT or SRT file.
	SubtitleDocument
	// PlainText is speech recognition output, already clean.
	PlainText
)

func (k Kind) String() string {
	switch k {
	case Markup:
		return "markup"
	case Segments:
		return "segments"
	case SubtitleDocument:
		return "subtitle_document"
	case PlainText:
		return "plain_text"
	default:
		return "unknown"
	}
}

type Segment struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Text     string  `json:"text"`
}

// Raw is the payload of exactly one provider call. Text is used by every kind
// except Segments.
type Raw struct {
	Kind     Kind
	Text     string
	Segments []Segment
	Source   string
}

func NewMarkup(source, text string) *Raw {
	return &Raw{Kind: Markup, Text: text, Source: source}
}

func NewSegments(source string, segments []Segment) *Raw {
	return &Raw{Kind: Segments, Segments: segments, Source: source}
}

func NewSubtitleDocument(source, text string) *Raw {
	return &Raw{Kind: SubtitleDocument, Text: text, Source: source}
}

func NewPlainText(source, text string) *Raw {
	return &Raw{Kind: PlainText, Text: text, Source: source}
}

// Provider is one transcript acquisition strategy. Fetch returns an error
// wrapping errors.ErrProviderUnavailable when the strategy has nothing for the
// video; any other error is a transport failure. Either way the chain moves on.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, videoID string) (*Raw, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc struct {
	ProviderName string
	FetchFunc    func(ctx context.Context, videoID string) (*Raw, error)
}

func (p ProviderFunc) Name() string { return p.ProviderName }

func (p ProviderFunc) Fetch(ctx context.Context, videoID string) (*Raw, error) {
	return p.FetchFunc(ctx, videoID)
}
