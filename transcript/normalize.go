package transcript

import (
	"html"
	"regexp"
	"strings"
)

var (
	tagPattern      = regexp.MustCompile(`<[^>]*>`)
	cueIndexPattern = regexp.MustCompile(`^\d+$`)
	vttHeaderLine   = regexp.MustCompile(`^(WEBVTT|NOTE|STYLE|REGION)(\s|$)|^(Kind|Language):`)
)

// Normalize turns any raw payload into a single line of plain text with
// collapsed whitespace. The result never contains a tag or a cue timing arrow.
func Normalize(raw *Raw) string {
	if raw == nil {
		return ""
	}

	switch raw.Kind {
	case Markup:
		return normalizeMarkup(raw.Text)
	case Segments:
		return normalizeSegments(raw.Segments)
	case SubtitleDocument:
		return normalizeSubtitleDocument(raw.Text)
	case PlainText:
		return strings.TrimSpace(raw.Text)
	default:
		return ""
	}
}

func normalizeMarkup(text string) string {
	text = tagPattern.ReplaceAllString(text, " ")
	text = html.UnescapeString(text)
	// Unescaping can turn &lt;b&gt; back into a tag.
	text = tagPattern.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, "-->", " ")
	return collapse(text)
}

func normalizeSegments(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if text := normalizeMarkup(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

func normalizeSubtitleDocument(doc string) string {
	doc = strings.ReplaceAll(doc, "\r\n", "\n")

	var kept []string
	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.Contains(line, "-->") || cueIndexPattern.MatchString(line) {
			continue
		}
		if vttHeaderLine.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}

	return normalizeMarkup(strings.Join(kept, " "))
}

func collapse(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
