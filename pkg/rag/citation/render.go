package citation

import (
	"bytes"
	"fmt"
	"strings"

	"paperchat-be/pkg/rag/evidence"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// markdown renders model output. Raw HTML in the answer is omitted, not passed through.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Table, extension.Strikethrough),
)

const sourcePreviewRunes = 300

// RenderHTML converts a reconciled display text to HTML with anchors turned
// into links to the sources list. Bracket text such as "[^2]" stays literal.
func RenderHTML(displayText string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(displayText), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return anchorPattern.ReplaceAllString(buf.String(),
		`<sup class="citation"><a href="#source-$1">$1</a></sup>`), nil
}

// FormatSources renders the cited passages as a markdown list whose numbering
// matches the anchors of the reconciled text.
func FormatSources(cited []evidence.Passage) string {
	if len(cited) == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range cited {
		fmt.Fprintf(&b, "**[%d]**", i+1)
		if page := p.Page(); page > 0 {
			fmt.Fprintf(&b, " (page %d)", page)
		}
		b.WriteString("\n\n")
		for _, line := range strings.Split(preview(p.Text), "\n") {
			b.WriteString("> ")
			b.WriteString(line)
			b.WriteString("\n")
		}
		if i < len(cited)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func preview(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= sourcePreviewRunes {
		return text
	}
	return string(runes[:sourcePreviewRunes]) + "..."
}
