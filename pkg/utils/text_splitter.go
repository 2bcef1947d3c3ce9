package utils

import (
	"strings"
	"unicode"
)

// PageBreak separates pages in text extracted with pdftotext.
const PageBreak = '\f'

// PageChunk is a slice of a page ready to be stored as a document chunk.
type PageChunk struct {
	Page int // 1-based
	Text string
}

// SplitText splits text into chunks of at most chunkSize runes, with overlap
// runes shared between neighbours. A cut is moved back to the last whitespace
// in the second half of the window so words stay whole.
func SplitText(text string, chunkSize int, overlap int) []string {
	runes := []rune(text)
	if chunkSize <= 0 || len(runes) <= chunkSize {
		return []string{text}
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}

	var chunks []string
	for start := 0; start < len(runes); {
		end := start + chunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		for cut := end; cut > start+chunkSize/2; cut-- {
			if unicode.IsSpace(runes[cut]) {
				end = cut
				break
			}
		}
		chunks = append(chunks, string(runes[start:end]))

		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// SplitPages splits text on form feeds and chunks every non-blank page.
// Pages keep their position, so a blank page still advances the page number.
func SplitPages(text string, chunkSize int, overlap int) []PageChunk {
	var out []PageChunk
	for i, page := range strings.Split(text, string(PageBreak)) {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		for _, chunk := range SplitText(page, chunkSize, overlap) {
			if chunk = strings.TrimSpace(chunk); chunk != "" {
				out = append(out, PageChunk{Page: i + 1, Text: chunk})
			}
		}
	}
	return out
}
