package citation

import (
	"iter"
	"regexp"
	"strconv"
	"strings"
)

// Marker is one evidence reference found in generated text.
// A bracket group listing several ids yields one Marker per id, all sharing
// the same span.
type Marker struct {
	Raw   string // full bracket token, e.g. "[2, 5]"
	ID    int
	Start int // byte offset of '['
	End   int // byte offset just past ']'
	Slot  int // position of ID inside its group
}

// bracketPattern matches innermost bracket groups; content is validated separately
var bracketPattern = regexp.MustCompile(`\[([^\[\]]*)\]`)

// Parse returns the markers of text in left-to-right order.
// The sequence rescans text on every iteration. Malformed groups are skipped.
func Parse(text string) iter.Seq[Marker] {
	return func(yield func(Marker) bool) {
		offset := 0
		for offset < len(text) {
			loc := bracketPattern.FindStringSubmatchIndex(text[offset:])
			if loc == nil {
				return
			}
			start, end := offset+loc[0], offset+loc[1]
			body := text[offset+loc[2] : offset+loc[3]]
			offset = end

			// [text](url) is a markdown link
			if end < len(text) && text[end] == '(' {
				continue
			}
			ids, ok := parseIDList(body)
			if !ok {
				continue
			}
			raw := text[start:end]
			for slot, id := range ids {
				if !yield(Marker{Raw: raw, ID: id, Start: start, End: end, Slot: slot}) {
					return
				}
			}
		}
	}
}

// parseIDList accepts "1", "2, 5", " 3 ".
func parseIDList(body string) ([]int, bool) {
	if strings.TrimSpace(body) == "" {
		return nil, false
	}
	parts := strings.Split(body, ",")
	ids := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" || !isDigits(part) {
			return nil, false
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
