package citation

import (
	"iter"
	"sort"
	"strings"

	"paperchat-be/pkg/rag/evidence"
)

// Answer is generated text made safe to render: every anchor in DisplayText
// points into Cited, and Cited holds only passages of the original set.
type Answer struct {
	DisplayText string             `json:"display_text"`
	Cited       []evidence.Passage `json:"cited"`
}

// ReconcileText parses raw and reconciles it against set.
func ReconcileText(raw string, set *evidence.Set) Answer {
	return Reconcile(raw, Parse(raw), set)
}

// Reconcile rewrites resolvable markers into anchors and strips the rest.
// Text outside marker spans is copied byte for byte. Markers that do not
// describe a span of raw in ascending order are ignored.
func Reconcile(raw string, markers iter.Seq[Marker], set *evidence.Set) Answer {
	r := &reconciler{
		raw:    raw,
		set:    set,
		number: make(map[int]int),
		cited:  make([]evidence.Passage, 0),
	}

	var group []Marker
	for m := range markers {
		if !r.valid(m) {
			continue
		}
		if len(group) > 0 && (group[0].Start != m.Start || group[0].End != m.End) {
			r.flush(group)
			group = group[:0]
		}
		if len(group) == 0 && m.Start < r.cursor {
			continue
		}
		group = append(group, m)
	}
	if len(group) > 0 {
		r.flush(group)
	}
	r.out.WriteString(raw[r.cursor:])

	return Answer{DisplayText: r.out.String(), Cited: r.cited}
}

type reconciler struct {
	raw    string
	set    *evidence.Set
	out    strings.Builder
	cursor int
	number map[int]int // evidence id -> anchor number
	cited  []evidence.Passage
}

func (r *reconciler) valid(m Marker) bool {
	if m.Start < 0 || m.End > len(r.raw) || m.Start >= m.End {
		return false
	}
	return r.raw[m.Start:m.End] == m.Raw
}

// flush writes the text preceding the group and the group's anchors.
// Passages first cited by the same group are ordered by retrieval rank.
func (r *reconciler) flush(group []Marker) {
	var fresh []evidence.Passage
	seen := make(map[int]bool, len(group))
	for _, m := range group {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		if _, done := r.number[m.ID]; done {
			continue
		}
		if p, ok := r.set.Lookup(m.ID); ok {
			fresh = append(fresh, p)
		}
	}
	sort.SliceStable(fresh, func(i, j int) bool {
		return r.set.Rank(fresh[i].ID) < r.set.Rank(fresh[j].ID)
	})
	for _, p := range fresh {
		r.cited = append(r.cited, p)
		r.number[p.ID] = len(r.cited)
	}

	var anchors []int
	for id := range seen {
		if n, ok := r.number[id]; ok {
			anchors = append(anchors, n)
		}
	}
	sort.Ints(anchors)

	r.out.WriteString(r.raw[r.cursor:group[0].Start])
	for _, n := range anchors {
		r.out.WriteString(Anchor(n))
	}
	r.cursor = group[0].End
}
