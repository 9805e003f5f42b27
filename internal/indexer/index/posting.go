package index

import "sort"

// PageRecord is what the index keeps about one ingested page. It is not
// modified after AddPage.
type PageRecord struct {
	Path      string `json:"path"`
	Title     string `json:"title"`
	PlainText string `json:"-"`
}

// PostingSet is the set of page paths containing a term.
type PostingSet map[string]struct{}

// Paths returns the members in sorted order.
func (s PostingSet) Paths() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Intersect returns the paths present in both sets. The receiver is not
// modified.
func (s PostingSet) Intersect(other PostingSet) PostingSet {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(PostingSet, len(small))
	for p := range small {
		if _, ok := large[p]; ok {
			out[p] = struct{}{}
		}
	}
	return out
}

// Stats summarises an index.
type Stats struct {
	Pages int `json:"pages"`
	Terms int `json:"terms"`
}
