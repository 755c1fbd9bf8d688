package model

import "sort"

// Edit records one substitution the normalizer performed: the byte range it
// replaced in the original literal and the range the replacement occupies in
// the normalized text. Edits are stored in ascending normalized order.
type Edit struct {
	OrigStart int
	OrigEnd   int
	NormStart int
	NormEnd   int
}

// OffsetMap resolves offsets in normalized text back to offsets in the
// original literal. The map is monotonic and total: every normalized offset
// resolves to some original offset inside the literal.
type OffsetMap struct {
	Edits []Edit
}

// ToOriginal maps a byte offset in the normalized text to the corresponding
// byte offset in the original literal. Offsets inside a replaced range
// resolve to the start of the original range that produced it.
func (m OffsetMap) ToOriginal(norm int) int {
	if norm < 0 {
		return 0
	}

	// Find the last edit that starts at or before norm.
	i := sort.Search(len(m.Edits), func(i int) bool {
		return m.Edits[i].NormStart > norm
	}) - 1

	if i < 0 {
		return norm
	}

	e := m.Edits[i]
	if norm < e.NormEnd {
		return e.OrigStart
	}

	return e.OrigEnd + (norm - e.NormEnd)
}

// NormalizedQuery is a matched literal's text after parameter-marker and
// dialect-mapping substitution, together with the offset map needed to
// report validator errors at original-source positions.
type NormalizedQuery struct {
	Site CandidateSite
	Text string
	Map  OffsetMap
}
