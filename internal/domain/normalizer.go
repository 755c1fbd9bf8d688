package domain

import (
	"strings"

	m "github.com/0x1david/sqint/internal/model"
)

// placeholder substituted for parameter markers. NULL is accepted in every
// value position across the supported grammars, so parameter-bearing queries
// do not fail validation for a missing literal.
const placeholder = "NULL"

// namedSegment inside a configured marker stands for any identifier, so one
// configured "%(name)s" covers every pyformat named parameter.
const namedSegment = "(name)"

// Normalizer rewrites a matched literal into grammar-ready text: parameter
// markers become a neutral placeholder and dialect-vocabulary mappings are
// substituted. Every length change is recorded as an edit so grammar error
// offsets can be mapped back to the original literal exactly.
type Normalizer struct {
	markers  []string
	mappings []m.Mapping
}

// NewNormalizer keeps the configured order of markers and mappings; order is
// the tie-break when several could match at the same position.
func NewNormalizer(markers []string, mappings []m.Mapping) *Normalizer {
	kept := make([]string, 0, len(markers))

	for _, mk := range markers {
		if mk != "" {
			kept = append(kept, mk)
		}
	}

	return &Normalizer{markers: kept, mappings: mappings}
}

// Normalize scans the literal left to right, non-overlapping: at each byte
// the markers are tried in configuration order, then the mappings; the first
// match wins and the scan resumes after its replacement.
func (n *Normalizer) Normalize(site m.CandidateSite) m.NormalizedQuery {
	src := site.Text

	var (
		out   strings.Builder
		edits []m.Edit
	)

	i := 0
	for i < len(src) {
		matched, repl, ok := n.matchAt(src, i)
		if !ok {
			out.WriteByte(src[i])
			i++

			continue
		}

		edits = append(edits, m.Edit{
			OrigStart: i,
			OrigEnd:   i + matched,
			NormStart: out.Len(),
			NormEnd:   out.Len() + len(repl),
		})

		out.WriteString(repl)
		i += matched
	}

	return m.NormalizedQuery{Site: site, Text: out.String(), Map: m.OffsetMap{Edits: edits}}
}

// matchAt reports the byte length of the marker or mapping key matching at
// src[i:], with its replacement text.
func (n *Normalizer) matchAt(src string, i int) (matched int, repl string, ok bool) {
	rest := src[i:]

	for _, mk := range n.markers {
		if l := matchMarker(rest, mk); l > 0 {
			return l, placeholder, true
		}
	}

	for _, mp := range n.mappings {
		if mp.From != "" && strings.HasPrefix(rest, mp.From) {
			return len(mp.From), mp.To, true
		}
	}

	return 0, "", false
}

// matchMarker matches one configured marker at the start of s, returning the
// matched length or 0. A marker containing the "(name)" segment matches any
// identifier in that position: "%(name)s" covers "%(user_id)s".
func matchMarker(s, marker string) int {
	seg := strings.Index(marker, namedSegment)
	if seg < 0 {
		if strings.HasPrefix(s, marker) {
			return len(marker)
		}

		return 0
	}

	prefix := marker[:seg+1] // up to and including "("
	suffix := marker[seg+len(namedSegment)-1:]

	if !strings.HasPrefix(s, prefix) {
		return 0
	}

	j := len(prefix)
	for j < len(s) && isNameByte(s[j]) {
		j++
	}

	if j == len(prefix) || !strings.HasPrefix(s[j:], suffix) {
		return 0
	}

	return j + len(suffix)
}

func isNameByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
