package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	m "github.com/0x1david/sqint/internal/model"
)

func textSite(text string) m.CandidateSite {
	return m.CandidateSite{File: "app.py", Text: text}
}

func TestNormalizer_Markers(t *testing.T) {
	n := NewNormalizer([]string{"?", "%s", "%(name)s"}, nil)

	testCases := []struct {
		description string
		in          string
		want        string
	}{
		{
			description: "question mark marker",
			in:          "SELECT * FROM users WHERE id = ?",
			want:        "SELECT * FROM users WHERE id = NULL",
		},
		{
			description: "format marker",
			in:          "WHERE a = %s AND b = %s",
			want:        "WHERE a = NULL AND b = NULL",
		},
		{
			description: "named pyformat marker matches any identifier",
			in:          "WHERE org = %(org_id)s",
			want:        "WHERE org = NULL",
		},
		{
			description: "no markers leaves text untouched",
			in:          "SELECT 1",
			want:        "SELECT 1",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			q := n.Normalize(textSite(tc.in))

			assert.Equal(t, tc.want, q.Text)
		})
	}
}

func TestNormalizer_Mappings(t *testing.T) {
	n := NewNormalizer(nil, []m.Mapping{
		{From: "ISNULL", To: "IS NULL"},
		{From: "NOTNULL", To: "NOT NULL"},
	})

	q := n.Normalize(textSite("SELECT a FROM t WHERE b NOTNULL AND c ISNULL"))

	assert.Equal(t, "SELECT a FROM t WHERE b NOT NULL AND c IS NULL", q.Text)
}

func TestNormalizer_FirstMatchWinsLeftToRight(t *testing.T) {
	// Both keys could match at offset 0; the earlier configured one wins and
	// the scan does not re-enter its replacement.
	n := NewNormalizer(nil, []m.Mapping{
		{From: "AB", To: "X"},
		{From: "ABC", To: "never"},
	})

	q := n.Normalize(textSite("ABC"))

	assert.Equal(t, "XC", q.Text)
}

func TestNormalizer_OffsetMapRoundTrip(t *testing.T) {
	n := NewNormalizer([]string{"?"}, []m.Mapping{{From: "NOTNULL", To: "NOT NULL"}})

	orig := "WHERE id = ? AND x NOTNULL"
	q := n.Normalize(textSite(orig))

	assert.Equal(t, "WHERE id = NULL AND x NOT NULL", q.Text)

	// Positions outside any replacement map back to the same byte.
	normAND := 16 // "A" of AND in the normalized text
	origAND := q.Map.ToOriginal(normAND)
	assert.Equal(t, byte('A'), orig[origAND])

	// Positions inside a replacement map to the start of what produced it.
	assert.Equal(t, 11, q.Map.ToOriginal(12))
	assert.Equal(t, byte('?'), orig[q.Map.ToOriginal(12)])
}

func TestNormalizer_EmptyMarkerIsIgnored(t *testing.T) {
	n := NewNormalizer([]string{""}, nil)

	q := n.Normalize(textSite("SELECT 1"))

	assert.Equal(t, "SELECT 1", q.Text)
	assert.Empty(t, q.Map.Edits)
}
