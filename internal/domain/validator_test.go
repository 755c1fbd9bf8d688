package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/0x1david/sqint/internal/model"
	"github.com/0x1david/sqint/internal/sqlang"
)

func TestNewValidator_UnknownDialect(t *testing.T) {
	_, err := NewValidator(m.Dialect("cobol"))

	assert.ErrorIs(t, err, sqlang.ErrUnsupportedDialect)
}

func TestValidator_CleanQuery(t *testing.T) {
	v, err := NewValidator(m.DialectGeneric)
	require.NoError(t, err)

	n := NewNormalizer([]string{"?"}, nil)
	q := n.Normalize(textSite("SELECT * FROM users WHERE id = ? AND active = 1;"))

	assert.Empty(t, v.Validate(q))
}

func TestValidator_ErrorMapsBackToOriginalColumn(t *testing.T) {
	v, err := NewValidator(m.DialectGeneric)
	require.NoError(t, err)

	// The "?" -> "NULL" substitution shifts later offsets by three bytes;
	// the reported column must land on the original text.
	site := m.CandidateSite{
		File: "app.py",
		Text: "SELECT a FROM t WHERE b = ? AND c = ORDER",
		Span: m.Span{StartLine: 4, StartCol: 10, StartByte: 120},
	}

	n := NewNormalizer([]string{"?"}, nil)
	issues := v.Validate(n.Normalize(site))

	require.Len(t, issues, 1)

	issue := issues[0]
	assert.Equal(t, m.Path("app.py"), issue.File)
	assert.Equal(t, m.SeverityError, issue.Severity)
	assert.Equal(t, m.CategorySyntax, issue.Category)

	origOffset := strings.Index(site.Text, "ORDER")
	assert.Equal(t, 4, issue.Span.StartLine)
	assert.Equal(t, site.Span.StartCol+origOffset, issue.Span.StartCol)
	assert.Equal(t, site.Span.StartByte+origOffset, issue.Span.StartByte)
}

func TestValidator_MultiLineLiteral(t *testing.T) {
	v, err := NewValidator(m.DialectGeneric)
	require.NoError(t, err)

	site := m.CandidateSite{
		File: "app.py",
		Text: "SELECT id\nFROM users\nWHERE =",
		Span: m.Span{StartLine: 10, StartCol: 5},
	}

	issues := v.Validate(NewNormalizer(nil, nil).Normalize(site))

	require.Len(t, issues, 1)
	assert.Equal(t, 12, issues[0].Span.StartLine)
}

func TestValidator_StatementRecovery(t *testing.T) {
	v, err := NewValidator(m.DialectGeneric)
	require.NoError(t, err)

	t.Run("a malformed statement does not suppress valid siblings", func(t *testing.T) {
		issues := v.Validate(NewNormalizer(nil, nil).Normalize(
			textSite("bogus; SELECT id FROM users;")))

		assert.Len(t, issues, 1)
	})

	t.Run("each failing statement gets its own issue", func(t *testing.T) {
		issues := v.Validate(NewNormalizer(nil, nil).Normalize(
			textSite("bogus; SELECT id FROM users; also bad;")))

		assert.Len(t, issues, 2)
	})
}
