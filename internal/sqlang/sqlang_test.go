package sqlang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/0x1david/sqint/internal/model"
)

func TestFor_KnownDialects(t *testing.T) {
	for _, d := range m.Dialects() {
		t.Run(string(d), func(t *testing.T) {
			g, err := For(d)
			require.NoError(t, err)
			assert.NotNil(t, g)
		})
	}
}

func TestFor_UnknownDialect(t *testing.T) {
	g, err := For(m.Dialect("fortran"))

	assert.Nil(t, g)
	assert.ErrorIs(t, err, ErrUnsupportedDialect)
}

func TestCheck_ValidStatements(t *testing.T) {
	testCases := []struct {
		description string
		dialect     m.Dialect
		sql         string
	}{
		{
			description: "plain select with filter and ordering",
			dialect:     m.DialectGeneric,
			sql:         "SELECT id, name, email FROM users WHERE active = 1 ORDER BY name;",
		},
		{
			description: "select without trailing semicolon",
			dialect:     m.DialectGeneric,
			sql:         "SELECT count(*) FROM orders",
		},
		{
			description: "joins with aliases",
			dialect:     m.DialectGeneric,
			sql: "SELECT u.name, o.total FROM users u " +
				"LEFT JOIN orders o ON o.user_id = u.id WHERE o.total > 100;",
		},
		{
			description: "grouping and having",
			dialect:     m.DialectGeneric,
			sql:         "SELECT dept, count(*) AS n FROM staff GROUP BY dept HAVING count(*) > 3;",
		},
		{
			description: "subquery in from and in list",
			dialect:     m.DialectGeneric,
			sql: "SELECT * FROM (SELECT id FROM t) sub " +
				"WHERE id IN (SELECT user_id FROM sessions);",
		},
		{
			description: "cte with union",
			dialect:     m.DialectGeneric,
			sql: "WITH recent AS (SELECT id FROM events WHERE ts > 0) " +
				"SELECT id FROM recent UNION ALL SELECT id FROM archive;",
		},
		{
			description: "insert with values rows",
			dialect:     m.DialectGeneric,
			sql:         "INSERT INTO users (id, name) VALUES (1, 'ada'), (2, 'grace');",
		},
		{
			description: "update with where",
			dialect:     m.DialectGeneric,
			sql:         "UPDATE users SET name = 'ada', active = 1 WHERE id = 7;",
		},
		{
			description: "delete with where",
			dialect:     m.DialectGeneric,
			sql:         "DELETE FROM sessions WHERE expires_at < 1700000000;",
		},
		{
			description: "case expression and cast",
			dialect:     m.DialectGeneric,
			sql: "SELECT CASE WHEN n > 0 THEN 'pos' ELSE 'neg' END, " +
				"CAST(n AS varchar(10)) FROM counters;",
		},
		{
			description: "create table with column definitions",
			dialect:     m.DialectGeneric,
			sql:         "CREATE TABLE IF NOT EXISTS tags (id integer PRIMARY KEY, label text NOT NULL);",
		},
		{
			description: "drop and truncate",
			dialect:     m.DialectGeneric,
			sql:         "DROP TABLE IF EXISTS tmp; TRUNCATE TABLE audit_log;",
		},
		{
			description: "postgres dollar-quoted literal and limit",
			dialect:     m.DialectPostgreSQL,
			sql:         "SELECT $$it's fine$$ FROM notes LIMIT 10 OFFSET 5;",
		},
		{
			description: "postgres returning clause",
			dialect:     m.DialectPostgreSQL,
			sql:         "INSERT INTO users (name) VALUES ('ada') RETURNING id;",
		},
		{
			description: "mysql backticks and limit offset form",
			dialect:     m.DialectMySQL,
			sql:         "SELECT `from` FROM `order` WHERE `key` = 'x' LIMIT 10, 20;",
		},
		{
			description: "mssql top and bracketed identifiers",
			dialect:     m.DialectMsSQL,
			sql:         "SELECT TOP 5 [Name] FROM [Users] ORDER BY [Name] DESC;",
		},
		{
			description: "ansi offset fetch pagination",
			dialect:     m.DialectAnsi,
			sql:         "SELECT id FROM t ORDER BY id OFFSET 10 ROWS FETCH NEXT 5 ROWS ONLY;",
		},
		{
			description: "window function over clause",
			dialect:     m.DialectGeneric,
			sql:         "SELECT rank() OVER (PARTITION BY dept ORDER BY salary DESC) FROM staff;",
		},
		{
			description: "parameter markers left in place",
			dialect:     m.DialectGeneric,
			sql:         "SELECT * FROM users WHERE id = ? AND org = :org;",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			g, err := For(tc.dialect)
			require.NoError(t, err)

			errs := g.Check(tc.sql)
			assert.Empty(t, errs)
		})
	}
}

func TestCheck_SyntaxErrors(t *testing.T) {
	testCases := []struct {
		description string
		dialect     m.Dialect
		sql         string
		wantErrs    int
	}{
		{
			description: "missing select list",
			dialect:     m.DialectGeneric,
			sql:         "SELECT FROM users;",
			wantErrs:    1,
		},
		{
			description: "dangling comparison before keyword",
			dialect:     m.DialectGeneric,
			sql:         "SELECT a, b FROM t WHERE a = ORDER BY b;",
			wantErrs:    1,
		},
		{
			description: "unterminated string literal",
			dialect:     m.DialectGeneric,
			sql:         "SELECT 'abc FROM users;",
			wantErrs:    1,
		},
		{
			description: "not a statement",
			dialect:     m.DialectGeneric,
			sql:         "definitely not sql",
			wantErrs:    1,
		},
		{
			description: "limit rejected where the dialect lacks it",
			dialect:     m.DialectMsSQL,
			sql:         "SELECT name FROM users LIMIT 5;",
			wantErrs:    1,
		},
		{
			description: "backticks rejected under ansi",
			dialect:     m.DialectAnsi,
			sql:         "SELECT `name` FROM users;",
			wantErrs:    1,
		},
		{
			description: "insert without values or query",
			dialect:     m.DialectGeneric,
			sql:         "INSERT INTO users (id);",
			wantErrs:    1,
		},
		{
			description: "trailing garbage after statement",
			dialect:     m.DialectGeneric,
			sql:         "SELECT 1 FROM t extra junk tokens here now;",
			wantErrs:    1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			g, err := For(tc.dialect)
			require.NoError(t, err)

			errs := g.Check(tc.sql)
			require.Len(t, errs, tc.wantErrs)

			for _, e := range errs {
				assert.NotEmpty(t, e.Msg)
				assert.GreaterOrEqual(t, e.Start, 0)
				assert.LessOrEqual(t, e.Start, len(tc.sql))
			}
		})
	}
}

func TestCheck_RecoversAtStatementBoundaries(t *testing.T) {
	g, err := For(m.DialectGeneric)
	require.NoError(t, err)

	t.Run("bad statement does not suppress its siblings", func(t *testing.T) {
		errs := g.Check("bogus; SELECT 1; also bad; SELECT 2;")

		require.Len(t, errs, 2)
		assert.Equal(t, 0, errs[0].Start)
		assert.Greater(t, errs[1].Start, errs[0].Start)
	})

	t.Run("semicolon inside parens is not a boundary", func(t *testing.T) {
		errs := g.Check("SELECT * FROM users WHERE note = func(';'); SELECT 1;")

		assert.Empty(t, errs)
	})

	t.Run("one error per failing statement", func(t *testing.T) {
		errs := g.Check("SELECT FROM; SELECT FROM;")

		assert.Len(t, errs, 2)
	})
}

func TestCheck_ErrorOffsetsPointAtOffendingToken(t *testing.T) {
	g, err := For(m.DialectGeneric)
	require.NoError(t, err)

	sql := "SELECT a, b FROM t WHERE a = ORDER BY b;"
	errs := g.Check(sql)

	require.Len(t, errs, 1)
	assert.Equal(t, "ORDER", sql[errs[0].Start:errs[0].End])
}

func TestCheck_Determinism(t *testing.T) {
	g, err := For(m.DialectGeneric)
	require.NoError(t, err)

	sql := "bogus one; SELECT id FROM t; bogus two;"

	first := g.Check(sql)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, g.Check(sql))
	}
}
