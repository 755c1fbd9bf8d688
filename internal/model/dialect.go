package model

import (
	"fmt"
	"strings"
)

// Dialect identifies the SQL grammar variant used for validation.
type Dialect string

// Supported dialects. Generic accepts the common ANSI-like subset across
// targets and is the recommended choice for codebases mixing dialects.
const (
	DialectGeneric    Dialect = "generic"
	DialectAnsi       Dialect = "ansi"
	DialectPostgreSQL Dialect = "postgresql"
	DialectMySQL      Dialect = "mysql"
	DialectSQLite     Dialect = "sqlite"
	DialectMsSQL      Dialect = "mssql"
	DialectOracle     Dialect = "oracle"
	DialectBigQuery   Dialect = "bigquery"
	DialectClickHouse Dialect = "clickhouse"
	DialectDuckDB     Dialect = "duckdb"
	DialectHive       Dialect = "hive"
	DialectRedshift   Dialect = "redshift"
	DialectSnowflake  Dialect = "snowflake"
)

// Dialects lists every supported dialect in display order.
func Dialects() []Dialect {
	return []Dialect{
		DialectGeneric,
		DialectAnsi,
		DialectPostgreSQL,
		DialectMySQL,
		DialectSQLite,
		DialectMsSQL,
		DialectOracle,
		DialectBigQuery,
		DialectClickHouse,
		DialectDuckDB,
		DialectHive,
		DialectRedshift,
		DialectSnowflake,
	}
}

// ParseDialect resolves a configured dialect name, accepting the common
// aliases users write in configs.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "generic", "default", "":
		return DialectGeneric, nil
	case "ansi":
		return DialectAnsi, nil
	case "postgresql", "postgres", "pg":
		return DialectPostgreSQL, nil
	case "mysql":
		return DialectMySQL, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "mssql", "sqlserver", "tsql":
		return DialectMsSQL, nil
	case "oracle":
		return DialectOracle, nil
	case "bigquery":
		return DialectBigQuery, nil
	case "clickhouse":
		return DialectClickHouse, nil
	case "duckdb":
		return DialectDuckDB, nil
	case "hive":
		return DialectHive, nil
	case "redshift":
		return DialectRedshift, nil
	case "snowflake":
		return DialectSnowflake, nil
	}

	return "", fmt.Errorf("unsupported dialect %q", s)
}
