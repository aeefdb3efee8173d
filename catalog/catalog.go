// Package catalog implements the per-dialect introspection adapters
// (postgres, mysql, sqlite) that schema.OpenTable uses to construct a
// bound Table: column listing, index listing, and an existence probe.
// Grounded on the teacher's per-dialect database.Database implementations
// (database/postgres, database/mysql) plus multidb/dialect.py's
// BaseDialect/PostgreSQL/MySQL/SQLite classes for the introspection query
// shapes and the declared-type-to-engine-type mapping.
package catalog

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"github.com/federatedsql/multidb/schema"
)

// Open opens a *sql.DB for the given DBMS kind using the driver each
// blank import above registers under database/sql (lib/pq,
// go-sql-driver/mysql; modernc.org/sqlite registers itself via
// store/store.go's blank import), matching the one-sql.Open-per-dialect
// idiom in database/postgres/database.go and database/mysql/database.go.
func Open(kind schema.Kind, params schema.ConnParams, db string) (*sql.DB, error) {
	switch kind {
	case schema.KindPostgres:
		return sql.Open("postgres", postgresDSN(params, db))
	case schema.KindMySQL:
		return sql.Open("mysql", mysqlDSN(params, db))
	case schema.KindSQLite:
		return sql.Open("sqlite", params.Server)
	default:
		return nil, fmt.Errorf("unsupported dbms kind %v", kind)
	}
}

// AdapterFor returns the schema.CatalogAdapter for a DBMS kind.
func AdapterFor(kind schema.Kind) (schema.CatalogAdapter, error) {
	switch kind {
	case schema.KindPostgres:
		return Postgres{}, nil
	case schema.KindMySQL:
		return MySQL{}, nil
	case schema.KindSQLite:
		return SQLite{}, nil
	default:
		return nil, fmt.Errorf("unsupported dbms kind %v", kind)
	}
}
