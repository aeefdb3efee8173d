package catalog

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/federatedsql/multidb/parser"
	"github.com/federatedsql/multidb/schema"
)

// Postgres is the schema.CatalogAdapter for PostgreSQL, grounded on
// database/postgres/database.go's getColumns/getIndexDefs query shapes
// (simplified to the columns this engine actually needs) and
// multidb/dialect.py's PostgreSQL.get_indexes, which feeds pg_indexes'
// indexdef text through the index sub-parser (parser.ParseIndexDef).
type Postgres struct{}

const postgresColumnsQuery = `
	SELECT column_name, is_nullable, data_type, coalesce(character_maximum_length, 0)
	FROM information_schema.columns
	WHERE table_schema = $1 AND table_name = $2
	ORDER BY ordinal_position`

func (Postgres) Columns(conn *sql.DB, schemaName, tableName string) ([]schema.ColumnSource, error) {
	rows, err := conn.Query(postgresColumnsQuery, schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schema.ColumnSource
	for rows.Next() {
		var name, nullable, dataType string
		var maxLen int
		if err := rows.Scan(&name, &nullable, &dataType, &maxLen); err != nil {
			return nil, err
		}
		out = append(out, schema.ColumnSource{
			Name:     name,
			Nullable: nullable == "YES",
			Type:     mapDataType(dataType),
			MaxLen:   maxLen,
		})
	}
	return out, rows.Err()
}

const postgresIndexesQuery = `
	SELECT indexdef FROM pg_indexes
	WHERE schemaname = $1 AND tablename = $2
	ORDER BY indexname`

func (Postgres) Indexes(conn *sql.DB, schemaName, tableName string) ([]schema.Index, error) {
	rows, err := conn.Query(postgresIndexesQuery, schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schema.Index
	for rows.Next() {
		var indexdef string
		if err := rows.Scan(&indexdef); err != nil {
			return nil, err
		}
		def, err := parser.ParseIndexDef(indexdef)
		if err != nil {
			// A CREATE INDEX form this parser doesn't cover (e.g. a GIN/
			// GiST index on an expression); skip rather than fail the
			// whole table open, matching spec §3's "discarded" wording.
			continue
		}
		if strings.ToLower(def.Method) != "" && strings.ToLower(def.Method) != "btree" {
			continue
		}
		cols := make([]schema.IndexColumn, 0, len(def.Columns))
		for _, c := range def.Columns {
			cols = append(cols, schema.IndexColumn{Name: c.Name, Ascending: !c.Descending})
		}
		out = append(out, schema.Index{Name: def.Name, Columns: cols, Unique: def.Unique, Kind: schema.IndexBTree})
	}
	return out, rows.Err()
}

func (Postgres) Probe(conn *sql.DB, schemaName, tableName string) error {
	q := fmt.Sprintf(`SELECT * FROM %s.%s LIMIT 1`, escapePostgresIdent(schemaName), escapePostgresIdent(tableName))
	rows, err := conn.Query(q)
	if err != nil {
		return err
	}
	return rows.Close()
}

// escapePostgresIdent double-quotes an identifier, grounded on
// database/postgres/database.go's escapeSQLName.
func escapePostgresIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
