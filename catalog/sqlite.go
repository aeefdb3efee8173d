package catalog

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/federatedsql/multidb/schema"
)

// SQLite is the schema.CatalogAdapter for the local embedded mirror store
// (modernc.org/sqlite, same driver as database/sqlite3/database.go). The
// mirror's own tables are created by rewrite/rewrite.go with known types,
// so introspection here mostly exists to make the local store a uniform
// citizen alongside the two remote dialects (spec §3 "local DBMS kind").
type SQLite struct{}

func (SQLite) Columns(conn *sql.DB, schemaName, tableName string) ([]schema.ColumnSource, error) {
	rows, err := conn.Query(fmt.Sprintf("PRAGMA table_info(%s)", escapeSQLiteIdent(tableName)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schema.ColumnSource
	for rows.Next() {
		var cid int
		var name, declType string
		var notNull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &declType, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		out = append(out, schema.ColumnSource{
			Name:     name,
			Nullable: notNull == 0,
			Type:     mapDataType(declType),
		})
	}
	return out, rows.Err()
}

func (SQLite) Indexes(conn *sql.DB, schemaName, tableName string) ([]schema.Index, error) {
	rows, err := conn.Query(fmt.Sprintf("PRAGMA index_list(%s)", escapeSQLiteIdent(tableName)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type listed struct {
		name   string
		unique bool
	}
	var list []listed
	for rows.Next() {
		var seq int
		var name, origin string
		var unique, partial int
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return nil, err
		}
		list = append(list, listed{name: name, unique: unique == 1})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]schema.Index, 0, len(list))
	for _, l := range list {
		colRows, err := conn.Query(fmt.Sprintf("PRAGMA index_info(%s)", escapeSQLiteIdent(l.name)))
		if err != nil {
			return nil, err
		}
		var cols []schema.IndexColumn
		for colRows.Next() {
			var seqno, cid int
			var colName string
			if err := colRows.Scan(&seqno, &cid, &colName); err != nil {
				colRows.Close()
				return nil, err
			}
			cols = append(cols, schema.IndexColumn{Name: colName, Ascending: true})
		}
		colRows.Close()
		out = append(out, schema.Index{Name: l.name, Columns: cols, Unique: l.unique, Kind: schema.IndexBTree})
	}
	return out, nil
}

func (SQLite) Probe(conn *sql.DB, schemaName, tableName string) error {
	rows, err := conn.Query(fmt.Sprintf("SELECT * FROM %s LIMIT 1", escapeSQLiteIdent(tableName)))
	if err != nil {
		return err
	}
	return rows.Close()
}

func escapeSQLiteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
