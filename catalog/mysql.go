package catalog

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/federatedsql/multidb/schema"
)

// MySQL is the schema.CatalogAdapter for MySQL, grounded on
// multidb/dialect.py's MySQL.get_indexes (information_schema.statistics,
// grouped by index_name and ordered by seq_in_index) and the teacher's
// information_schema-based introspection idiom in database/mysql.
type MySQL struct{}

const mysqlColumnsQuery = `
	SELECT column_name, is_nullable, data_type, coalesce(character_maximum_length, 0)
	FROM information_schema.columns
	WHERE table_schema = ? AND table_name = ?
	ORDER BY ordinal_position`

func (MySQL) Columns(conn *sql.DB, schemaName, tableName string) ([]schema.ColumnSource, error) {
	rows, err := conn.Query(mysqlColumnsQuery, schemaName, tableName)
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

const mysqlIndexesQuery = `
	SELECT index_name, column_name, non_unique, collation
	FROM information_schema.statistics
	WHERE table_schema = ? AND table_name = ?
	ORDER BY index_name, seq_in_index`

func (MySQL) Indexes(conn *sql.DB, schemaName, tableName string) ([]schema.Index, error) {
	rows, err := conn.Query(mysqlIndexesQuery, schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	order := make([]string, 0)
	byName := make(map[string]*schema.Index)
	for rows.Next() {
		var indexName, columnName string
		var nonUnique int
		var collation sql.NullString
		if err := rows.Scan(&indexName, &columnName, &nonUnique, &collation); err != nil {
			return nil, err
		}
		ix, ok := byName[indexName]
		if !ok {
			ix = &schema.Index{Name: indexName, Unique: nonUnique == 0, Kind: schema.IndexBTree}
			byName[indexName] = ix
			order = append(order, indexName)
		}
		ix.Columns = append(ix.Columns, schema.IndexColumn{Name: columnName, Ascending: collation.String != "D"})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]schema.Index, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	return out, nil
}

func (MySQL) Probe(conn *sql.DB, schemaName, tableName string) error {
	q := fmt.Sprintf("SELECT * FROM %s LIMIT 1", escapeMySQLIdent(tableName))
	rows, err := conn.Query(q)
	if err != nil {
		return err
	}
	return rows.Close()
}

// escapeMySQLIdent backtick-quotes an identifier.
func escapeMySQLIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
