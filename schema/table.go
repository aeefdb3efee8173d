package schema

import (
	"database/sql"
	"fmt"

	"github.com/federatedsql/multidb/expr"
	"github.com/federatedsql/multidb/perr"
)

// ColumnSource describes one catalog-reported column, as returned by a
// catalog adapter's introspection query (spec §4.1 of the dialect design,
// grounded on information_schema.columns).
type ColumnSource struct {
	Name     string
	Nullable bool
	Type     DataType
	MaxLen   int
}

// CatalogAdapter is the per-dialect introspection surface a Table needs to
// construct itself: column listing, index listing, and an existence probe.
// Implemented by catalog.Postgres / catalog.MySQL / catalog.SQLite (C9);
// kept as an interface here so schema does not import catalog (which would
// import schema back).
type CatalogAdapter interface {
	Columns(conn *sql.DB, schemaName, tableName string) ([]ColumnSource, error)
	Indexes(conn *sql.DB, schemaName, tableName string) ([]Index, error)
	Probe(conn *sql.DB, schemaName, tableName string) error
}

// Table is a bound (DBMS, database, schema, table) identity (spec §3
// "Table (bound)"): opened on first reference by the binder, lives for the
// query, and is released at query end.
type Table struct {
	DBMS     *DBMS
	Database string
	Schema   string
	Name     string

	Columns      []*Column
	nameToColumn map[string]*Column
	Indexes      []Index

	// Filters holds the single-table predicates the binder has pushed down
	// onto this table (spec §4.7's "pushed-down filters").
	Filters []expr.Expr

	conn *sql.DB
}

// OpenTable constructs a Table, running the catalog adapter's column and
// index introspection and a `SELECT * FROM t LIMIT 1` existence probe
// (spec §4.6 "opening a cursor, listing catalog columns and indexes, and
// verifying the table exists").
func OpenTable(dbms *DBMS, conn *sql.DB, adapter CatalogAdapter, database, schemaName, tableName string) (*Table, error) {
	indexes, err := adapter.Indexes(conn, schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("list indexes for %s.%s: %w", schemaName, tableName, err)
	}

	sources, err := adapter.Columns(conn, schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("list columns for %s.%s: %w", schemaName, tableName, err)
	}
	if len(sources) == 0 {
		return nil, &perr.SemanticError{Msg: fmt.Sprintf("columns not found for table %s.%s.%s", database, schemaName, tableName)}
	}

	t := &Table{
		DBMS:         dbms,
		Database:     database,
		Schema:       schemaName,
		Name:         tableName,
		Indexes:      indexes,
		nameToColumn: make(map[string]*Column),
		conn:         conn,
	}

	for _, src := range sources {
		col := &Column{Table: t, Name: src.Name, Nullable: src.Nullable, Type: src.Type, MaxLen: src.MaxLen}
		for i := range indexes {
			if _, ok := indexes[i].HasColumn(src.Name); ok {
				col.Index = &indexes[i]
				break
			}
		}
		t.Columns = append(t.Columns, col)
		t.nameToColumn[src.Name] = col
	}

	if err := adapter.Probe(conn, schemaName, tableName); err != nil {
		return nil, &perr.SemanticError{Msg: fmt.Sprintf("table %s.%s.%s not found: %s", database, schemaName, tableName, err)}
	}

	return t, nil
}

// NewTable builds a Table directly from an already-known column list,
// bypassing catalog introspection. Used by tests and by any caller that
// already has the column set in hand (e.g. a fixture for the join
// executor or the rewriter).
func NewTable(dbms *DBMS, database, schemaName, name string, columns []*Column, indexes []Index) *Table {
	t := &Table{
		DBMS:         dbms,
		Database:     database,
		Schema:       schemaName,
		Name:         name,
		Indexes:      indexes,
		nameToColumn: make(map[string]*Column),
	}
	for _, c := range columns {
		c.Table = t
		t.Columns = append(t.Columns, c)
		t.nameToColumn[c.Name] = c
	}
	return t
}

// Column looks up a column by name, the lookup the binder uses to resolve
// `table.column` references.
func (t *Table) Column(name string) (*Column, bool) {
	c, ok := t.nameToColumn[name]
	return c, ok
}

// FetchColumns returns every column the rewriter must project: used and
// (visible or referenced by a predicate).
func (t *Table) FetchColumns() []*Column {
	var out []*Column
	for _, c := range t.Columns {
		if c.NeedsFetch() {
			out = append(out, c)
		}
	}
	return out
}

// AddFilter pushes a single-table predicate down onto this Table.
func (t *Table) AddFilter(e expr.Expr) {
	t.Filters = append(t.Filters, e)
}

// Identity returns the four-part dotted identity used as this table's key
// in the binder's name_to_table map.
func (t *Table) Identity() [4]string {
	return [4]string{t.DBMS.Name, t.Database, t.Schema, t.Name}
}
