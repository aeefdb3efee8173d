// Package store implements the local embedded mirror (C17): a single
// modernc.org/sqlite handle that the Control Center reinitializes for every
// query (spec §4.7/§5's "reinitialized per query" local store lifecycle),
// realized per SPEC_FULL.md §4.12 as CREATE TABLE IF NOT EXISTS once per
// mirror table plus a DELETE FROM between queries, so the one-time driver
// connection cost is paid only once per Control Center session.
//
// Grounded on database/sqlite3/sqlite3.go's Sqlite3Database (sql.Open,
// *sql.DB field, Close) for the handle lifecycle; the row-materialization
// helper below follows the same database/sql scan-into-[]any shape used by
// catalog's introspection queries (catalog/postgres.go, catalog/mysql.go).
package store

import (
	"database/sql"
	"fmt"

	"github.com/federatedsql/multidb/join"
	"github.com/federatedsql/multidb/rewrite"

	_ "modernc.org/sqlite"
)

// Store wraps the local mirror's single *sql.DB handle.
type Store struct {
	db *sql.DB
}

// Open opens the local mirror at path (a filesystem path, or ":memory:").
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the local store's handle; called at process shutdown.
func (s *Store) Close() error {
	return s.db.Close()
}

// Prepare ensures plan's mirror table exists and is empty, ready to receive
// this query's remote rows (spec §4.12's CREATE TABLE IF NOT EXISTS +
// truncate cycle).
func (s *Store) Prepare(plan rewrite.TablePlan) error {
	if _, err := s.db.Exec(plan.CreateSQL); err != nil {
		return fmt.Errorf("create mirror table %s: %w", plan.MirrorName, err)
	}
	if _, err := s.db.Exec("DELETE FROM " + plan.MirrorName); err != nil {
		return fmt.Errorf("truncate mirror table %s: %w", plan.MirrorName, err)
	}
	return nil
}

// Insert mirrors rows fetched from plan's remote source into its local
// table, one parameterized INSERT per row (spec §4.7 "stream remote results
// into them").
func (s *Store) Insert(plan rewrite.TablePlan, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	stmt, err := s.db.Prepare(plan.InsertSQL)
	if err != nil {
		return fmt.Errorf("prepare insert into %s: %w", plan.MirrorName, err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.Exec(row...); err != nil {
			return fmt.Errorf("insert into %s: %w", plan.MirrorName, err)
		}
	}
	return nil
}

// Fetch reads plan's mirrored rows back out, in the same column order
// rewrite.BuildPlan projected them (so the join executor's column indices,
// built off plan.Columns, stay valid against the returned join.Row slice).
func (s *Store) Fetch(plan rewrite.TablePlan) ([]join.Row, error) {
	cols := make([]string, len(plan.Columns))
	for i, c := range plan.Columns {
		cols[i] = c.Name
	}
	query := "SELECT " + joinIdents(cols) + " FROM " + plan.MirrorName
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("fetch mirror table %s: %w", plan.MirrorName, err)
	}
	defer rows.Close()
	return scanRows(rows, len(cols))
}

func joinIdents(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}

func scanRows(rows *sql.Rows, ncols int) ([]join.Row, error) {
	var out []join.Row
	for rows.Next() {
		vals := make([]any, ncols)
		ptrs := make([]any, ncols)
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		out = append(out, join.Row(vals))
	}
	return out, rows.Err()
}
