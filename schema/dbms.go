// Package schema implements the bound catalog model (C10): DBMS, Table,
// Column, and Index, with the lifecycle and usage marks the binder (C11)
// and rewriter (C12) depend on.
package schema

import "database/sql"

// Kind identifies which wire dialect a DBMS entry speaks.
type Kind int

const (
	KindPostgres Kind = iota
	KindMySQL
	KindSQLite
)

func (k Kind) String() string {
	switch k {
	case KindPostgres:
		return "postgres"
	case KindMySQL:
		return "mysql"
	case KindSQLite:
		return "sqlite"
	default:
		return "?"
	}
}

// ConnParams carries the driver-specific connection fields a config entry
// supplies (spec §6 "Configuration (YAML)").
type ConnParams struct {
	Server   string
	User     string
	Password string
	Driver   string
}

// DBMS is a named endpoint: its kind, connection parameters, and a pool of
// open connections keyed by database name (spec §3 "DBMS"). It is owned by
// the ControlCenter for the process lifetime.
type DBMS struct {
	Name   string
	Kind   Kind
	Params ConnParams

	conns map[string]*sql.DB
}

// NewDBMS constructs a DBMS entry; connections are opened lazily by Conn.
func NewDBMS(name string, kind Kind, params ConnParams) *DBMS {
	return &DBMS{Name: name, Kind: kind, Params: params, conns: make(map[string]*sql.DB)}
}

// Conn returns the pooled connection for database db, opening it on first
// use via opener (supplied by the catalog adapter for this DBMS's kind, so
// this package stays independent of any particular SQL driver import).
func (d *DBMS) Conn(db string, opener func(kind Kind, params ConnParams, db string) (*sql.DB, error)) (*sql.DB, error) {
	if conn, ok := d.conns[db]; ok {
		return conn, nil
	}
	conn, err := opener(d.Kind, d.Params, db)
	if err != nil {
		return nil, err
	}
	d.conns[db] = conn
	return conn, nil
}

// Close closes every pooled connection; called at process shutdown.
func (d *DBMS) Close() error {
	var firstErr error
	for _, conn := range d.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	d.conns = make(map[string]*sql.DB)
	return firstErr
}
