package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/federatedsql/multidb/schema"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture config: %v", err)
	}
	return path
}

func TestLoadParsesDocument(t *testing.T) {
	path := writeConfig(t, `
prod:
  type: psql
  server: db.internal
  port: 5432
  user: alice
  password: secret
  database: sales
sales_mysql:
  type: mysql
  server: mysql.internal
  user: bob
  password: hunter2
`)

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(doc) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(doc))
	}

	prod := doc["prod"]
	kind, err := prod.Kind()
	if err != nil || kind != schema.KindPostgres {
		t.Fatalf("expected prod to be postgres, got %v, err=%v", kind, err)
	}
	params := prod.ConnParams()
	if params.Server != "db.internal:5432" {
		t.Fatalf("expected server:port folded in, got %q", params.Server)
	}

	mysqlEntry := doc["sales_mysql"]
	kind, err = mysqlEntry.Kind()
	if err != nil || kind != schema.KindMySQL {
		t.Fatalf("expected sales_mysql to be mysql, got %v, err=%v", kind, err)
	}
	if mysqlEntry.ConnParams().Server != "mysql.internal" {
		t.Fatalf("expected no port suffix when port is unset, got %q", mysqlEntry.ConnParams().Server)
	}
}

func TestLoadRejectsUnknownField(t *testing.T) {
	path := writeConfig(t, `
prod:
  type: psql
  server: db.internal
  bogus_field: oops
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an unknown config field")
	}
}

func TestKindRejectsUnsupportedType(t *testing.T) {
	e := Entry{Type: "oracle"}
	if _, err := e.Kind(); err == nil {
		t.Fatal("expected an error for an unsupported dbms type")
	}
}
