package control

import (
	"testing"

	"github.com/federatedsql/multidb/binder"
	"github.com/federatedsql/multidb/expr"
	"github.com/federatedsql/multidb/join"
	"github.com/federatedsql/multidb/parser"
	"github.com/federatedsql/multidb/rewrite"
	"github.com/federatedsql/multidb/schema"
	"github.com/federatedsql/multidb/store"
)

func TestHandleUseParsesFourGranularities(t *testing.T) {
	c := &Center{
		aliasDBMS:   make(map[string]string),
		aliasDB:     make(map[string][2]string),
		aliasSchema: make(map[string][3]string),
		aliasTable:  make(map[string][4]string),
	}

	cases := []struct {
		line string
		want int // expected dotted-part count
	}{
		{"  use prod as p  ", 1},
		{"  use prod.sales as s  ", 2},
		{"  use prod.sales.public as sp  ", 3},
		{"  use prod.sales.public.orders as o  ", 4},
	}
	for _, tc := range cases {
		ok, err := c.HandleUse(tc.line)
		if err != nil {
			t.Fatalf("HandleUse(%q): unexpected error %v", tc.line, err)
		}
		if !ok {
			t.Fatalf("HandleUse(%q): expected a match", tc.line)
		}
	}

	if dbms, ok := c.DBMSAlias("p"); !ok || dbms != "prod" {
		t.Fatalf("expected dbms alias p -> prod, got %q, %v", dbms, ok)
	}
	if dbms, db, ok := c.DBAlias("s"); !ok || dbms != "prod" || db != "sales" {
		t.Fatalf("unexpected db alias: %q %q %v", dbms, db, ok)
	}
	if dbms, db, sch, ok := c.SchemaAlias("sp"); !ok || dbms != "prod" || db != "sales" || sch != "public" {
		t.Fatalf("unexpected schema alias: %q %q %q %v", dbms, db, sch, ok)
	}
	if dbms, db, sch, tbl, ok := c.TableAlias("o"); !ok || dbms != "prod" || db != "sales" || sch != "public" || tbl != "orders" {
		t.Fatalf("unexpected table alias: %q %q %q %q %v", dbms, db, sch, tbl, ok)
	}
}

func TestHandleUseIgnoresNonUseLines(t *testing.T) {
	c := &Center{aliasDBMS: make(map[string]string)}
	ok, err := c.HandleUse("SELECT * FROM t")
	if err != nil || ok {
		t.Fatalf("expected no match for a plain query line, got ok=%v err=%v", ok, err)
	}
}

func TestIsExitMatchesCaseInsensitive(t *testing.T) {
	if !IsExit("  Exit  ") {
		t.Fatal("expected EXIT to match regardless of case/whitespace")
	}
	if IsExit("SELECT 1") {
		t.Fatal("did not expect a query line to match EXIT")
	}
}

func col(name string, t schema.DataType) *schema.Column {
	return &schema.Column{Name: name, Type: t}
}

// TestExecFromInnerJoinAndProjection exercises the full local path (no
// remote DBMS involved): two fixture tables' rows are inserted straight
// into the local mirror, then execFrom/projection run exactly as Execute
// would after the remote-fetch stage.
func TestExecFromInnerJoinAndProjection(t *testing.T) {
	dbms := schema.NewDBMS("db1", schema.KindPostgres, schema.ConnParams{})

	oID := col("id", schema.TypeInt)
	oCustomer := col("customer_id", schema.TypeInt)
	oID.MarkVisible()
	oCustomer.MarkPredicateUse() // referenced by the join's ON condition below
	orders := schema.NewTable(dbms, "db1", "s", "orders", []*schema.Column{oID, oCustomer}, nil)

	cID := col("id", schema.TypeInt)
	cName := col("name", schema.TypeString)
	cID.MarkPredicateUse() // referenced by the join's ON condition below
	cName.MarkVisible()
	customers := schema.NewTable(dbms, "db1", "s", "customers", []*schema.Column{cID, cName}, nil)

	plans, err := rewrite.BuildPlan([]*schema.Table{orders, customers})
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	planByTable := map[*schema.Table]rewrite.TablePlan{}
	local, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer local.Close()

	fixtures := map[*schema.Table][][]any{
		orders:    {{int64(1), int64(100)}, {int64(2), int64(200)}},
		customers: {{int64(100), "Acme"}},
	}
	for _, p := range plans {
		planByTable[p.Table] = p
		if err := local.Prepare(p); err != nil {
			t.Fatalf("Prepare: %v", err)
		}
		if err := local.Insert(p, fixtures[p.Table]); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	c := &Center{local: local}

	on := expr.Comparison{
		L:  expr.Column{ChainParts: []string{"orders", "customer_id"}, Bound: oCustomer},
		R:  expr.Column{ChainParts: []string{"customers", "id"}, Bound: cID},
		Op: expr.Eq,
	}
	pdnf := expr.BuildPDNF(on)
	from := &binder.BoundJoin{
		Kind:   parser.JoinInner,
		Left:   &binder.BoundTable{Table: orders},
		Right:  &binder.BoundTable{Table: customers},
		On:     on,
		OnPDNF: &pdnf,
	}

	rows, width, idx, err := c.execFrom(from, planByTable)
	if err != nil {
		t.Fatalf("execFrom: %v", err)
	}
	if width != 4 {
		t.Fatalf("expected combined width 4, got %d", width)
	}
	if len(rows) != 1 {
		t.Fatalf("expected exactly one matching row, got %d: %v", len(rows), rows)
	}

	list := []binder.BoundItem{
		{Expr: expr.Column{ChainParts: []string{"orders", "id"}, Bound: oID}, Alias: "id"},
		{Expr: expr.Column{ChainParts: []string{"customers", "name"}, Bound: cName}, Alias: "name"},
	}
	row := rows[0]
	for i, item := range list {
		v, isNull := join.EvalValue(item.Expr, row, idx)
		if isNull {
			t.Fatalf("column %s: unexpected NULL", item.Alias)
		}
		if i == 0 && v != int64(1) {
			t.Fatalf("expected order id 1, got %v", v)
		}
		if i == 1 && v != "Acme" {
			t.Fatalf("expected customer name Acme, got %v", v)
		}
	}
}
