package rewrite

import (
	"strings"
	"testing"

	"github.com/federatedsql/multidb/expr"
	"github.com/federatedsql/multidb/schema"
)

func col(name string, t schema.DataType) *schema.Column {
	return &schema.Column{Name: name, Type: t}
}

func TestBuildPlanProjectsOnlyFetchColumns(t *testing.T) {
	dbms := schema.NewDBMS("db1", schema.KindPostgres, schema.ConnParams{})
	visible := col("a", schema.TypeInt)
	visible.MarkVisible()
	unused := col("b", schema.TypeString)
	tbl := schema.NewTable(dbms, "db1", "s", "t", []*schema.Column{visible, unused}, nil)

	plans, err := BuildPlan([]*schema.Table{tbl})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plans) != 1 {
		t.Fatalf("expected 1 plan, got %d", len(plans))
	}
	p := plans[0]
	if len(p.Columns) != 1 || p.Columns[0].Name != "a" {
		t.Fatalf("expected only column a to be projected, got %v", p.Columns)
	}
	if !strings.Contains(p.SelectSQL, `"a"`) || strings.Contains(p.SelectSQL, `"b"`) {
		t.Fatalf("unexpected SELECT text: %q", p.SelectSQL)
	}
	if !strings.HasPrefix(p.SelectSQL, `SELECT "a" FROM "s"."t"`) {
		t.Fatalf("unexpected SELECT shape: %q", p.SelectSQL)
	}
}

func TestBuildPlanPushesDownFilterAsPlaceholder(t *testing.T) {
	dbms := schema.NewDBMS("db1", schema.KindMySQL, schema.ConnParams{})
	a := col("a", schema.TypeInt)
	a.MarkVisible()
	tbl := schema.NewTable(dbms, "db1", "s", "t", []*schema.Column{a}, nil)
	tbl.AddFilter(expr.Comparison{
		L:  expr.Column{ChainParts: []string{"t", "a"}, Bound: a},
		R:  expr.Int{Value: 1},
		Op: expr.Eq,
	})

	plans, err := BuildPlan([]*schema.Table{tbl})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := plans[0]
	if !strings.Contains(p.SelectSQL, "WHERE") || !strings.Contains(p.SelectSQL, "?") {
		t.Fatalf("expected a parameterized WHERE clause, got %q", p.SelectSQL)
	}
	if len(p.Args) != 1 || p.Args[0] != int64(1) {
		t.Fatalf("expected one bound arg of 1, got %v", p.Args)
	}
}

func TestMirrorTableNameSanitizesAndCreateInsertShapes(t *testing.T) {
	dbms := schema.NewDBMS("db-1", schema.KindPostgres, schema.ConnParams{})
	a := col("a", schema.TypeInt)
	a.MarkVisible()
	tbl := schema.NewTable(dbms, "sales", "public", "orders", []*schema.Column{a}, nil)

	mirror := MirrorTableName(tbl)
	if mirror != "db_1_sales_public_orders" {
		t.Fatalf("unexpected mirror name: %q", mirror)
	}

	plans, err := BuildPlan([]*schema.Table{tbl})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := plans[0]
	if !strings.HasPrefix(p.CreateSQL, "CREATE TABLE IF NOT EXISTS "+mirror+" (a INTEGER)") {
		t.Fatalf("unexpected CREATE TABLE text: %q", p.CreateSQL)
	}
	if p.InsertSQL != "INSERT INTO "+mirror+" (a) VALUES (?)" {
		t.Fatalf("unexpected INSERT text: %q", p.InsertSQL)
	}
}

func TestRenderExprHandlesIsTrueFalseNull(t *testing.T) {
	dbms := schema.NewDBMS("db1", schema.KindPostgres, schema.ConnParams{})
	a := col("a", schema.TypeBool)
	a.MarkVisible()
	tbl := schema.NewTable(dbms, "db1", "s", "t", []*schema.Column{a}, nil)
	tbl.AddFilter(expr.Is{Left: expr.Column{ChainParts: []string{"t", "a"}, Bound: a}, Right: expr.TVFalse})

	plans, err := BuildPlan([]*schema.Table{tbl})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(plans[0].SelectSQL, `"a" IS FALSE`) {
		t.Fatalf("expected an IS FALSE predicate, got %q", plans[0].SelectSQL)
	}
}
