package parser

import "testing"

func TestParseIndexDefSimple(t *testing.T) {
	def, err := ParseIndexDef("CREATE INDEX idx_t_a ON public.t USING btree (a)")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if def.Name != "idx_t_a" {
		t.Fatalf("expected name idx_t_a, got %s", def.Name)
	}
	if def.Table.String() != "public.t" {
		t.Fatalf("expected table public.t, got %s", def.Table.String())
	}
	if def.Method != "btree" {
		t.Fatalf("expected method btree, got %s", def.Method)
	}
	if def.Unique {
		t.Fatal("expected a non-unique index")
	}
	if len(def.Columns) != 1 || def.Columns[0].Name != "a" {
		t.Fatalf("expected one column 'a', got %#v", def.Columns)
	}
}

func TestParseIndexDefUniqueMultiColumnWithModifiers(t *testing.T) {
	def, err := ParseIndexDef(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_t_ab ON s.t USING btree (a DESC NULLS LAST, b COLLATE \"C\" ASC)")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !def.Unique {
		t.Fatal("expected a unique index")
	}
	if len(def.Columns) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(def.Columns))
	}
	a := def.Columns[0]
	if a.Name != "a" || !a.Descending || !a.NullsLast {
		t.Fatalf("expected a DESC NULLS LAST, got %#v", a)
	}
	b := def.Columns[1]
	if b.Name != "b" || b.Collate != "C" || b.Descending {
		t.Fatalf("expected b COLLATE C ASC, got %#v", b)
	}
}

func TestParseIndexDefExpressionColumn(t *testing.T) {
	def, err := ParseIndexDef("CREATE INDEX idx_expr ON t ((a + 1))")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(def.Columns) != 1 || def.Columns[0].Expr == nil {
		t.Fatalf("expected one expression column, got %#v", def.Columns)
	}
}
