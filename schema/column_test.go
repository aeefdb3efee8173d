package schema

import "testing"

func TestDataTypeSQLiteType(t *testing.T) {
	cases := map[DataType]string{
		TypeInt:         "INTEGER",
		TypeFloat:       "REAL",
		TypeBool:        "INTEGER",
		TypeString:      "TEXT",
		TypeDate:        "TEXT",
		TypeDatetime:    "TEXT",
		TypeUnsupported: "BLOB",
	}
	for dt, want := range cases {
		if got := dt.SQLiteType(); got != want {
			t.Errorf("%s.SQLiteType() = %s, want %s", dt, got, want)
		}
	}
}

func TestColumnMarkUsedRejectsUnsupportedType(t *testing.T) {
	c := &Column{Name: "blob_col", Type: TypeUnsupported}
	if err := c.MarkUsed(); err == nil {
		t.Fatal("expected MarkUsed on an unsupported-typed column to error")
	}
	if c.Used() {
		t.Fatal("Used must remain false when MarkUsed fails")
	}
}

func TestColumnMarkVisibleImpliesUsed(t *testing.T) {
	c := &Column{Name: "a", Type: TypeInt}
	if err := c.MarkVisible(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.Used() || !c.Visible() {
		t.Fatalf("expected Used=true Visible=true, got Used=%v Visible=%v", c.Used(), c.Visible())
	}
}

func TestColumnNeedsFetch(t *testing.T) {
	notUsed := &Column{Name: "a", Type: TypeInt}
	if notUsed.NeedsFetch() {
		t.Fatal("an unused column must not need fetching")
	}

	visibleOnly := &Column{Name: "b", Type: TypeInt}
	visibleOnly.MarkVisible()
	if !visibleOnly.NeedsFetch() {
		t.Fatal("a visible column must need fetching")
	}

	predicateOnly := &Column{Name: "c", Type: TypeInt}
	predicateOnly.MarkPredicateUse()
	if !predicateOnly.NeedsFetch() {
		t.Fatal("a column referenced only in a predicate must still need fetching")
	}

	usedButNeither := &Column{Name: "d", Type: TypeInt}
	usedButNeither.MarkUsed()
	if usedButNeither.NeedsFetch() {
		t.Fatal("a column that is merely used (neither visible nor predicate-referenced) must not need fetching")
	}
}
