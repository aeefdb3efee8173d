package join

import (
	"testing"

	"github.com/federatedsql/multidb/expr"
	"github.com/federatedsql/multidb/schema"
)

func TestCrossJoinProducesCartesianProduct(t *testing.T) {
	left := []Row{{int64(1)}, {int64(2)}}
	right := []Row{{"a"}, {"b"}, {"c"}}
	out := CrossJoin(left, right)
	if len(out) != 6 {
		t.Fatalf("expected 6 rows, got %d", len(out))
	}
}

func equalRowSets(t *testing.T, got []Row, want [][]any) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d rows, got %d: %v", len(want), len(got), got)
	}
	matched := make([]bool, len(want))
outer:
	for _, g := range got {
		for i, w := range want {
			if matched[i] {
				continue
			}
			if rowEquals(Row(w), g) {
				matched[i] = true
				continue outer
			}
		}
		t.Fatalf("unexpected row %v not found among expected rows %v", g, want)
	}
}

func rowEquals(a, b Row) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSortMergeInnerJoinOnIntKey(t *testing.T) {
	left := []Row{{int64(1), "l1"}, {int64(2), "l2"}, {int64(3), "l3"}}
	right := []Row{{int64(2), "r2"}, {int64(3), "r3a"}, {int64(3), "r3b"}, {int64(4), "r4"}}
	pairs := []ColPair{{Left: 0, Right: 0}}
	pred := func(Row) bool { return true }

	out := SortMerge(KindInner, left, right, 2, 2, pairs, pred)
	equalRowSets(t, out, [][]any{
		{int64(2), "l2", int64(2), "r2"},
		{int64(3), "l3", int64(3), "r3a"},
		{int64(3), "l3", int64(3), "r3b"},
	})
}

func TestSortMergeLeftJoinPadsUnmatchedLeftRows(t *testing.T) {
	left := []Row{{int64(1), "l1"}, {int64(2), "l2"}}
	right := []Row{{int64(2), "r2"}}
	pairs := []ColPair{{Left: 0, Right: 0}}
	pred := func(Row) bool { return true }

	out := SortMerge(KindLeft, left, right, 2, 2, pairs, pred)
	equalRowSets(t, out, [][]any{
		{int64(1), "l1", nil, nil},
		{int64(2), "l2", int64(2), "r2"},
	})
}

func TestSortMergeNullKeysNeverMatch(t *testing.T) {
	left := []Row{{nil, "l1"}}
	right := []Row{{nil, "r1"}}
	pairs := []ColPair{{Left: 0, Right: 0}}
	pred := func(Row) bool { return true }

	out := SortMerge(KindInner, left, right, 2, 2, pairs, pred)
	if len(out) != 0 {
		t.Fatalf("expected no matches for NULL-keyed rows, got %v", out)
	}

	outer := SortMerge(KindFull, left, right, 2, 2, pairs, pred)
	equalRowSets(t, outer, [][]any{
		{nil, "l1", nil, nil},
		{nil, nil, nil, "r1"},
	})
}

func TestQualifiedJoinRightDerivesFromLeft(t *testing.T) {
	left := []Row{{int64(1), "l1"}}
	right := []Row{{int64(1), "r1"}, {int64(2), "r2"}}
	pairs := []ColPair{{Left: 0, Right: 0}}
	pred := func(Row) bool { return true }

	out := QualifiedJoin(KindRight, left, right, 2, 2, pairs, pred)
	equalRowSets(t, out, [][]any{
		{int64(1), "l1", int64(1), "r1"},
		{nil, nil, int64(2), "r2"},
	})
}

func TestQualifiedJoinFullUnionsBothUnmatchedSides(t *testing.T) {
	left := []Row{{int64(1), "l1"}, {int64(9), "l9"}}
	right := []Row{{int64(1), "r1"}, {int64(8), "r8"}}
	pairs := []ColPair{{Left: 0, Right: 0}}
	pred := func(Row) bool { return true }

	out := QualifiedJoin(KindFull, left, right, 2, 2, pairs, pred)
	equalRowSets(t, out, [][]any{
		{int64(1), "l1", int64(1), "r1"},
		{int64(9), "l9", nil, nil},
		{nil, nil, int64(8), "r8"},
	})
}

func TestBruteForceFallbackWhenNoEqualityPairs(t *testing.T) {
	left := []Row{{int64(1)}, {int64(5)}}
	right := []Row{{int64(3)}, {int64(10)}}
	pred := func(row Row) bool {
		l := row[0].(int64)
		r := row[1].(int64)
		return l < r
	}
	out := BruteForce(KindInner, left, right, 1, 1, pred)
	equalRowSets(t, out, [][]any{
		{int64(1), int64(3)},
		{int64(1), int64(10)},
		{int64(5), int64(10)},
	})
}

func TestExtractEqualityPairsFindsEquiJoinColumns(t *testing.T) {
	dbms := schema.NewDBMS("db1", schema.KindPostgres, schema.ConnParams{})
	la := &schema.Column{Name: "a", Type: schema.TypeInt}
	ra := &schema.Column{Name: "a", Type: schema.TypeInt}
	schema.NewTable(dbms, "db1", "s", "t1", []*schema.Column{la}, nil)
	schema.NewTable(dbms, "db1", "s", "t2", []*schema.Column{ra}, nil)

	leftIdx := ColumnIndex{la: 0}
	rightIdx := ColumnIndex{ra: 0}

	on := expr.Comparison{
		L:  expr.Column{ChainParts: []string{"t1", "a"}, Bound: la},
		R:  expr.Column{ChainParts: []string{"t2", "a"}, Bound: ra},
		Op: expr.Eq,
	}
	pairs := ExtractEqualityPairs(on, leftIdx, rightIdx)
	if len(pairs) != 1 || pairs[0] != (ColPair{Left: 0, Right: 0}) {
		t.Fatalf("expected one (0,0) pair, got %v", pairs)
	}
}

func TestPDNFPredicateEvaluatesResidualCondition(t *testing.T) {
	dbms := schema.NewDBMS("db1", schema.KindPostgres, schema.ConnParams{})
	la := &schema.Column{Name: "a", Type: schema.TypeInt}
	ra := &schema.Column{Name: "b", Type: schema.TypeInt}
	schema.NewTable(dbms, "db1", "s", "t1", []*schema.Column{la}, nil)
	schema.NewTable(dbms, "db1", "s", "t2", []*schema.Column{ra}, nil)

	on := expr.Comparison{
		L:  expr.Column{ChainParts: []string{"t1", "a"}, Bound: la},
		R:  expr.Column{ChainParts: []string{"t2", "b"}, Bound: ra},
		Op: expr.Gt,
	}
	pdnf := expr.BuildPDNF(on)
	combinedIdx := ColumnIndex{la: 0, ra: 1}
	pred := PDNFPredicate(&pdnf, combinedIdx)

	if !pred(Row{int64(5), int64(3)}) {
		t.Fatal("expected 5 > 3 to satisfy the predicate")
	}
	if pred(Row{int64(1), int64(3)}) {
		t.Fatal("expected 1 > 3 to fail the predicate")
	}
	if pred(Row{nil, int64(3)}) {
		t.Fatal("expected a NULL operand to fail (three-valued NULL is not TRUE)")
	}
}
