package expr

import "testing"

func TestConvolveIdempotent(t *testing.T) {
	cases := []Expr{
		Numeric{Op: OpAdd, L: Int{Value: 1}, R: Numeric{Op: OpMul, L: Int{Value: 2}, R: Int{Value: 3}}},
		Numeric{Op: OpAdd, L: Column{ChainParts: []string{"a"}}, R: Numeric{Op: OpMul, L: Int{Value: 0}, R: Column{ChainParts: []string{"b"}}}},
		Numeric{Op: OpDiv, L: Int{Value: 5}, R: Int{Value: 0}},
		Not{Child: Comparison{L: Column{ChainParts: []string{"a"}}, R: Column{ChainParts: []string{"b"}}, Op: Eq}},
	}
	for _, e := range cases {
		once := e.Convolve()
		twice := once.Convolve()
		if !sameShape(once, twice) {
			t.Errorf("convolution not idempotent for %#v: once=%#v twice=%#v", e, once, twice)
		}
	}
}

func sameShape(a, b Expr) bool {
	switch av := a.(type) {
	case Int:
		bv, ok := b.(Int)
		return ok && av.Value == bv.Value
	case Float:
		bv, ok := b.(Float)
		return ok && av.Value == bv.Value
	case BoolLit:
		bv, ok := b.(BoolLit)
		return ok && av.Value == bv.Value
	case NullLit:
		_, ok := b.(NullLit)
		return ok
	case Column:
		bv, ok := b.(Column)
		return ok && len(av.ChainParts) == len(bv.ChainParts)
	case Comparison:
		bv, ok := b.(Comparison)
		return ok && av.Op == bv.Op
	default:
		return true
	}
}

func TestConvolutionScenario4(t *testing.T) {
	// 1 + 2 * 3 -> Int(7)
	e := Numeric{Op: OpAdd, L: Int{Value: 1}, R: Numeric{Op: OpMul, L: Int{Value: 2}, R: Int{Value: 3}}}
	got := e.Convolve()
	iv, ok := got.(Int)
	if !ok || iv.Value != 7 {
		t.Fatalf("1 + 2*3 convolved to %#v, want Int(7)", got)
	}

	// a + 0*b -> a
	a := Column{ChainParts: []string{"a"}}
	b := Column{ChainParts: []string{"b"}}
	e2 := Numeric{Op: OpAdd, L: a, R: Numeric{Op: OpMul, L: Int{Value: 0}, R: b}}
	got2 := e2.Convolve()
	cv, ok := got2.(Column)
	if !ok || cv.ChainParts[0] != "a" {
		t.Fatalf("a + 0*b convolved to %#v, want Column(a)", got2)
	}

	// 5 / 0 -> Null
	e3 := Numeric{Op: OpDiv, L: Int{Value: 5}, R: Int{Value: 0}}
	if _, ok := e3.Convolve().(NullLit); !ok {
		t.Fatalf("5/0 convolved to %#v, want Null", e3.Convolve())
	}

	// NOT (a = b) -> a <> b
	e4 := Not{Child: Comparison{L: a, R: b, Op: Eq}}
	got4 := e4.Convolve()
	comp, ok := got4.(Comparison)
	if !ok || comp.Op != Neq {
		t.Fatalf("NOT(a=b) convolved to %#v, want Comparison(<>)", got4)
	}
}

func TestIsConvolutionNullLeft(t *testing.T) {
	// NULL IS NULL -> TRUE
	isNull := Is{Left: NullLit{}, Right: TVNull}
	if v, ok := isNull.Convolve().(BoolLit); !ok || !v.Value {
		t.Fatalf("NULL IS NULL convolved to %#v, want TRUE", isNull.Convolve())
	}
	// NULL IS TRUE -> FALSE
	isTrue := Is{Left: NullLit{}, Right: TVTrue}
	if v, ok := isTrue.Convolve().(BoolLit); !ok || v.Value {
		t.Fatalf("NULL IS TRUE convolved to %#v, want FALSE", isTrue.Convolve())
	}
}

func TestPDNFScenario1(t *testing.T) {
	// WHERE t.a = 1 AND t.b IS NULL ; bases = {a=1, b IS NULL}; PDNF = {(T,T)}
	aEq1 := Comparison{L: Column{ChainParts: []string{"a"}}, R: Int{Value: 1}, Op: Eq}
	bIsNull := Is{Left: Column{ChainParts: []string{"b"}}, Right: TVNull}
	where := Bool{Op: OpAnd, L: aEq1, R: bIsNull}

	pdnf := BuildPDNF(where)
	if len(pdnf.Bases) != 2 {
		t.Fatalf("expected 2 base expressions, got %d", len(pdnf.Bases))
	}
	if len(pdnf.Vectors) != 1 || pdnf.Vectors[0][0] != TVTrue || pdnf.Vectors[0][1] != TVTrue {
		t.Fatalf("expected PDNF {(TRUE,TRUE)}, got %v", pdnf.Vectors)
	}
}

func TestPDNFCompleteness(t *testing.T) {
	// Property 3: for every v, v in PDNF(e) iff e.calculate(v) == TRUE.
	e := Bool{Op: OpOr, L: Comparison{Op: Eq}, R: Comparison{Op: Neq}}
	pdnf := BuildPDNF(e)
	alphabet := [3]TV{TVFalse, TVNull, TVTrue}
	for _, a := range alphabet {
		for _, b := range alphabet {
			v := []TV{a, b}
			want := Calculate(e, v) == TVTrue
			got := pdnf.Accepts(v)
			if want != got {
				t.Errorf("vector %v: Accepts=%v, Calculate==TRUE=%v", v, got, want)
			}
		}
	}
}
