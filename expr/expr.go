// Package expr implements the expression algebra: primary values, arithmetic,
// boolean and comparison nodes, each carrying a convolution (constant-
// folding) rule, plus the three-valued truth evaluator and PDNF builder used
// by the binder to reduce predicates to an acceptance mask.
package expr

import "time"

// Base collapses the source's AsMixin/SignMixin/NotMixin into three optional
// fields shared by every expression node: Alias is the AS-clause short name
// ("" if absent), Sign is the accumulated unary +/- (+1 or -1, SignMixin),
// Not records a deferred boolean negation (NotMixin) applied on evaluation.
type Base struct {
	Alias string
	Sign  int
	Not   bool
}

func (b Base) effSign() int {
	if b.Sign == 0 {
		return 1
	}
	return b.Sign
}

// Expr is the closed sum type over every expression tree node.
type Expr interface {
	exprNode()
	// Convolve returns a semantics-preserving simplification of the
	// receiver; idempotent (Convolve(Convolve(e)) == Convolve(e)).
	Convolve() Expr
}

// ---- primary values ----

type Int struct {
	Base
	Value int64
}

type Float struct {
	Base
	Value float64
}

type Str struct {
	Base
	Value string
}

type DateVal struct {
	Base
	Value time.Time
}

type DatetimeVal struct {
	Base
	Value time.Time
}

type BoolLit struct {
	Base
	Value bool
}

type NullLit struct{ Base }

// Column is a column reference. Before binding it wraps an unresolved
// naming chain (len(ChainParts) > 0, Bound == nil); after binding, Bound holds
// the *schema.Column it resolved to (stored as `any` to avoid an import
// cycle between expr and schema — callers type-assert back).
type Column struct {
	Base
	ChainParts []string // dotted reference as written, e.g. ["t","a"]
	Bound      any
}

func (Int) exprNode()         {}
func (Float) exprNode()       {}
func (Str) exprNode()         {}
func (DateVal) exprNode()     {}
func (DatetimeVal) exprNode() {}
func (BoolLit) exprNode()     {}
func (NullLit) exprNode()     {}
func (Column) exprNode()      {}

// Convolve on a numeric primary folds its accumulated sign into the literal
// value, per spec's "signed folding; returns itself or a negated literal".
func (i Int) Convolve() Expr {
	v := i.Value
	if i.effSign() < 0 {
		v = -v
	}
	return Int{Base: Base{Alias: i.Alias}, Value: v}
}

func (f Float) Convolve() Expr {
	v := f.Value
	if f.effSign() < 0 {
		v = -v
	}
	return Float{Base: Base{Alias: f.Alias}, Value: v}
}

func (s Str) Convolve() Expr         { return s }
func (d DateVal) Convolve() Expr     { return d }
func (d DatetimeVal) Convolve() Expr { return d }

// Bool convolves to itself, honoring any deferred NOT (spec: "itself
// honoring any deferred NOT").
func (b BoolLit) Convolve() Expr {
	if b.Not {
		return BoolLit{Base: Base{Alias: b.Alias}, Value: !b.Value}
	}
	return BoolLit{Base: Base{Alias: b.Alias}, Value: b.Value}
}

func (n NullLit) Convolve() Expr { return NullLit{Base{Alias: n.Alias}} }

// Column is opaque to convolution: its value is not known until execution.
func (c Column) Convolve() Expr { return c }

// ---- unary sign ----

// UnarySign represents +/- applied to a numeric sub-expression before the
// sign has been folded into a literal (e.g. the child is still a Column or
// a compound expression).
type UnarySign struct {
	Base
	Child Expr
}

func (UnarySign) exprNode() {}

func (u UnarySign) Convolve() Expr {
	child := u.Child.Convolve()
	switch c := child.(type) {
	case Int:
		return Int{Base: c.Base, Value: signed(c.Value, u.effSign())}.Convolve()
	case Float:
		return Float{Base: c.Base, Value: signedF(c.Value, u.effSign())}.Convolve()
	case UnarySign:
		// combine signs: -(−x) folds to +x
		c.Sign = c.effSign() * u.effSign()
		return c.Convolve()
	case NullLit:
		return c
	default:
		if u.effSign() < 0 {
			return UnarySign{Base: Base{Alias: u.Alias, Sign: -1}, Child: child}
		}
		return child
	}
}

func signed(v int64, sign int) int64 {
	if sign < 0 {
		return -v
	}
	return v
}

func signedF(v float64, sign int) float64 {
	if sign < 0 {
		return -v
	}
	return v
}

// ---- binary numeric ----

type NumOp int

const (
	OpAdd NumOp = iota
	OpSub
	OpMul
	OpDiv
)

// Numeric is Add/Sub/Mul/Div(l, r); all four share one convolution rule
// (fold literals, propagate Null, apply the per-operator algebraic
// identities from spec §4.5) except Div, which additionally special-cases
// division by a literal zero.
type Numeric struct {
	Base
	Op   NumOp
	L, R Expr
}

func (Numeric) exprNode() {}

func (n Numeric) Convolve() Expr {
	l := n.L.Convolve()
	r := n.R.Convolve()

	if _, ok := l.(NullLit); ok {
		return NullLit{}
	}
	if _, ok := r.(NullLit); ok {
		return NullLit{}
	}

	lf, lok := asFloat(l)
	rf, rok := asFloat(r)
	if lok && rok {
		switch n.Op {
		case OpAdd:
			return foldNumeric(l, r, lf+rf)
		case OpSub:
			return foldNumeric(l, r, lf-rf)
		case OpMul:
			return foldNumeric(l, r, lf*rf)
		case OpDiv:
			if rf == 0 {
				return NullLit{}
			}
			return foldNumeric(l, r, lf/rf)
		}
	}

	if special := n.specialRules(l, r); special != nil {
		return special
	}
	return Numeric{Base: n.Base, Op: n.Op, L: l, R: r}
}

// specialRules applies algebraic identities that hold regardless of whether
// the non-literal side is known: x+0=x, 0-x=-x, x*0=0, x/0=Null, 0/x=0, x/1=x.
func (n Numeric) specialRules(l, r Expr) Expr {
	switch n.Op {
	case OpAdd:
		if isZero(r) {
			return l
		}
		if isZero(l) {
			return r
		}
	case OpSub:
		if isZero(r) {
			return l
		}
		if isZero(l) {
			return UnarySign{Base: Base{Sign: -1}, Child: r}.Convolve()
		}
	case OpMul:
		if isZero(l) || isZero(r) {
			return Int{Value: 0}
		}
	case OpDiv:
		if isZero(r) {
			return NullLit{}
		}
		if isZero(l) {
			return Int{Value: 0}
		}
		if isOne(r) {
			return l
		}
	}
	return nil
}

func isZero(e Expr) bool {
	switch v := e.(type) {
	case Int:
		return v.Value == 0
	case Float:
		return v.Value == 0
	}
	return false
}

func isOne(e Expr) bool {
	switch v := e.(type) {
	case Int:
		return v.Value == 1
	case Float:
		return v.Value == 1
	}
	return false
}

func asFloat(e Expr) (float64, bool) {
	switch v := e.(type) {
	case Int:
		return float64(v.Value), true
	case Float:
		return v.Value, true
	default:
		return 0, false
	}
}

func foldNumeric(l, r Expr, result float64) Expr {
	_, lFloat := l.(Float)
	_, rFloat := r.(Float)
	if lFloat || rFloat {
		return Float{Value: result}
	}
	return Int{Value: int64(result)}
}

// ---- boolean ----

type BoolOp int

const (
	OpAnd BoolOp = iota
	OpOr
)

// Bool is And/Or(l, r), implementing the three-valued truth tables of
// spec §4.5/§4.5's "Three-valued truth tables" box.
type Bool struct {
	Base
	Op   BoolOp
	L, R Expr
}

func (Bool) exprNode() {}

func (b Bool) Convolve() Expr {
	l := b.L.Convolve()
	r := b.R.Convolve()
	lt, lLit := truthOf(l)
	rt, rLit := truthOf(r)

	if b.Op == OpAnd {
		if lLit && lt == TVFalse {
			return BoolLit{Value: false}
		}
		if rLit && rt == TVFalse {
			return BoolLit{Value: false}
		}
		if lLit && rLit {
			return tvToExpr(AndTV(lt, rt))
		}
	} else {
		if lLit && lt == TVTrue {
			return BoolLit{Value: true}
		}
		if rLit && rt == TVTrue {
			return BoolLit{Value: true}
		}
		if lLit && rLit {
			return tvToExpr(OrTV(lt, rt))
		}
	}
	return Bool{Base: b.Base, Op: b.Op, L: l, R: r}
}

// Not is the unary boolean negation.
type Not struct {
	Base
	Child Expr
}

func (Not) exprNode() {}

func (n Not) Convolve() Expr {
	child := n.Child.Convolve()
	switch c := child.(type) {
	case Comparison:
		c.Op = c.Op.Negate()
		return c
	case BoolLit:
		return BoolLit{Value: !c.Value}
	case NullLit:
		return NullLit{}
	default:
		return Not{Child: child}
	}
}

// Is is the IS [NOT] {TRUE|FALSE|NULL} predicate. Right is the literal
// truth value being tested against.
type Is struct {
	Base
	Left  Expr
	Right TV
}

func (Is) exprNode() {}

// Convolve resolves the Open Question in spec §9: when the left operand
// convolves to Null, the node folds to Bool(Right == TVNull) — "NULL IS
// NULL" is true, "NULL IS TRUE"/"NULL IS FALSE" are false.
func (is Is) Convolve() Expr {
	left := is.Left.Convolve()
	if _, ok := left.(NullLit); ok {
		return BoolLit{Value: is.Right == TVNull}
	}
	if lt, ok := truthOf(left); ok {
		return BoolLit{Value: lt == is.Right}
	}
	return Is{Base: is.Base, Left: left, Right: is.Right}
}

// ---- comparison predicate ----

type CompOp int

const (
	Eq CompOp = iota
	Neq
	Lt
	Leq
	Gt
	Geq
)

// Negate implements the negation map = <-> <>, < <-> >=, > <-> <=.
func (op CompOp) Negate() CompOp {
	switch op {
	case Eq:
		return Neq
	case Neq:
		return Eq
	case Lt:
		return Geq
	case Geq:
		return Lt
	case Gt:
		return Leq
	case Leq:
		return Gt
	}
	return op
}

// Reverse implements the operand-swap map < <-> >, <= <-> >=.
func (op CompOp) Reverse() CompOp {
	switch op {
	case Lt:
		return Gt
	case Gt:
		return Lt
	case Leq:
		return Geq
	case Geq:
		return Leq
	}
	return op
}

func (op CompOp) String() string {
	switch op {
	case Eq:
		return "="
	case Neq:
		return "<>"
	case Lt:
		return "<"
	case Leq:
		return "<="
	case Gt:
		return ">"
	case Geq:
		return ">="
	}
	return "?"
}

// Comparison is a binary predicate over two operands.
type Comparison struct {
	Base
	L, R Expr
	Op   CompOp
}

func (Comparison) exprNode() {}

func (c Comparison) Convolve() Expr {
	l := c.L.Convolve()
	r := c.R.Convolve()
	if _, ok := l.(NullLit); ok {
		return NullLit{}
	}
	if _, ok := r.(NullLit); ok {
		return NullLit{}
	}
	lf, lok := asFloat(l)
	rf, rok := asFloat(r)
	if lok && rok {
		return BoolLit{Value: compareNumeric(lf, rf, c.Op)}
	}
	return Comparison{Base: c.Base, L: l, R: r, Op: c.Op}
}

func compareNumeric(l, r float64, op CompOp) bool {
	switch op {
	case Eq:
		return l == r
	case Neq:
		return l != r
	case Lt:
		return l < r
	case Leq:
		return l <= r
	case Gt:
		return l > r
	case Geq:
		return l >= r
	}
	return false
}
