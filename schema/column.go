package schema

import "github.com/federatedsql/multidb/perr"

// DataType is the engine's own reduced type lattice, populated from each
// dialect adapter's mapping of information_schema data_type text (spec §3
// "declared type"). Unsupported covers everything the engine cannot
// project or filter on (arrays, JSON, geometry, ...).
type DataType int

const (
	TypeInt DataType = iota
	TypeFloat
	TypeString
	TypeDate
	TypeDatetime
	TypeBool
	TypeUnsupported
)

func (t DataType) String() string {
	switch t {
	case TypeInt:
		return "INT"
	case TypeFloat:
		return "FLOAT"
	case TypeString:
		return "STRING"
	case TypeDate:
		return "DATE"
	case TypeDatetime:
		return "DATETIME"
	case TypeBool:
		return "BOOL"
	default:
		return "UNSUPPORTED"
	}
}

// SQLiteType maps this type onto the local mirror store's column type
// (spec §4.7 "mapped SQLite types").
func (t DataType) SQLiteType() string {
	switch t {
	case TypeInt:
		return "INTEGER"
	case TypeFloat:
		return "REAL"
	case TypeBool:
		return "INTEGER"
	case TypeDate, TypeDatetime, TypeString:
		return "TEXT"
	default:
		return "BLOB"
	}
}

// Column is a bound catalog column (spec §3 "Column (bound)"). Table holds
// a non-owning back-pointer (spec §9's cyclic-ownership note): Column never
// outlives the Table it was produced by, and does not close over it beyond
// this session's lifetime.
type Column struct {
	Table    *Table
	Name     string
	Nullable bool
	Type     DataType
	MaxLen   int
	Index    *Index // the index this column participates in, if any

	used       bool
	visible    bool
	countUsed  int
}

// Used reports whether this column has been referenced anywhere in the
// query (select list, predicate, or join condition).
func (c *Column) Used() bool { return c.used }

// Visible reports whether this column appears in the SELECT list.
func (c *Column) Visible() bool { return c.visible }

// CountUsed reports how many times this column appears in a predicate or
// join condition — used to decide whether a non-visible column still needs
// fetching.
func (c *Column) CountUsed() int { return c.countUsed }

// MarkUsed sets Used = true. An unsupported-typed column cannot be used at
// all: the binder surfaces this as a semantic error rather than silently
// projecting garbage.
func (c *Column) MarkUsed() error {
	if c.Type == TypeUnsupported {
		return &perr.SemanticError{Msg: "column " + c.Name + " has an unsupported data type"}
	}
	c.used = true
	return nil
}

// MarkVisible sets Visible = true (and implicitly Used, since a visible
// column must be fetched).
func (c *Column) MarkVisible() error {
	if err := c.MarkUsed(); err != nil {
		return err
	}
	c.visible = true
	return nil
}

// MarkPredicateUse increments CountUsed (and implicitly marks Used) for a
// reference inside a WHERE/ON predicate.
func (c *Column) MarkPredicateUse() error {
	if err := c.MarkUsed(); err != nil {
		return err
	}
	c.countUsed++
	return nil
}

// NeedsFetch reports whether the rewriter must project this column: it is
// used, and either visible in the select list or referenced by a predicate.
func (c *Column) NeedsFetch() bool {
	return c.used && (c.visible || c.countUsed > 0)
}
