// Package naming implements the ordered dotted-identifier path used for
// table and column references before and after binding.
package naming

import "strings"

// Chain is a non-empty, ordered, case-preserved sequence of identifiers,
// with an optional alias (its "short name"). Length 1-4 for table chains
// (table | schema.table | db.schema.table | dbms.db.schema.table) and 2-5
// for column chains once a table alias prefix is included.
type Chain struct {
	Parts []string
	Alias string // "" if unaliased
}

// New builds a Chain from one or more identifiers, outermost-first.
func New(parts ...string) Chain {
	c := Chain{Parts: append([]string(nil), parts...)}
	return c
}

// PushFirst prepends an identifier (or another Chain's parts) to the front.
func (c Chain) PushFirst(other any) Chain {
	return Chain{Parts: append(otherParts(other), c.Parts...), Alias: c.Alias}
}

// PushLast appends an identifier (or another Chain's parts) to the back.
func (c Chain) PushLast(other any) Chain {
	return Chain{Parts: append(append([]string(nil), c.Parts...), otherParts(other)...), Alias: c.Alias}
}

func otherParts(other any) []string {
	switch v := other.(type) {
	case Chain:
		return append([]string(nil), v.Parts...)
	case []string:
		return append([]string(nil), v...)
	case string:
		return []string{v}
	default:
		return nil
	}
}

// As sets the chain's alias (short name) and returns the chain.
func (c Chain) As(alias string) Chain {
	c.Alias = alias
	return c
}

// Len returns the number of dotted parts.
func (c Chain) Len() int { return len(c.Parts) }

// Data returns the parts as an immutable tuple-like slice, used for
// equality comparisons keyed on the full dotted identity.
func (c Chain) Data() []string {
	return append([]string(nil), c.Parts...)
}

// Equal compares two chains' parts (not their aliases).
func (c Chain) Equal(other Chain) bool {
	if len(c.Parts) != len(other.Parts) {
		return false
	}
	for i := range c.Parts {
		if c.Parts[i] != other.Parts[i] {
			return false
		}
	}
	return true
}

// String renders the dotted representation, e.g. "dbms.db.schema.table".
func (c Chain) String() string {
	return strings.Join(c.Parts, ".")
}

// Last returns the final (rightmost) identifier, e.g. the table or column
// name itself as opposed to its qualifying prefix.
func (c Chain) Last() string {
	if len(c.Parts) == 0 {
		return ""
	}
	return c.Parts[len(c.Parts)-1]
}

// ShortName returns the Alias if set, otherwise the Last part — the name by
// which this chain should be referred to elsewhere in the query.
func (c Chain) ShortName() string {
	if c.Alias != "" {
		return c.Alias
	}
	return c.Last()
}
