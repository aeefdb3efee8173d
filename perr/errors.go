// Package perr defines the error kinds used across lexing, parsing, and
// binding, matching spec §7's error taxonomy.
package perr

import (
	"fmt"
	"strings"

	"github.com/federatedsql/multidb/token"
)

// SyntaxError is raised by a failed alternative inside the backtracking
// combinator; it is recoverable and triggers a backtrack.
type SyntaxError struct {
	Msg string
	Pos int
}

func (e *SyntaxError) Error() string { return fmt.Sprintf("syntax error at %d: %s", e.Pos, e.Msg) }

// FatalSyntaxError aborts the query: raised when no alternative in a
// choose() succeeds, or a strict-mode match fails.
type FatalSyntaxError struct {
	Msg    string
	Pos    int
	Causes []error
}

func (e *FatalSyntaxError) Error() string {
	if len(e.Causes) == 0 {
		return fmt.Sprintf("fatal syntax error at %d: %s", e.Pos, e.Msg)
	}
	parts := make([]string, len(e.Causes))
	for i, c := range e.Causes {
		parts[i] = c.Error()
	}
	return fmt.Sprintf("fatal syntax error at %d: %s (tried: %s)", e.Pos, e.Msg, strings.Join(parts, "; "))
}

// NotSupportedError is raised by an intentionally unimplemented production
// (INSERT/UPDATE/DELETE, GROUP BY, HAVING, NATURAL/UNION JOIN, string and
// date/datetime value expressions).
type NotSupportedError struct{ Msg string }

func (e *NotSupportedError) Error() string { return "not supported: " + e.Msg }

// SemanticError is raised by the binder: missing table/column, duplicate
// alias, unsupported data type, duplicate use of the same table.
type SemanticError struct{ Msg string }

func (e *SemanticError) Error() string { return "semantic error: " + e.Msg }

// UnreachableError marks a binder invariant violation — a developer-level
// bug, not a user-facing condition.
type UnreachableError struct{ Msg string }

func (e *UnreachableError) Error() string { return "unreachable: " + e.Msg }

// DecodeError wraps a token decode failure (malformed date/datetime/string
// literal), spec's ParseException/ParseDateException/ParseDatetimeException.
type DecodeError struct {
	Kind token.Kind
	Err  error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode %s: %s", e.Kind, e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }
