package parser

import (
	"testing"

	"github.com/federatedsql/multidb/lexer"
	"github.com/federatedsql/multidb/perr"
	"github.com/federatedsql/multidb/token"
)

// TestChooseLowestIndexTieBreak covers spec invariant 5: given two equally
// long successful alternatives, the lowest-indexed one always wins.
func TestChooseLowestIndexTieBreak(t *testing.T) {
	cl := lexer.NewCmp(lexer.New("abc"))
	got, err := choose(cl,
		func() (string, error) {
			if _, err := cl.Match(lexer.K(token.Identifier)); err != nil {
				return "", err
			}
			return "first", nil
		},
		func() (string, error) {
			if _, err := cl.Match(lexer.K(token.Identifier)); err != nil {
				return "", err
			}
			return "second", nil
		},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "first" {
		t.Fatalf("expected the lowest-indexed equally-long alternative to win, got %q", got)
	}
}

func TestChooseLongestMatchWins(t *testing.T) {
	cl := lexer.NewCmp(lexer.New("a b"))
	got, err := choose(cl,
		func() (string, error) {
			if _, err := cl.Match(lexer.K(token.Identifier)); err != nil {
				return "", err
			}
			return "short", nil
		},
		func() (string, error) {
			if _, err := cl.Match(lexer.K(token.Identifier)); err != nil {
				return "", err
			}
			if _, err := cl.Match(lexer.K(token.Identifier)); err != nil {
				return "", err
			}
			return "long", nil
		},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "long" {
		t.Fatalf("expected the alternative consuming the most tokens to win, got %q", got)
	}
}

func TestChooseAllFailRaisesFatalWithCauses(t *testing.T) {
	cl := lexer.NewCmp(lexer.New("123"))
	_, err := choose(cl,
		func() (string, error) { return "", &perr.SyntaxError{Msg: "alt one"} },
		func() (string, error) { return "", &perr.SyntaxError{Msg: "alt two"} },
	)
	fatal, ok := err.(*perr.FatalSyntaxError)
	if !ok {
		t.Fatalf("expected a FatalSyntaxError, got %#v", err)
	}
	if len(fatal.Causes) != 2 {
		t.Fatalf("expected both alternatives' errors recorded as causes, got %d", len(fatal.Causes))
	}
}

func TestChooseFatalErrorPropagatesImmediately(t *testing.T) {
	cl := lexer.NewCmp(lexer.New("abc"))
	calledSecond := false
	_, err := choose(cl,
		func() (string, error) { return "", &perr.FatalSyntaxError{Msg: "boom"} },
		func() (string, error) { calledSecond = true; return "ok", nil },
	)
	if err == nil {
		t.Fatal("expected the fatal error to propagate")
	}
	if calledSecond {
		t.Fatal("a fatal error must not be treated as recoverable: later alternatives must not run")
	}
}
