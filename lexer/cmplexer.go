package lexer

import (
	"log/slog"
	"strings"

	"github.com/federatedsql/multidb/perr"
	"github.com/federatedsql/multidb/token"
)

// Mode is the comparison-lexer's current match-and-consume discipline.
type Mode int

const (
	ModeStrict Mode = iota
	ModeSafe
	ModeOptional
)

// Want describes what Match/Check accept at the current position: a token
// Kind, optionally narrowed to an exact literal Text (keyword spelling or
// symbol punctuation).
type Want struct {
	Kind token.Kind
	Text string
}

// K wants any token of the given kind.
func K(k token.Kind) Want { return Want{Kind: k} }

// KW wants the named keyword, case-insensitively.
func KW(word string) Want { return Want{Kind: token.Keyword, Text: strings.ToUpper(word)} }

// Sym wants the named punctuation symbol.
func Sym(text string) Want { return Want{Kind: token.Symbol, Text: text} }

// CmpLexer layers a match-and-consume operation with strict/safe/optional
// modes over a Lexer (spec §4.2, C4).
type CmpLexer struct {
	*Lexer
	mode Mode
	Buf  *LogBuffer
}

// NewCmp wraps l with a fresh CmpLexer in strict mode and a root log
// buffer.
func NewCmp(l *Lexer) *CmpLexer {
	return &CmpLexer{Lexer: l, mode: ModeStrict, Buf: NewLogBuffer()}
}

// Strict selects strict mode for the next Match call (the default).
func (c *CmpLexer) Strict() *CmpLexer { c.mode = ModeStrict; return c }

// Safe selects safe mode for the next Match call.
func (c *CmpLexer) Safe() *CmpLexer { c.mode = ModeSafe; return c }

// Optional selects optional mode for the next Match call.
func (c *CmpLexer) Optional() *CmpLexer { c.mode = ModeOptional; return c }

// find returns the first current token matching any of wants, without
// consuming.
func (c *CmpLexer) find(wants ...Want) *token.Token {
	for i := range c.Current {
		t := &c.Current[i]
		for _, w := range wants {
			if t.Kind != w.Kind {
				continue
			}
			if w.Text == "" {
				return t
			}
			if t.Kind == token.Keyword && strings.EqualFold(t.Text, w.Text) {
				return t
			}
			if t.Text == w.Text {
				return t
			}
		}
	}
	return nil
}

// Check is a non-consuming membership test: does any current token match
// one of wants?
func (c *CmpLexer) Check(wants ...Want) bool {
	return c.find(wants...) != nil
}

// CurrentIsReservedWord reports whether the current position's longest
// candidate is a reserved keyword. token.MatchAt always emits an Identifier
// candidate alongside a Keyword one at the same span (so an ordinary
// identifier match can still pick up a NonReservedWord like SIZE or INDEX),
// but a reserved word must never be read as a plain identifier — callers
// that optionally consume a trailing bare identifier as an implicit alias
// (no AS) must check this first, or a reserved word immediately following a
// table/column reference (FROM, GROUP, NATURAL, JOIN, ...) gets silently
// swallowed as that reference's alias instead of being left for the grammar
// production that actually wants it.
func (c *CmpLexer) CurrentIsReservedWord() bool {
	for _, t := range c.Current {
		if t.Kind == token.Keyword && t.IsReserved {
			return true
		}
	}
	return false
}

// Match is the ">>" operator: match-and-consume honoring the current mode,
// which always resets to strict afterward.
//
//   - strict: mismatch raises *perr.FatalSyntaxError.
//   - safe: mismatch logs a warning through Buf but still consumes and
//     returns the current token unchanged.
//   - optional: mismatch does not consume; returns nil, nil.
func (c *CmpLexer) Match(wants ...Want) (*token.Token, error) {
	mode := c.mode
	c.mode = ModeStrict

	found := c.find(wants...)
	if found == nil {
		switch mode {
		case ModeOptional:
			return nil, nil
		case ModeSafe:
			c.Buf.Logf(slog.LevelWarn, "expected one of %v at %d, found %q", wants, c.Interval.Start, c.describeCurrent())
			if len(c.Current) == 0 {
				return nil, &perr.FatalSyntaxError{Msg: "unexpected end of input", Pos: c.Interval.Start}
			}
			t := c.Current[0]
			c.Next()
			return &t, nil
		default: // strict
			msg := "expected one of " + wantsString(wants) + ", found " + c.describeCurrent()
			c.Buf.Logf(slog.LevelError, "%s at %d", msg, c.Interval.Start)
			return nil, &perr.FatalSyntaxError{Msg: msg, Pos: c.Interval.Start}
		}
	}

	t := *found
	c.Next()
	return &t, nil
}

func (c *CmpLexer) describeCurrent() string {
	if len(c.Current) == 0 {
		return "<end>"
	}
	return c.Current[0].Kind.String() + " " + c.Current[0].Text
}

func wantsString(wants []Want) string {
	parts := make([]string, len(wants))
	for i, w := range wants {
		if w.Text != "" {
			parts[i] = w.Text
		} else {
			parts[i] = w.Kind.String()
		}
	}
	return strings.Join(parts, "|")
}
