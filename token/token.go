package token

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind tags the variant of a Token.
type Kind int

const (
	Int Kind = iota
	Float
	String
	Date
	Datetime
	Identifier
	Keyword
	Symbol
	End
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "Int"
	case Float:
		return "Float"
	case String:
		return "String"
	case Date:
		return "Date"
	case Datetime:
		return "Datetime"
	case Identifier:
		return "Identifier"
	case Keyword:
		return "Keyword"
	case Symbol:
		return "Symbol"
	case End:
		return "End"
	default:
		return "?"
	}
}

// Interval is a half-open span [Start, End) over the source buffer.
type Interval struct {
	Start int
	End   int
}

// Token is a single lexical unit. Decoded is computed lazily: the raw text
// is cheap to produce while scanning, but interpreting it (parsing an int,
// unescaping a string, parsing a date) is deferred until something actually
// asks for the typed value via Value().
type Token struct {
	Kind       Kind
	Text       string // raw source text, exactly as it appeared
	Span       Interval
	IsReserved bool // only meaningful for Kind == Keyword

	decodeOnce bool
	decoded    any
	decodeErr  error
}

// Value returns the decoded typed value for this token (int64, float64,
// string, time.Time, or the raw identifier/keyword text), decoding on first
// access and caching the result.
func (t *Token) Value() (any, error) {
	if t.decodeOnce {
		return t.decoded, t.decodeErr
	}
	t.decodeOnce = true
	switch t.Kind {
	case Int:
		t.decoded, t.decodeErr = strconv.ParseInt(t.Text, 10, 64)
	case Float:
		t.decoded, t.decodeErr = strconv.ParseFloat(t.Text, 64)
	case String:
		t.decoded, t.decodeErr = unquoteString(t.Text)
	case Date:
		s, err := unquoteString(t.Text)
		if err != nil {
			t.decodeErr = fmt.Errorf("parse date: %w", err)
			break
		}
		v, err := time.Parse("2006-01-02", s)
		if err != nil {
			t.decodeErr = fmt.Errorf("parse date %q: %w", s, err)
			break
		}
		t.decoded = v
	case Datetime:
		s, err := unquoteString(t.Text)
		if err != nil {
			t.decodeErr = fmt.Errorf("parse datetime: %w", err)
			break
		}
		v, err := time.Parse("2006-01-02 15:04:05", s)
		if err != nil {
			t.decodeErr = fmt.Errorf("parse datetime %q: %w", s, err)
			break
		}
		t.decoded = v
	default:
		t.decoded = t.Text
	}
	return t.decoded, t.decodeErr
}

func unquoteString(raw string) (string, error) {
	if len(raw) < 2 || raw[0] != '\'' || raw[len(raw)-1] != '\'' {
		return "", fmt.Errorf("malformed string literal %q", raw)
	}
	inner := raw[1 : len(raw)-1]
	inner = strings.ReplaceAll(inner, "''", "'")
	return inner, nil
}

// Matchers, longest/most-specific first, mirrors the priority order spec
// §4.1 requires: float before int, datetime before date before string,
// keyword is a post-check over identifier, and symbols are tried last, in
// Symbols' declared (longest-first) order.
var (
	reFloat    = regexp.MustCompile(`^[0-9]+\.[0-9]+`)
	reInt      = regexp.MustCompile(`^([1-9][0-9]*|0)`)
	reDatetime = regexp.MustCompile(`^'[0-9]{4}-[0-9]{2}-[0-9]{2} [0-9]{2}:[0-9]{2}:[0-9]{2}'`)
	reDate     = regexp.MustCompile(`^'[0-9]{4}-[0-9]{2}-[0-9]{2}'`)
	reString   = regexp.MustCompile(`^'([^'\\]|''|\\.)*'`)
	reIdent    = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z_0-9]*`)
	reQuoted   = regexp.MustCompile(`^"([^"]|"")*"`)
)

// MatchAt tries every token class against src[pos:] and returns every kind
// that matches, longest match per kind, in spec §4.1 priority order. The
// lexer keeps the whole returned set as its candidates and, once one is
// consumed, advances past the longest of them.
func MatchAt(src string, pos int) []Token {
	rest := src[pos:]
	var out []Token

	if m := reDatetime.FindString(rest); m != "" {
		out = append(out, Token{Kind: Datetime, Text: m, Span: Interval{pos, pos + len(m)}})
	}
	if m := reDate.FindString(rest); m != "" {
		out = append(out, Token{Kind: Date, Text: m, Span: Interval{pos, pos + len(m)}})
	}
	if m := reString.FindString(rest); m != "" {
		out = append(out, Token{Kind: String, Text: m, Span: Interval{pos, pos + len(m)}})
	}
	if m := reFloat.FindString(rest); m != "" {
		out = append(out, Token{Kind: Float, Text: m, Span: Interval{pos, pos + len(m)}})
	} else if m := reInt.FindString(rest); m != "" {
		out = append(out, Token{Kind: Int, Text: m, Span: Interval{pos, pos + len(m)}})
	}
	if m := reIdent.FindString(rest); m != "" {
		upper := strings.ToUpper(m)
		if IsKeyword(upper) {
			out = append(out, Token{Kind: Keyword, Text: m, Span: Interval{pos, pos + len(m)}, IsReserved: IsReserved(upper)})
		}
		out = append(out, Token{Kind: Identifier, Text: m, Span: Interval{pos, pos + len(m)}})
	}
	// Quoted identifiers (the index sub-parser's "PostgreSQL-flavored
	// identifier token", spec §4.4) are never keywords, so they only ever
	// produce an Identifier candidate.
	if m := reQuoted.FindString(rest); m != "" {
		inner := strings.ReplaceAll(m[1:len(m)-1], `""`, `"`)
		out = append(out, Token{Kind: Identifier, Text: inner, Span: Interval{pos, pos + len(m)}})
	}
	for _, s := range Symbols {
		if strings.HasPrefix(rest, s.Text) {
			out = append(out, Token{Kind: Symbol, Text: s.Text, Span: Interval{pos, pos + len(s.Text)}})
		}
	}
	return out
}
