// Package lexer streams tokens out of SQL source text and layers a
// mode-switching match-and-consume wrapper (CmpLexer) over it for the
// parser's backtracking combinator.
package lexer

import (
	"strings"
	"unicode"

	"github.com/federatedsql/multidb/token"
)

// Lexer scans a fixed source buffer, producing the set of candidate tokens
// at each position per spec §4.1. It tracks both the interval of the token
// just produced and of the one before it, so callers can attribute an error
// to either.
type Lexer struct {
	src string
	pos int

	Current      []token.Token // every token kind matching at pos
	Interval     token.Interval
	LastInterval token.Interval
}

// New creates a Lexer over src and primes Current with the first token set.
func New(src string) *Lexer {
	l := &Lexer{src: src}
	l.skipBlank()
	l.Current = token.MatchAt(l.src, l.pos)
	if len(l.Current) == 0 {
		l.Current = []token.Token{{Kind: token.End, Span: token.Interval{Start: l.pos, End: l.pos}}}
	}
	l.Interval = l.Current[0].Span
	return l
}

func (l *Lexer) skipBlank() {
	for l.pos < len(l.src) {
		r := rune(l.src[l.pos])
		if unicode.IsSpace(r) {
			l.pos++
			continue
		}
		if strings.HasPrefix(l.src[l.pos:], "--") {
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
			continue
		}
		if strings.HasPrefix(l.src[l.pos:], "/*") {
			end := strings.Index(l.src[l.pos+2:], "*/")
			if end < 0 {
				l.pos = len(l.src)
			} else {
				l.pos += end + 4
			}
			continue
		}
		break
	}
}

// Next advances past the longest token produced among Current (the parser,
// via CmpLexer, is what actually picks *which* candidate kind to treat the
// position as; Next simply moves past that many source bytes and refills
// Current at the new position) and returns the refreshed candidate set.
func (l *Lexer) Next() []token.Token {
	if len(l.Current) == 0 || l.Current[0].Kind == token.End {
		return l.Current
	}
	maxEnd := l.Current[0].Span.End
	for _, c := range l.Current {
		if c.Span.End > maxEnd {
			maxEnd = c.Span.End
		}
	}
	l.LastInterval = l.Interval
	l.pos = maxEnd
	l.skipBlank()

	l.Current = token.MatchAt(l.src, l.pos)
	if len(l.Current) == 0 {
		l.Current = []token.Token{{Kind: token.End, Span: token.Interval{Start: l.pos, End: l.pos}}}
	}
	l.Interval = l.Current[0].Span
	return l.Current
}

// Snapshot is a cheap, restorable copy of lexer position + token state,
// used by the parser's backtracking combinator. It does not copy the
// shared source text.
type Snapshot struct {
	pos          int
	current      []token.Token
	interval     token.Interval
	lastInterval token.Interval
}

// Save captures the lexer's current state.
func (l *Lexer) Save() Snapshot {
	return Snapshot{
		pos:          l.pos,
		current:      l.Current,
		interval:     l.Interval,
		lastInterval: l.LastInterval,
	}
}

// Restore rewinds the lexer to a previously saved state.
func (l *Lexer) Restore(s Snapshot) {
	l.pos = s.pos
	l.Current = s.current
	l.Interval = s.interval
	l.LastInterval = s.lastInterval
}

// Pos exposes the current byte offset, for diagnostics and for the parser's
// "most tokens consumed" comparison in the backtracking combinator.
func (l *Lexer) Pos() int { return l.pos }

// Pos exposes the byte offset a Snapshot was taken at.
func (s Snapshot) Pos() int { return s.pos }
