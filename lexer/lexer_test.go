package lexer

import (
	"testing"

	"github.com/federatedsql/multidb/token"
)

func TestLexerSkipsWhitespaceAndComments(t *testing.T) {
	l := New("  -- a comment\n  /* block */ select")
	if l.Current[0].Kind != token.Keyword && l.Current[0].Kind != token.Identifier {
		t.Fatalf("expected select to be the first token after skipping blanks, got %#v", l.Current)
	}
}

func TestLexerEndToken(t *testing.T) {
	l := New("  ")
	if l.Current[0].Kind != token.End {
		t.Fatalf("expected a synthetic End token for blank input, got %#v", l.Current)
	}
}

func TestLexerSnapshotRestore(t *testing.T) {
	l := New("a b c")
	start := l.Save()
	l.Next()
	l.Next()
	mid := l.Pos()
	l.Restore(start)
	if l.Pos() != start.Pos() {
		t.Fatalf("restore did not rewind position: got %d, want %d", l.Pos(), start.Pos())
	}
	l.Next()
	l.Next()
	if l.Pos() != mid {
		t.Fatalf("replaying Next() after restore diverged: got %d, want %d", l.Pos(), mid)
	}
}

func TestLexerIntervalsTrackCurrentAndPrevious(t *testing.T) {
	l := New("foo bar")
	firstInterval := l.Interval
	l.Next()
	if l.LastInterval != firstInterval {
		t.Fatalf("expected LastInterval to carry the previous token's span, got %#v want %#v", l.LastInterval, firstInterval)
	}
	if l.Interval == firstInterval {
		t.Fatal("expected Interval to advance past the first token")
	}
}
