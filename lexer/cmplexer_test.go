package lexer

import "testing"

func TestCmpLexerStrictMismatchIsFatal(t *testing.T) {
	cl := NewCmp(New("SELECT"))
	if _, err := cl.Match(KW("FROM")); err == nil {
		t.Fatal("expected a strict-mode mismatch to return an error")
	}
}

func TestCmpLexerOptionalMismatchDoesNotConsume(t *testing.T) {
	cl := NewCmp(New("SELECT"))
	before := cl.Pos()
	tok, err := cl.Optional().Match(KW("FROM"))
	if err != nil || tok != nil {
		t.Fatalf("expected (nil, nil) on optional mismatch, got (%v, %v)", tok, err)
	}
	if cl.Pos() != before {
		t.Fatal("optional mismatch must not consume")
	}
}

func TestCmpLexerSafeMismatchConsumesAndWarns(t *testing.T) {
	cl := NewCmp(New("FOO BAR"))
	tok, err := cl.Safe().Match(KW("SELECT"))
	if err != nil {
		t.Fatalf("safe mode must not return an error on mismatch, got %v", err)
	}
	if tok == nil || tok.Text != "FOO" {
		t.Fatalf("expected safe mode to consume and return the actual token, got %#v", tok)
	}
	if cl.Buf.IsCrashed() {
		// Safe mismatches are warnings, not crashes.
		t.Fatal("a safe-mode mismatch must not set the crashed flag")
	}
}

func TestCmpLexerMatchConsumesOnSuccess(t *testing.T) {
	cl := NewCmp(New("SELECT FROM"))
	tok, err := cl.Match(KW("SELECT"))
	if err != nil || tok == nil {
		t.Fatalf("expected SELECT to match, got (%v, %v)", tok, err)
	}
	if _, err := cl.Match(KW("FROM")); err != nil {
		t.Fatalf("expected FROM to match after consuming SELECT, got %v", err)
	}
}

func TestCmpLexerModeResetsAfterOneCall(t *testing.T) {
	cl := NewCmp(New("FOO"))
	cl.Optional().Match(KW("SELECT")) // mismatch, consumes nothing, resets to strict
	if cl.mode != ModeStrict {
		t.Fatal("mode must reset to strict after one Match call")
	}
}

func TestCmpLexerCheckDoesNotConsume(t *testing.T) {
	cl := NewCmp(New("SELECT"))
	if !cl.Check(KW("SELECT")) {
		t.Fatal("expected Check to report a match")
	}
	if cl.Check(KW("FROM")) {
		t.Fatal("expected Check to report no match for FROM")
	}
	if _, err := cl.Match(KW("SELECT")); err != nil {
		t.Fatalf("Check must not have consumed the token: %v", err)
	}
}
