package token

// SymbolDef is a punctuation/operator lexeme. Multi-character symbols must be
// tried before any single-character prefix of themselves, hence Symbols is
// ordered longest-first.
type SymbolDef struct {
	Name string
	Text string
}

// Symbols lists every punctuation lexeme the lexer recognizes, longest text
// first so that e.g. "<=" is matched before "<".
var Symbols = []SymbolDef{
	{"NEQ", "<>"},
	{"LEQ", "<="},
	{"GEQ", ">="},
	{"CONCAT", "||"},
	{"CAST", "::"},
	{"ARROW", "->"},
	{"LPAREN", "("},
	{"RPAREN", ")"},
	{"LBRACE", "{"},
	{"RBRACE", "}"},
	{"LBRACKET", "["},
	{"RBRACKET", "]"},
	{"COMMA", ","},
	{"DOT", "."},
	{"SEMI", ";"},
	{"COLON", ":"},
	{"EQ", "="},
	{"LT", "<"},
	{"GT", ">"},
	{"PLUS", "+"},
	{"MINUS", "-"},
	{"STAR", "*"},
	{"SLASH", "/"},
	{"PERCENT", "%"},
	{"CARET", "^"},
	{"QUESTION", "?"},
	{"AMP", "&"},
	{"PIPE", "|"},
	{"QUOTE", "'"},
	{"DQUOTE", "\""},
	{"UNDERSCORE", "_"},
}

// SymbolByName looks up a symbol's literal text by its canonical name.
func SymbolByName(name string) (string, bool) {
	for _, s := range Symbols {
		if s.Name == name {
			return s.Text, true
		}
	}
	return "", false
}
