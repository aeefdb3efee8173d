// Package token defines the lexical vocabulary of the supported SQL:1999
// subset: keyword sets, punctuation symbols, and the typed token model.
package token

// NonReservedWords are identifiers that SQL:1999 permits to also be used as
// regular identifiers. A lexer candidate set may contain both the keyword
// and identifier reading of one of these words at the same position.
var NonReservedWords = map[string]bool{
	"ASC": true, "DESC": true, "KEY": true, "NAME": true, "TYPE": true,
	"LEVEL": true, "SIZE": true, "SCHEMA": true, "DOMAIN": true,
	"COLLATION": true, "NULLS": true, "FIRST": true, "LAST": true,
	"METHOD": true, "INDEX": true,
}

// ReservedWords may never be used as a plain identifier.
var ReservedWords = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "AND": true, "OR": true,
	"NOT": true, "IS": true, "NULL": true, "TRUE": true, "FALSE": true,
	"AS": true, "JOIN": true, "INNER": true, "LEFT": true, "RIGHT": true,
	"FULL": true, "OUTER": true, "CROSS": true, "ON": true,
	"CREATE": true, "UNIQUE": true, "USING": true, "IF": true,
	"EXISTS": true, "ONLY": true, "COLLATE": true,
	"INSERT": true, "UPDATE": true, "DELETE": true, "GROUP": true,
	"BY": true, "HAVING": true, "UNION": true, "NATURAL": true,
	"USE": true, "EXIT": true,
}

// IsKeyword reports whether the upper-cased text names a reserved or
// non-reserved SQL:1999 keyword.
func IsKeyword(upper string) bool {
	return ReservedWords[upper] || NonReservedWords[upper]
}

// IsReserved reports whether the upper-cased text is a reserved word that
// can never be read as a plain identifier.
func IsReserved(upper string) bool {
	return ReservedWords[upper]
}
