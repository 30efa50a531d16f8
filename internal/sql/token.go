package sql

import "fmt"

// TokenKind classifies a token.
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenKeyword
	TokenIdent
	TokenString
	TokenNumber
	TokenOperator
	TokenLParen
	TokenRParen
	TokenComma
	TokenDot
	TokenStar
	TokenSemicolon
)

var tokenKindNames = map[TokenKind]string{
	TokenEOF:       "end of input",
	TokenKeyword:   "keyword",
	TokenIdent:     "identifier",
	TokenString:    "string",
	TokenNumber:    "number",
	TokenOperator:  "operator",
	TokenLParen:    "'('",
	TokenRParen:    "')'",
	TokenComma:     "','",
	TokenDot:       "'.'",
	TokenStar:      "'*'",
	TokenSemicolon: "';'",
}

func (k TokenKind) String() string {
	if s, ok := tokenKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("token(%d)", int(k))
}

// Token is one lexeme. Text is the keyword or operator as written, the
// decoded value of a string literal, or the name of an identifier.
type Token struct {
	Kind TokenKind
	Text string
	// Quoted is set for backtick identifiers.
	Quoted bool
	Line   int
	Column int
}

// Describe renders the token for error messages.
func (t Token) Describe() string {
	switch t.Kind {
	case TokenEOF:
		return "end of input"
	case TokenKeyword:
		return t.Text
	case TokenIdent:
		return fmt.Sprintf("identifier %q", t.Text)
	case TokenString:
		return fmt.Sprintf("string '%s'", t.Text)
	case TokenNumber:
		return fmt.Sprintf("number %s", t.Text)
	case TokenOperator:
		return fmt.Sprintf("operator %s", t.Text)
	default:
		return t.Kind.String()
	}
}

// keywords is the reserved word set. Matching is case-sensitive: "select"
// is an identifier.
var keywords = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "AND": true, "OR": true,
	"AS": true, "TERM": true, "MATCH": true, "ORDER": true, "BY": true,
	"LIMIT": true, "OFFSET": true, "ASC": true, "DESC": true, "IS": true,
	"NOT": true, "NULL": true, "LIKE": true,
}

// operators in longest-match-first order.
var operators = []string{"<=", ">=", "!=", "<>", "<", ">", "="}
