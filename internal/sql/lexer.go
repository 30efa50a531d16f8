package sql

import (
	"fmt"
	"strings"

	cerrors "github.com/canonica-labs/esql/internal/errors"
)

// Lex splits input into tokens. The returned slice always ends with a
// TokenEOF.
func Lex(input string) ([]Token, error) {
	l := &lexer{src: input, line: 1, col: 1}
	var toks []Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == TokenEOF {
			return toks, nil
		}
	}
}

type lexer struct {
	src  string
	pos  int
	line int
	col  int
}

func (l *lexer) peekAt(offset int) byte {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

func (l *lexer) advance(n int) {
	for i := 0; i < n && l.pos < len(l.src); i++ {
		if l.src[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

func (l *lexer) skipSpaceAndComments() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.advance(1)
		case c == '/' && l.peekAt(1) == '/', c == '-' && l.peekAt(1) == '-':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.advance(1)
			}
		default:
			return
		}
	}
}

func (l *lexer) next() (Token, error) {
	l.skipSpaceAndComments()
	tok := Token{Line: l.line, Column: l.col}
	if l.pos >= len(l.src) {
		tok.Kind = TokenEOF
		return tok, nil
	}

	c := l.src[l.pos]
	switch c {
	case '(':
		tok.Kind, tok.Text = TokenLParen, "("
	case ')':
		tok.Kind, tok.Text = TokenRParen, ")"
	case ',':
		tok.Kind, tok.Text = TokenComma, ","
	case '.':
		tok.Kind, tok.Text = TokenDot, "."
	case '*':
		tok.Kind, tok.Text = TokenStar, "*"
	case ';':
		tok.Kind, tok.Text = TokenSemicolon, ";"
	}
	if tok.Kind != TokenEOF {
		l.advance(1)
		return tok, nil
	}

	for _, op := range operators {
		if strings.HasPrefix(l.src[l.pos:], op) {
			tok.Kind, tok.Text = TokenOperator, op
			l.advance(len(op))
			return tok, nil
		}
	}

	switch {
	case c == '\'':
		return l.lexString(tok)
	case c == '`':
		return l.lexQuotedIdent(tok)
	case isDigit(c), c == '-' && isDigit(l.peekAt(1)):
		return l.lexNumber(tok), nil
	case isIdentStart(c):
		start := l.pos
		for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
			l.advance(1)
		}
		tok.Text = l.src[start:l.pos]
		if keywords[tok.Text] {
			tok.Kind = TokenKeyword
		} else {
			tok.Kind = TokenIdent
		}
		return tok, nil
	}

	return Token{}, cerrors.NewParse(quoteChar(c), "", tok.Line, tok.Column)
}

func (l *lexer) lexString(tok Token) (Token, error) {
	l.advance(1)
	var sb strings.Builder
	for {
		if l.pos >= len(l.src) || l.src[l.pos] == '\n' {
			return Token{}, cerrors.NewParse("unterminated string", "closing '", tok.Line, tok.Column)
		}
		c := l.src[l.pos]
		switch c {
		case '\'':
			l.advance(1)
			tok.Kind, tok.Text = TokenString, sb.String()
			return tok, nil
		case '\\':
			esc := l.peekAt(1)
			switch esc {
			case '\'', '\\':
				sb.WriteByte(esc)
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				return Token{}, cerrors.NewParse("escape \\"+string(esc), `\' \\ \n or \t`, l.line, l.col)
			}
			l.advance(2)
		default:
			sb.WriteByte(c)
			l.advance(1)
		}
	}
}

func (l *lexer) lexQuotedIdent(tok Token) (Token, error) {
	l.advance(1)
	start := l.pos
	for l.pos < len(l.src) && l.src[l.pos] != '`' {
		if l.src[l.pos] == '\n' {
			break
		}
		l.advance(1)
	}
	if l.pos >= len(l.src) || l.src[l.pos] != '`' {
		return Token{}, cerrors.NewParse("unterminated identifier", "closing `", tok.Line, tok.Column)
	}
	tok.Kind, tok.Text, tok.Quoted = TokenIdent, l.src[start:l.pos], true
	l.advance(1)
	if tok.Text == "" {
		return Token{}, cerrors.NewParse("empty identifier ``", "identifier", tok.Line, tok.Column)
	}
	return tok, nil
}

// lexNumber reads -?\d+(\.\d+)?
func (l *lexer) lexNumber(tok Token) Token {
	start := l.pos
	if l.src[l.pos] == '-' {
		l.advance(1)
	}
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.advance(1)
	}
	if l.peekAt(0) == '.' && isDigit(l.peekAt(1)) {
		l.advance(1)
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.advance(1)
		}
	}
	tok.Kind, tok.Text = TokenNumber, l.src[start:l.pos]
	return tok
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) }

func quoteChar(c byte) string {
	return fmt.Sprintf("character %q", rune(c))
}
