// Package sql implements the SQL-Lite query language: a lexer, a
// recursive-descent parser producing an immutable AST, a compiler from the
// WHERE tree to a bool query, and a row evaluator for the CONCAT and
// DATE_FORMAT select functions.
//
// Grammar:
//
//	query     = SELECT items FROM table [WHERE cond]
//	            [ORDER BY field [ASC|DESC] {, field [ASC|DESC]}]
//	            [LIMIT n [OFFSET m]] [;]
//	items     = item {, item}
//	item      = (* | expr) [AS alias]
//	cond      = and {OR and}
//	and       = primary {AND primary}
//	primary   = ( cond ) | expr IS [NOT] NULL | expr [NOT] LIKE 'p' | expr op expr
//	op        = = | != | <> | < | <= | > | >= | TERM | MATCH
//	expr      = field | 'string' | number | NAME ( [expr {, expr}] )
//	field     = ident {. ident}
//
// Keywords are case-sensitive.
package sql

import (
	"strconv"
	"strings"

	cerrors "github.com/canonica-labs/esql/internal/errors"
	"github.com/canonica-labs/esql/internal/query"
)

// Function names understood by the evaluator.
const (
	FuncConcat     = "CONCAT"
	FuncDateFormat = "DATE_FORMAT"
)

// Parser parses SQL-Lite statements.
type Parser struct{}

// NewParser creates a new SQL parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse parses a statement. On failure the error is an *errors.ErrParse;
// when the text is valid standard SQL that SQL-Lite cannot express, the
// error suggestion says which construct is unsupported.
func (p *Parser) Parse(sql string) (*Query, error) {
	q, err := ParseSQL(sql)
	if err != nil {
		if pe, ok := err.(*cerrors.ErrParse); ok {
			if hints := Diagnose(sql); len(hints) > 0 {
				pe.Suggestion = strings.Join(hints, "; ")
			}
		}
		return nil, err
	}
	return q, nil
}

// ParseSQL parses a statement without diagnostics.
func ParseSQL(sql string) (*Query, error) {
	toks, err := Lex(sql)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return p.parseQuery()
}

type parser struct {
	toks []Token
	pos  int
}

func (p *parser) peek() Token {
	return p.toks[p.pos]
}

func (p *parser) next() Token {
	t := p.toks[p.pos]
	if t.Kind != TokenEOF {
		p.pos++
	}
	return t
}

func (p *parser) isKeyword(kw string) bool {
	t := p.peek()
	return t.Kind == TokenKeyword && t.Text == kw
}

func (p *parser) acceptKeyword(kw string) bool {
	if p.isKeyword(kw) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) errorf(expected string) error {
	t := p.peek()
	return cerrors.NewParse(t.Describe(), expected, t.Line, t.Column)
}

func (p *parser) expectKeyword(kw string) error {
	if !p.acceptKeyword(kw) {
		return p.errorf(kw)
	}
	return nil
}

func (p *parser) expect(kind TokenKind) (Token, error) {
	if p.peek().Kind != kind {
		return Token{}, p.errorf(kind.String())
	}
	return p.next(), nil
}

func (p *parser) parseQuery() (*Query, error) {
	if err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}
	q := &Query{}
	items, err := p.parseSelectList()
	if err != nil {
		return nil, err
	}
	q.Select = items

	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	if q.From, err = p.parseTable(); err != nil {
		return nil, err
	}

	if p.acceptKeyword("WHERE") {
		if q.Where, err = p.parseOr(); err != nil {
			return nil, err
		}
	}

	if p.acceptKeyword("ORDER") {
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		for {
			field, err := p.parseField()
			if err != nil {
				return nil, err
			}
			item := OrderItem{Field: field, Direction: query.Asc}
			if p.acceptKeyword("DESC") {
				item.Direction = query.Desc
			} else {
				p.acceptKeyword("ASC")
			}
			q.OrderBy = append(q.OrderBy, item)
			if p.peek().Kind != TokenComma {
				break
			}
			p.next()
		}
	}

	if p.acceptKeyword("LIMIT") {
		n, err := p.parseCount()
		if err != nil {
			return nil, err
		}
		q.Limit = &n
		if p.acceptKeyword("OFFSET") {
			m, err := p.parseCount()
			if err != nil {
				return nil, err
			}
			q.Offset = &m
		}
	}

	if p.peek().Kind == TokenSemicolon {
		p.next()
	}
	if p.peek().Kind != TokenEOF {
		return nil, p.errorf("end of input")
	}
	return q, nil
}

func (p *parser) parseSelectList() ([]SelectItem, error) {
	var items []SelectItem
	for {
		var item SelectItem
		if p.peek().Kind == TokenStar {
			p.next()
			item.Expr = Star{}
		} else {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			item.Expr = e
		}
		item.Alias = item.Expr.String()
		if p.acceptKeyword("AS") {
			t := p.peek()
			if t.Kind != TokenIdent && t.Kind != TokenString {
				return nil, p.errorf("alias")
			}
			p.next()
			item.Alias = t.Text
		}
		items = append(items, item)
		if p.peek().Kind != TokenComma {
			return items, nil
		}
		p.next()
	}
}

// parseTable reads an index name: a dotted identifier, a backtick
// identifier or a string literal (for names with dashes or wildcards).
func (p *parser) parseTable() (string, error) {
	if p.peek().Kind == TokenString {
		return p.next().Text, nil
	}
	if p.peek().Kind != TokenIdent {
		return "", p.errorf("index name")
	}
	return p.parseField()
}

func (p *parser) parseField() (string, error) {
	t, err := p.expect(TokenIdent)
	if err != nil {
		return "", err
	}
	parts := []string{t.Text}
	for p.peek().Kind == TokenDot {
		p.next()
		t, err := p.expect(TokenIdent)
		if err != nil {
			return "", err
		}
		parts = append(parts, t.Text)
	}
	return strings.Join(parts, "."), nil
}

func (p *parser) parseCount() (int, error) {
	t := p.peek()
	if t.Kind != TokenNumber {
		return 0, p.errorf("number")
	}
	n, err := strconv.Atoi(t.Text)
	if err != nil || n < 0 {
		return 0, p.errorf("non-negative integer")
	}
	p.next()
	return n, nil
}

func (p *parser) parseExpr() (Expr, error) {
	t := p.peek()
	switch t.Kind {
	case TokenString:
		p.next()
		return StringLiteral{Value: t.Text}, nil
	case TokenNumber:
		p.next()
		return NumberLiteral{Text: t.Text}, nil
	case TokenIdent:
		if !t.Quoted && p.toks[p.pos+1].Kind == TokenLParen {
			return p.parseCall()
		}
		name, err := p.parseField()
		if err != nil {
			return nil, err
		}
		return Identifier{Name: name}, nil
	default:
		return nil, p.errorf("expression")
	}
}

func (p *parser) parseCall() (Expr, error) {
	nameTok := p.next()
	name := strings.ToUpper(nameTok.Text)
	if name != FuncConcat && name != FuncDateFormat {
		return nil, cerrors.NewParse("function "+nameTok.Text, "CONCAT or DATE_FORMAT", nameTok.Line, nameTok.Column)
	}
	p.next() // (

	call := FunctionCall{Name: name}
	if p.peek().Kind != TokenRParen {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
			if p.peek().Kind != TokenComma {
				break
			}
			p.next()
		}
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}

	switch {
	case name == FuncConcat && len(call.Args) == 0:
		return nil, cerrors.NewParse("CONCAT()", "at least one argument", nameTok.Line, nameTok.Column)
	case name == FuncDateFormat && (len(call.Args) < 1 || len(call.Args) > 2):
		return nil, cerrors.NewParse(call.String(), "DATE_FORMAT(value[, format])", nameTok.Line, nameTok.Column)
	}
	return call, nil
}

func (p *parser) parseOr() (Condition, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.acceptKeyword("OR") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = LogicalOp{Op: Or, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Condition, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.acceptKeyword("AND") {
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		left = LogicalOp{Op: And, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parsePrimary() (Condition, error) {
	if p.peek().Kind == TokenLParen {
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return Paren{Inner: inner}, nil
	}

	left, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if p.acceptKeyword("IS") {
		not := p.acceptKeyword("NOT")
		if err := p.expectKeyword("NULL"); err != nil {
			return nil, err
		}
		return IsNull{Expr: left, Not: not}, nil
	}

	not := p.acceptKeyword("NOT")
	if p.acceptKeyword("LIKE") {
		t, err := p.expect(TokenString)
		if err != nil {
			return nil, err
		}
		return Like{Expr: left, Pattern: t.Text, Not: not}, nil
	}
	if not {
		return nil, p.errorf("LIKE")
	}

	op, err := p.parseOperator()
	if err != nil {
		return nil, err
	}
	right, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return BinaryOp{Left: left, Op: op, Right: right}, nil
}

func (p *parser) parseOperator() (string, error) {
	t := p.peek()
	switch {
	case t.Kind == TokenOperator:
		p.next()
		if t.Text == "<>" {
			return OpNe, nil
		}
		return t.Text, nil
	case t.Kind == TokenKeyword && (t.Text == OpTerm || t.Text == OpMatch):
		p.next()
		return t.Text, nil
	default:
		return "", p.errorf("comparison operator")
	}
}
