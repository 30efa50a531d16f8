package sql

import (
	"encoding/json"
	"strings"

	"github.com/canonica-labs/esql/internal/query"
)

// Expr is a value expression: a select item or a condition operand.
type Expr interface {
	exprNode()
	// String renders the expression back as query text.
	String() string
}

// Star is the * select item.
type Star struct{}

// Identifier is a field reference. Dotted paths are joined into Name.
type Identifier struct {
	Name string
}

// StringLiteral is a single-quoted string.
type StringLiteral struct {
	Value string
}

// NumberLiteral keeps the literal text so large integers are not rounded.
type NumberLiteral struct {
	Text string
}

// FunctionCall is CONCAT(...) or DATE_FORMAT(...). Name is upper case.
type FunctionCall struct {
	Name string
	Args []Expr
}

func (Star) exprNode()          {}
func (Identifier) exprNode()    {}
func (StringLiteral) exprNode() {}
func (NumberLiteral) exprNode() {}
func (FunctionCall) exprNode()  {}

func (Star) String() string { return "*" }

func (e Identifier) String() string { return e.Name }

func (e StringLiteral) String() string {
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\t", `\t`).Replace(e.Value) + "'"
}

func (e NumberLiteral) String() string { return e.Text }

// Value returns the literal as a JSON number.
func (e NumberLiteral) Value() json.Number { return json.Number(e.Text) }

func (e FunctionCall) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return e.Name + "(" + strings.Join(args, ", ") + ")"
}

// Condition is a node of the WHERE tree.
type Condition interface {
	conditionNode()
	String() string
}

// Comparison operators of BinaryOp.
const (
	OpEq    = "="
	OpNe    = "!="
	OpLt    = "<"
	OpLte   = "<="
	OpGt    = ">"
	OpGte   = ">="
	OpTerm  = "TERM"
	OpMatch = "MATCH"
)

// BinaryOp is a comparison. <> is normalized to !=.
type BinaryOp struct {
	Left  Expr
	Op    string
	Right Expr
}

// IsNull is expr IS [NOT] NULL.
type IsNull struct {
	Expr Expr
	Not  bool
}

// Like is expr [NOT] LIKE 'pattern'.
type Like struct {
	Expr    Expr
	Pattern string
	Not     bool
}

// LogicalOperator joins two conditions.
type LogicalOperator string

const (
	And LogicalOperator = "AND"
	Or  LogicalOperator = "OR"
)

// LogicalOp is left AND|OR right.
type LogicalOp struct {
	Op    LogicalOperator
	Left  Condition
	Right Condition
}

// Paren is a parenthesized condition.
type Paren struct {
	Inner Condition
}

func (BinaryOp) conditionNode()  {}
func (IsNull) conditionNode()    {}
func (Like) conditionNode()      {}
func (LogicalOp) conditionNode() {}
func (Paren) conditionNode()     {}

func (c BinaryOp) String() string {
	return c.Left.String() + " " + c.Op + " " + c.Right.String()
}

func (c IsNull) String() string {
	if c.Not {
		return c.Expr.String() + " IS NOT NULL"
	}
	return c.Expr.String() + " IS NULL"
}

func (c Like) String() string {
	op := " LIKE "
	if c.Not {
		op = " NOT LIKE "
	}
	return c.Expr.String() + op + StringLiteral{Value: c.Pattern}.String()
}

func (c LogicalOp) String() string {
	return c.Left.String() + " " + string(c.Op) + " " + c.Right.String()
}

func (c Paren) String() string { return "(" + c.Inner.String() + ")" }

// SelectItem is one entry of the select list.
type SelectItem struct {
	Expr  Expr
	Alias string
}

// OrderItem is one ORDER BY key.
type OrderItem struct {
	Field     string
	Direction query.Direction
}

// Query is a parsed statement.
type Query struct {
	Select  []SelectItem
	From    string
	Where   Condition
	OrderBy []OrderItem
	Limit   *int
	Offset  *int
}

// IsStar reports whether the select list is exactly *.
func (q *Query) IsStar() bool {
	if len(q.Select) != 1 {
		return false
	}
	_, ok := q.Select[0].Expr.(Star)
	return ok
}
