// Package planner turns SQL-Lite statements into search requests.
//
// Planning is rule-based and deterministic: the FROM target is the index,
// WHERE compiles to the query document, ORDER BY to the sort, and LIMIT and
// OFFSET override the configured paging. The select list is not sent to the
// cluster; it is applied to the returned hits by Plan.Project.
package planner

import (
	"fmt"
	"strings"

	cerrors "github.com/canonica-labs/esql/internal/errors"
	"github.com/canonica-labs/esql/internal/jsonx"
	"github.com/canonica-labs/esql/internal/query"
	"github.com/canonica-labs/esql/internal/sql"
	"github.com/canonica-labs/esql/internal/table"
)

// DefaultPageSize is used when neither LIMIT nor a configured size is given.
const DefaultPageSize = 20

// Defaults are the paging settings a statement without LIMIT falls back to.
type Defaults struct {
	PageSize       int
	TrackTotalHits query.TrackTotalHits
}

// Plan is a statement compiled for one cluster generation.
type Plan struct {
	Query *sql.Query
	Index string
	Body  *query.SearchBody
	Major int
}

// Output is the projected result of a plan.
type Output struct {
	Fields []string
	Rows   []table.Record
	Total  table.Total
}

// Planner compiles SQL-Lite text into plans.
type Planner struct {
	parser   *sql.Parser
	defaults Defaults
}

// NewPlanner creates a planner. A page size below 1 takes DefaultPageSize.
func NewPlanner(defaults Defaults) *Planner {
	if defaults.PageSize < 1 {
		defaults.PageSize = DefaultPageSize
	}
	if defaults.TrackTotalHits.Mode == "" {
		defaults.TrackTotalHits = query.TrackTotalHits{Mode: query.TrackTotalHitsTrue}
	}
	return &Planner{parser: sql.NewParser(), defaults: defaults}
}

// Plan parses text and compiles it for a cluster of the given major version.
func (p *Planner) Plan(text string, major int) (*Plan, error) {
	q, err := p.parser.Parse(text)
	if err != nil {
		return nil, err
	}
	return p.PlanQuery(q, major)
}

// PlanQuery compiles an already parsed statement.
func (p *Planner) PlanQuery(q *sql.Query, major int) (*Plan, error) {
	if q == nil || q.From == "" {
		return nil, cerrors.NewValidation("plan query", "from", "statement has no index", "")
	}

	where, err := sql.WhereToQuery(q)
	if err != nil {
		return nil, err
	}

	order := make([]query.OrderItem, len(q.OrderBy))
	for i, o := range q.OrderBy {
		order[i] = query.OrderItem{Field: o.Field, Direction: o.Direction, Enabled: true}
	}
	sort, err := query.BuildSort(order)
	if err != nil {
		return nil, err
	}

	size := p.defaults.PageSize
	if q.Limit != nil {
		size = *q.Limit
	}
	from := 0
	if q.Offset != nil {
		from = *q.Offset
	}

	body := &query.SearchBody{Query: where, From: from, Size: size}
	if len(sort) > 0 {
		body.Sort = sort
	}
	body.SetTrackTotalHits(major, p.defaults.TrackTotalHits)

	return &Plan{Query: q, Index: q.From, Body: body, Major: major}, nil
}

// Project applies the select list to a search result.
func (p *Plan) Project(res *table.Result) (*Output, error) {
	fields, rows, err := sql.Project(p.Query.Select, res)
	if err != nil {
		return nil, err
	}
	return &Output{Fields: fields, Rows: rows, Total: res.Total}, nil
}

// Explain returns a human-readable description of how text would run.
func (p *Planner) Explain(text string, major int) (string, error) {
	plan, err := p.Plan(text, major)
	if err != nil {
		return "", err
	}
	body, err := jsonx.MarshalString(plan.Body)
	if err != nil {
		return "", cerrors.NewInternal("encode search body", err)
	}

	columns := make([]string, len(plan.Query.Select))
	for i, item := range plan.Query.Select {
		columns[i] = item.Alias
	}

	var b strings.Builder
	b.WriteString("Query Plan:\n")
	fmt.Fprintf(&b, "  Index: %s\n", plan.Index)
	fmt.Fprintf(&b, "  Request: POST /%s/_search\n", plan.Index)
	fmt.Fprintf(&b, "  Body: %s\n", body)
	fmt.Fprintf(&b, "  Columns: %s\n", strings.Join(columns, ", "))
	return b.String(), nil
}
