package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/canonica-labs/esql/internal/bulk"
	cerrors "github.com/canonica-labs/esql/internal/errors"
	"github.com/canonica-labs/esql/internal/query"
	"github.com/canonica-labs/esql/pkg/models"
)

// pageFlags are the paging flags shared by search and browse.
type pageFlags struct {
	page  int
	size  int
	sorts []string
}

func (f *pageFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.page, "page", 1, "1-based page number")
	cmd.Flags().IntVar(&f.size, "size", 0, "page size (default: search.page_size)")
	cmd.Flags().StringArrayVar(&f.sorts, "sort", nil, "sort key as field[:asc|desc], repeatable")
}

func (c *CLI) pageOf(f *pageFlags) query.Page {
	size := f.size
	if size == 0 {
		size = c.cfg.Search.PageSize
	}
	return query.Page{Num: f.page, Size: size}
}

func parseSorts(specs []string) []query.OrderItem {
	items := make([]query.OrderItem, 0, len(specs))
	for _, s := range specs {
		field, dir, _ := strings.Cut(s, ":")
		items = append(items, query.OrderItem{Field: field, Direction: query.Direction(dir), Enabled: true})
	}
	return items
}

// parseWhere reads clause:field:operator[:value]. The value may contain
// colons; a typed field reference (type:field) must be written as
// clause:type:field:operator:value and is recognized by its operator.
func parseWhere(spec string) (query.ConditionItem, error) {
	parts := strings.SplitN(spec, ":", 4)
	if len(parts) < 3 {
		return query.ConditionItem{}, cerrors.NewValidation("compile query", "where",
			fmt.Sprintf("%q is not clause:field:operator[:value]", spec), "e.g. must:status:term:active")
	}
	clause, err := query.ParseClause(parts[0])
	if err != nil {
		return query.ConditionItem{}, err
	}
	item := query.ConditionItem{Clause: clause, Field: parts[1], Operator: query.Operator(parts[2]), Enabled: true}
	if len(parts) == 4 {
		item.Value = parts[3]
		// clause:type:field:operator:value
		if !isOperator(item.Operator) {
			if field, rest, ok := strings.Cut(parts[3], ":"); ok && isOperator(query.Operator(field)) {
				item.Field = parts[1] + ":" + parts[2]
				item.Operator = query.Operator(field)
				item.Value = rest
			}
		}
	}
	return item, nil
}

func isOperator(op query.Operator) bool {
	for _, o := range query.Operators {
		if o == op {
			return true
		}
	}
	return false
}

func (c *CLI) newSearchCmd() *cobra.Command {
	var where []string
	var pf pageFlags
	cmd := &cobra.Command{
		Use:   "search <index>",
		Short: "Search an index with structured conditions",
		Long: `Search an index with structured conditions.

Each --where is clause:field:operator[:value] where clause is must, should
or must_not, and operator one of match, term, terms, exists, missing,
wildcard, range_lt, range_lte, range_gt, range_gte. terms takes a
comma-separated list.

Example:
  esql search logs --where must:level:term:error --where must_not:host:wildcard:test-* --sort @timestamp:desc`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			items := make([]query.ConditionItem, 0, len(where))
			for _, w := range where {
				item, err := parseWhere(w)
				if err != nil {
					return err
				}
				items = append(items, item)
			}
			tth, err := c.cfg.Search.TrackTotalHitsSetting()
			if err != nil {
				return err
			}
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			res, err := client.Search(ctx, query.FormSearch{
				Index:          args[0],
				Conditions:     items,
				Order:          parseSorts(pf.sorts),
				Page:           c.pageOf(&pf),
				TrackTotalHits: tth,
			})
			if err != nil {
				return err
			}
			return c.renderResult(res.Fields(), res.Records, res.Total)
		},
	}
	cmd.Flags().StringArrayVar(&where, "where", nil, "condition as clause:field:operator[:value], repeatable")
	pf.register(cmd)
	return cmd
}

func (c *CLI) newBrowseCmd() *cobra.Command {
	var must, should, mustNot, numbers, booleans []string
	var pf pageFlags
	cmd := &cobra.Command{
		Use:   "browse <index>",
		Short: "Browse documents with simple conditions",
		Long: `Browse the documents of an index.

Conditions are "field operator value" where operator is one of =, !=, >,
>=, <, <=, like, match, in, exists or missing. Values are strings unless
the field is listed in --number or --bool.

Example:
  esql browse users --must "age >= 30" --must "name like jo%" --number age`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			types := map[string]query.ValueType{}
			for _, f := range numbers {
				types[f] = query.ValueNumber
			}
			for _, f := range booleans {
				types[f] = query.ValueBoolean
			}
			var conds query.BrowserConditions
			var err error
			if conds.Must, err = parseBrowse(must, types); err != nil {
				return err
			}
			if conds.Should, err = parseBrowse(should, types); err != nil {
				return err
			}
			if conds.MustNot, err = parseBrowse(mustNot, types); err != nil {
				return err
			}
			tth, err := c.cfg.Search.TrackTotalHitsSetting()
			if err != nil {
				return err
			}
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			res, err := client.BrowseData(ctx, query.BrowserSearch{
				Index:          args[0],
				Conditions:     conds,
				Order:          parseSorts(pf.sorts),
				Page:           c.pageOf(&pf),
				TrackTotalHits: tth,
			})
			if err != nil {
				return err
			}
			return c.renderResult(res.Fields(), res.Records, res.Total)
		},
	}
	cmd.Flags().StringArrayVar(&must, "must", nil, `condition "field op value", repeatable`)
	cmd.Flags().StringArrayVar(&should, "should", nil, `condition "field op value", repeatable`)
	cmd.Flags().StringArrayVar(&mustNot, "must-not", nil, `condition "field op value", repeatable`)
	cmd.Flags().StringSliceVar(&numbers, "number", nil, "fields whose values are numbers")
	cmd.Flags().StringSliceVar(&booleans, "bool", nil, "fields whose values are booleans")
	pf.register(cmd)
	return cmd
}

func parseBrowse(specs []string, types map[string]query.ValueType) ([]query.BrowserCondition, error) {
	out := make([]query.BrowserCondition, 0, len(specs))
	for _, s := range specs {
		parts := strings.Fields(s)
		if len(parts) < 2 {
			return nil, cerrors.NewValidation("compile query", "condition",
				fmt.Sprintf("%q is not \"field operator value\"", s), `e.g. "age > 30"`)
		}
		cond := query.BrowserCondition{Field: parts[0], Operator: parts[1], ValueType: query.ValueString}
		if len(parts) > 2 {
			// keep inner spacing of the value
			rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), parts[0]))
			cond.Value = strings.TrimSpace(strings.TrimPrefix(rest, parts[1]))
		}
		if t, ok := types[cond.Field]; ok {
			cond.ValueType = t
		}
		out = append(out, cond)
	}
	return out, nil
}

func (c *CLI) newBulkCmd() *cobra.Command {
	var opts bulk.RequestOptions
	var refresh, format string
	cmd := &cobra.Command{
		Use:   "bulk <file|->",
		Short: "Send write actions through the bulk API",
		Long: `Send write actions through the bulk API.

The input is a YAML (or JSON) list of actions, or with --format ndjson a
raw bulk body:

  - action: index
    index: logs
    id: "1"
    document: {message: hello}
  - action: update
    index: logs
    id: "1"
    doc: {message: bye}
  - action: delete
    index: logs
    id: "2"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actions, err := c.readActions(args[0], format)
			if err != nil {
				return err
			}
			if refresh != "" {
				v, err := strconv.ParseBool(refresh)
				if err != nil {
					return cerrors.NewValidation("bulk", "refresh", "refresh must be true or false", "")
				}
				opts.Refresh = &v
			}
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			resp, err := client.Bulk(ctx, actions, opts)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return c.outputJSON(resp)
			}
			failures := resp.Failures()
			for _, f := range failures {
				c.errorf("%s %s/%s: %d %v\n", f.Verb, f.Index, f.ID, f.Status, f.Error)
			}
			if len(failures) > 0 {
				return cerrors.NewTransport("bulk", 0,
					fmt.Sprintf("%d of %d actions failed", len(failures), len(resp.Items)), "", nil)
			}
			c.success("%d actions applied in %dms", len(resp.Items), resp.Took)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "input format: yaml or ndjson")
	cmd.Flags().StringVar(&refresh, "refresh", "", "refresh after the request (true or false)")
	cmd.Flags().StringVar(&opts.Timeout, "timeout", "", "request timeout, e.g. 1m")
	cmd.Flags().StringVar(&opts.Consistency, "consistency", "", "write consistency (pre-5 clusters)")
	cmd.Flags().StringVar(&opts.Pipeline, "pipeline", "", "ingest pipeline")
	cmd.Flags().StringVar(&opts.LegacyType, "type", "", "mapping type (pre-7 clusters)")
	return cmd
}

func (c *CLI) readActions(path, format string) ([]bulk.Action, error) {
	data, err := c.readInput(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(format) {
	case "ndjson":
		return bulk.Parse(string(data))
	case "yaml", "json", "":
		return bulk.LoadActions(strings.NewReader(string(data)))
	default:
		return nil, cerrors.NewValidation("bulk", "format", fmt.Sprintf("unknown format %q", format), "use yaml or ndjson")
	}
}

// readInput reads a file, or stdin for "-".
func (c *CLI) readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(c.in)
		if err != nil {
			return nil, cerrors.NewFormat("read input", "stdin cannot be read", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cerrors.NewValidation("read input", "file", err.Error(), "")
	}
	return data, nil
}

// bodyArg returns the request body given inline with --body or as a file
// with --file. Neither yields nil.
func (c *CLI) bodyArg(body, file string) ([]byte, error) {
	switch {
	case body != "" && file != "":
		return nil, cerrors.NewValidation("read body", "body", "--body and --file are exclusive", "")
	case body != "":
		return []byte(body), nil
	case file != "":
		return c.readInput(file)
	default:
		return nil, nil
	}
}

func (c *CLI) newRequestCmd() *cobra.Command {
	var body, file string
	var headers []string
	cmd := &cobra.Command{
		Use:   "request <method> <path>",
		Short: "Send a free-form request",
		Long: `Send a free-form request and print the response body.

Example:
  esql request GET "/_cat/indices?v"
  esql request POST /logs/_search --body '{"query":{"match_all":{}}}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := c.bodyArg(body, file)
			if err != nil {
				return err
			}
			req := &models.RawRequest{Method: args[0], Path: args[1], Body: string(data), Headers: map[string]string{}}
			for _, h := range headers {
				k, v, ok := strings.Cut(h, ":")
				if !ok {
					return cerrors.NewValidation("request", "header", fmt.Sprintf("%q is not name:value", h), "")
				}
				req.Headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
			}
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			out, err := client.Raw(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&body, "body", "", "request body")
	cmd.Flags().StringVarP(&file, "file", "f", "", "file holding the request body, - for stdin")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "extra header as name:value, repeatable")
	return cmd
}
