package cli

import (
	"fmt"
	"sort"

	"github.com/pterm/pterm"

	"github.com/canonica-labs/esql/internal/jsonx"
	"github.com/canonica-labs/esql/internal/table"
)

func (c *CLI) outputJSON(v any) error {
	data, err := jsonx.MarshalIndent(v)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, string(data))
	return nil
}

// renderTable prints header and rows as a terminal table.
func (c *CLI) renderTable(header []string, rows [][]string) error {
	data := make(pterm.TableData, 0, len(rows)+1)
	data = append(data, header)
	data = append(data, rows...)
	s, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, s)
	return nil
}

func (c *CLI) success(format string, args ...any) {
	if c.quiet {
		return
	}
	fmt.Fprint(c.out, pterm.Success.Sprintfln(format, args...))
}

func (c *CLI) warn(format string, args ...any) {
	fmt.Fprint(c.err, pterm.Warning.Sprintfln(format, args...))
}

func (c *CLI) printError(err error) {
	fmt.Fprint(c.err, pterm.Error.Sprintln(err.Error()))
}

// renderResult prints a tabular search result.
func (c *CLI) renderResult(fields []string, rows []table.Record, total table.Total) error {
	if c.jsonOutput {
		return c.outputJSON(map[string]any{
			"fields": fields,
			"rows":   rows,
			"total":  totalJSON(total),
		})
	}
	matrix := make([][]string, 0, len(rows))
	for _, rec := range rows {
		line := make([]string, len(fields))
		for i, f := range fields {
			line[i] = table.FormatValue(rec[f])
		}
		matrix = append(matrix, line)
	}
	if err := c.renderTable(fields, matrix); err != nil {
		return err
	}
	c.println(totalLine(total, len(rows)))
	return nil
}

func totalJSON(t table.Total) map[string]any {
	out := map[string]any{"shape": t.Shape.String()}
	if t.Tracked() {
		out["value"] = t.Value
	}
	if t.Relation != "" {
		out["relation"] = t.Relation
	}
	return out
}

func totalLine(t table.Total, shown int) string {
	switch {
	case !t.Tracked():
		return fmt.Sprintf("%d rows (total not tracked)", shown)
	case t.Relation == "gte":
		return fmt.Sprintf("%d of at least %d hits", shown, t.Value)
	default:
		return fmt.Sprintf("%d of %d hits", shown, t.Value)
	}
}

// renderObject prints a decoded JSON object; as JSON always, since its
// shape is the cluster's.
func (c *CLI) renderObject(v map[string]any) error {
	return c.outputJSON(v)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
