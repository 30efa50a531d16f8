package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/canonica-labs/esql/pkg/models"
)

func (c *CLI) newSQLCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sql",
		Short: "SQL-Lite statements",
		Long: `Run and explain SQL-Lite statements.

SQL-Lite is a single-index SELECT:

  SELECT <columns|*> FROM <index>
    [WHERE <condition>]
    [ORDER BY <field> [ASC|DESC], ...]
    [LIMIT n [OFFSET m]]

Keywords are upper case. WHERE compiles to the query DSL and runs on the
cluster; the select list (including CONCAT, DATE_FORMAT and aliases) is
applied to the returned hits.`,
	}

	cmd.AddCommand(c.newSQLRunCmd())
	cmd.AddCommand(c.newSQLExplainCmd())

	return cmd
}

func (c *CLI) newSQLRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <statement>",
		Short: "Run a statement",
		Long: `Run a SQL-Lite statement and print the result table.

Example:
  esql sql run "SELECT name, age FROM users WHERE age > 30 ORDER BY age DESC LIMIT 10"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSQL(cmd.Context(), strings.Join(args, " "))
		},
	}
}

func (c *CLI) runSQL(ctx context.Context, text string) error {
	p, err := c.planner()
	if err != nil {
		return err
	}
	client, err := c.client(ctx)
	if err != nil {
		return err
	}
	plan, err := p.Plan(text, client.Major())
	if err != nil {
		return err
	}
	out, err := client.Query(ctx, plan)
	if err != nil {
		return err
	}
	return c.renderResult(out.Fields, out.Rows, out.Total)
}

func (c *CLI) newSQLExplainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain <statement>",
		Short: "Show the search request a statement compiles to",
		Long: `Show the search request a statement compiles to without running it.

The request is shaped for the version of the selected profile, or
--es-version. Without either, the 7.x shape is shown.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSQLExplain(cmd.Context(), strings.Join(args, " "))
		},
	}
}

func (c *CLI) runSQLExplain(ctx context.Context, text string) error {
	p, err := c.planner()
	if err != nil {
		return err
	}
	major := c.explainMajor(ctx)
	if c.jsonOutput {
		plan, err := p.Plan(text, major)
		if err != nil {
			return err
		}
		return c.outputJSON(map[string]any{
			"index": plan.Index,
			"body":  plan.Body,
			"major": major,
		})
	}
	out, err := p.Explain(text, major)
	if err != nil {
		return err
	}
	c.printf("%s", out)
	return nil
}

// explainMajor picks the version to shape an explained request for without
// contacting the cluster.
func (c *CLI) explainMajor(ctx context.Context) int {
	version := c.version
	if version == "" && (c.endpoint != "" || c.profileName != "" || c.cfg.Profile != "") {
		if p, _, err := c.resolveProfile(ctx); err == nil {
			version = p.Version
		}
	}
	if m := models.MajorOf(version); m > 0 {
		return m
	}
	return 7
}
