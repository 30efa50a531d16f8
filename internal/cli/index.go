package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	cerrors "github.com/canonica-labs/esql/internal/errors"
	"github.com/canonica-labs/esql/pkg/models"
)

func (c *CLI) newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index management",
	}

	cmd.AddCommand(c.newIndexCreateCmd())
	cmd.AddCommand(c.newIndexUpdateCmd())
	cmd.AddCommand(c.newIndexDeleteCmd())
	cmd.AddCommand(c.newIndexOpenCloseCmd("open"))
	cmd.AddCommand(c.newIndexOpenCloseCmd("close"))
	cmd.AddCommand(c.newIndexAliasCmd())
	cmd.AddCommand(c.newIndexAnalyzeCmd())

	return cmd
}

func (c *CLI) newIndexCreateCmd() *cobra.Command {
	var body, file string
	cmd := &cobra.Command{
		Use:   "create <index>",
		Short: "Create an index",
		Long: `Create an index, optionally with a settings/mappings body.

Example:
  esql index create logs --body '{"settings":{"number_of_shards":1}}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := c.bodyArg(body, file)
			if err != nil {
				return err
			}
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			if err := client.CreateIndex(ctx, args[0], data); err != nil {
				return err
			}
			c.success("Index %s created", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&body, "body", "", "settings and mappings as JSON")
	cmd.Flags().StringVarP(&file, "file", "f", "", "file holding the body, - for stdin")
	return cmd
}

func (c *CLI) newIndexUpdateCmd() *cobra.Command {
	var body, file string
	cmd := &cobra.Command{
		Use:   "update <index>",
		Short: "Update index settings and/or mappings",
		Long: `Update index settings and/or mappings.

The body may hold "settings", "mappings", or bare "properties". Mappings
are reshaped for the cluster: pre-7 clusters need a type wrapper
({"mappings":{"_doc":{"properties":...}}}), 7.x accepts both, 8.x gets the
mapping unwrapped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := c.bodyArg(body, file)
			if err != nil {
				return err
			}
			if data == nil {
				return cerrors.NewValidation("update index", "body", "a body is required", "pass --body or --file")
			}
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			if err := client.UpdateIndex(ctx, args[0], data); err != nil {
				return err
			}
			c.success("Index %s updated", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&body, "body", "", "settings and/or mappings as JSON")
	cmd.Flags().StringVarP(&file, "file", "f", "", "file holding the body, - for stdin")
	return cmd
}

func (c *CLI) newIndexDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <index>...",
		Short: "Delete indices",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			if err := client.DeleteIndices(ctx, args); err != nil {
				return err
			}
			c.success("Deleted %d indices", len(args))
			return nil
		},
	}
}

func (c *CLI) newIndexOpenCloseCmd(verb string) *cobra.Command {
	var opts models.OpenCloseOptions
	var ignoreUnavailable, allowNoIndices string
	cmd := &cobra.Command{
		Use:   verb + " <index>",
		Short: map[string]string{"open": "Open a closed index", "close": "Close an index"}[verb],
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var err error
			if opts.IgnoreUnavailable, err = optionalBool("ignore-unavailable", ignoreUnavailable); err != nil {
				return err
			}
			if opts.AllowNoIndices, err = optionalBool("allow-no-indices", allowNoIndices); err != nil {
				return err
			}
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			if verb == "open" {
				err = client.OpenIndex(ctx, args[0], opts)
			} else {
				err = client.CloseIndex(ctx, args[0], opts)
			}
			if err != nil {
				return err
			}
			c.success("Index %s %s", args[0], map[string]string{"open": "opened", "close": "closed"}[verb])
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Timeout, "timeout", "", "operation timeout, e.g. 30s")
	cmd.Flags().StringVar(&opts.MasterTimeout, "master-timeout", "", "master node timeout")
	cmd.Flags().StringVar(&ignoreUnavailable, "ignore-unavailable", "", "ignore missing or closed indices (true or false)")
	cmd.Flags().StringVar(&allowNoIndices, "allow-no-indices", "", "allow wildcards matching nothing (true or false)")
	return cmd
}

func optionalBool(name, v string) (*bool, error) {
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, cerrors.NewValidation("parse flags", name, "must be true or false", "")
	}
	return &b, nil
}

func (c *CLI) newIndexAliasCmd() *cobra.Command {
	var add, remove []string
	var file string
	cmd := &cobra.Command{
		Use:   "alias",
		Short: "Add and remove aliases atomically",
		Long: `Add and remove aliases in one atomic request.

Simple changes use --add index=alias and --remove index=alias. Anything
richer (filters, routing, remove_index) goes in a YAML or JSON file:

  - add: {index: logs-2024, alias: logs, is_write_index: true}
  - remove: {index: logs-2023, alias: logs}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var actions []models.AliasAction
			if file != "" {
				data, err := c.readInput(file)
				if err != nil {
					return err
				}
				if err := yaml.Unmarshal(data, &actions); err != nil {
					return cerrors.NewFormat("update aliases", "file is not a list of alias actions", err)
				}
			}
			for _, spec := range add {
				t, err := aliasTarget(spec)
				if err != nil {
					return err
				}
				actions = append(actions, models.AliasAction{Add: t})
			}
			for _, spec := range remove {
				t, err := aliasTarget(spec)
				if err != nil {
					return err
				}
				actions = append(actions, models.AliasAction{Remove: t})
			}
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			if err := client.UpdateAliases(ctx, actions); err != nil {
				return err
			}
			c.success("Applied %d alias actions", len(actions))
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&add, "add", nil, "index=alias to add, repeatable")
	cmd.Flags().StringArrayVar(&remove, "remove", nil, "index=alias to remove, repeatable")
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML or JSON list of alias actions")
	return cmd
}

func aliasTarget(spec string) (*models.AliasTarget, error) {
	index, alias, ok := strings.Cut(spec, "=")
	if !ok || index == "" || alias == "" {
		return nil, cerrors.NewValidation("update aliases", "alias", spec+" is not index=alias", "")
	}
	return &models.AliasTarget{Index: index, Alias: alias}, nil
}

func (c *CLI) newIndexAnalyzeCmd() *cobra.Command {
	var field string
	cmd := &cobra.Command{
		Use:   "analyze <index> <text>",
		Short: "Show the tokens an analyzer produces",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			res, err := client.Analyze(ctx, args[0], field, args[1])
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return c.outputJSON(res)
			}
			rows := make([][]string, len(res.Tokens))
			for i, t := range res.Tokens {
				rows[i] = []string{
					strconv.Itoa(t.Position), t.Token, t.Type,
					strconv.Itoa(t.StartOffset), strconv.Itoa(t.EndOffset),
				}
			}
			return c.renderTable([]string{"POS", "TOKEN", "TYPE", "START", "END"}, rows)
		},
	}
	cmd.Flags().StringVar(&field, "field", "", "analyze with the analyzer of this field")
	return cmd
}
