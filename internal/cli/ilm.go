package cli

import (
	"github.com/spf13/cobra"

	cerrors "github.com/canonica-labs/esql/internal/errors"
	"github.com/canonica-labs/esql/internal/table"
)

func (c *CLI) newIlmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ilm",
		Short: "Index lifecycle management (7.0 onwards)",
	}

	cmd.AddCommand(c.newIlmPolicyCmd())
	cmd.AddCommand(c.newIlmMoveCmd())
	cmd.AddCommand(c.newIlmRemoveCmd())
	cmd.AddCommand(c.newIlmExplainCmd())
	cmd.AddCommand(c.newIlmIndicesCmd())

	return cmd
}

func (c *CLI) newIlmPolicyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Lifecycle policies",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List lifecycle policies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			policies, err := client.IlmPolicies(ctx, "")
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return c.outputJSON(policies)
			}
			rows := make([][]string, 0, len(policies))
			for _, name := range sortedKeys(policies) {
				version := ""
				if p, ok := policies[name].(map[string]any); ok {
					if v, ok := p["version"]; ok {
						version = table.FormatValue(v)
					}
				}
				rows = append(rows, []string{name, version})
			}
			return c.renderTable([]string{"POLICY", "VERSION"}, rows)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <name>",
		Short: "Show a lifecycle policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			policy, err := client.IlmPolicies(ctx, args[0])
			if err != nil {
				return err
			}
			return c.renderObject(policy)
		},
	})

	var body, file string
	put := &cobra.Command{
		Use:   "put <name>",
		Short: "Create or replace a lifecycle policy",
		Long: `Create or replace a lifecycle policy.

Example:
  esql ilm policy put hot-delete --body '{"policy":{"phases":{"delete":{"min_age":"30d","actions":{"delete":{}}}}}}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := c.bodyArg(body, file)
			if err != nil {
				return err
			}
			if data == nil {
				return cerrors.NewValidation("put ilm policy", "body", "a policy body is required", "pass --body or --file")
			}
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			if err := client.PutIlmPolicy(ctx, args[0], data); err != nil {
				return err
			}
			c.success("Policy %s saved", args[0])
			return nil
		},
	}
	put.Flags().StringVar(&body, "body", "", "policy as JSON")
	put.Flags().StringVarP(&file, "file", "f", "", "file holding the policy, - for stdin")
	cmd.AddCommand(put)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a lifecycle policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			if err := client.DeleteIlmPolicy(ctx, args[0]); err != nil {
				return err
			}
			c.success("Policy %s deleted", args[0])
			return nil
		},
	})

	return cmd
}

func (c *CLI) newIlmMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <index> <policy>",
		Short: "Attach an index to a lifecycle policy",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			if err := client.IlmMove(ctx, args[0], args[1]); err != nil {
				return err
			}
			c.success("Index %s moved to policy %s", args[0], args[1])
			return nil
		},
	}
}

func (c *CLI) newIlmRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <index>",
		Short: "Detach an index from its lifecycle policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			if err := client.IlmRemove(ctx, args[0]); err != nil {
				return err
			}
			c.success("Lifecycle policy removed from %s", args[0])
			return nil
		},
	}
}

func (c *CLI) newIlmExplainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain [index]",
		Short: "Explain the lifecycle state of an index, or of all",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			index := ""
			if len(args) == 1 {
				index = args[0]
			}
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			out, err := client.IlmExplain(ctx, index)
			if err != nil {
				return err
			}
			return c.renderObject(out)
		},
	}
}

func (c *CLI) newIlmIndicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "indices <policy>",
		Short: "List the indices managed by a policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			out, err := client.IlmIndices(ctx, args[0])
			if err != nil {
				return err
			}
			return c.renderObject(out)
		},
	}
}
