package cli

import (
	"context"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	cerrors "github.com/canonica-labs/esql/internal/errors"
	"github.com/canonica-labs/esql/pkg/models"
)

func (c *CLI) newTemplateCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Index template management",
		Long: `Manage index templates.

Legacy templates (_template) exist on every cluster; composable templates
(_index_template) from 7.x on. get, put and delete need --kind.`,
	}
	cmd.PersistentFlags().StringVar(&kind, "kind", "", "template kind: legacy or composable")

	parseKind := func() (models.TemplateKind, error) {
		k, err := models.ParseTemplateKind(kind)
		if err != nil {
			return "", cerrors.NewValidation("template", "kind", err.Error(), "pass --kind legacy or --kind composable")
		}
		return k, nil
	}

	cmd.AddCommand(c.newTemplateListCmd())
	cmd.AddCommand(c.newTemplateGetCmd(parseKind))
	cmd.AddCommand(c.newTemplatePutCmd(parseKind))
	cmd.AddCommand(c.newTemplateDeleteCmd(parseKind))

	return cmd
}

type kindFunc func() (models.TemplateKind, error)

func (c *CLI) newTemplateListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List legacy and composable templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			items, err := client.ListTemplates(ctx)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return c.outputJSON(items)
			}
			rows := make([][]string, len(items))
			for i, t := range items {
				rows[i] = []string{t.Name, string(t.Kind)}
			}
			return c.renderTable([]string{"NAME", "KIND"}, rows)
		},
	}
}

func (c *CLI) newTemplateGetCmd(kind kindFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Show a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			k, err := kind()
			if err != nil {
				return err
			}
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			t, err := client.GetTemplate(ctx, args[0], k)
			if err != nil {
				return err
			}
			return c.outputJSON(t)
		},
	}
}

func (c *CLI) newTemplatePutCmd(kind kindFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "put <file|->",
		Short: "Create or replace a template",
		Long: `Create or replace a template from a YAML or JSON definition:

  name: logs
  index_patterns: ["logs-*"]
  priority: 100
  settings: {number_of_shards: 1}
  mappings:
    properties:
      message: {type: text}

Mappings are written typeless; they are wrapped for clusters that need a
mapping type.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := kind()
			if err != nil {
				return err
			}
			t, err := c.readTemplate(args[0])
			if err != nil {
				return err
			}
			return c.putTemplate(cmd.Context(), k, t)
		},
	}
}

func (c *CLI) readTemplate(path string) (*models.IndexTemplate, error) {
	data, err := c.readInput(path)
	if err != nil {
		return nil, err
	}
	var t models.IndexTemplate
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, cerrors.NewFormat("put template", "definition is not a YAML or JSON template", err)
	}
	return &t, nil
}

func (c *CLI) putTemplate(ctx context.Context, kind models.TemplateKind, t *models.IndexTemplate) error {
	client, err := c.client(ctx)
	if err != nil {
		return err
	}
	if err := client.PutTemplate(ctx, kind, t); err != nil {
		return err
	}
	c.success("Template %s saved (%s)", t.Name, kind)
	return nil
}

func (c *CLI) newTemplateDeleteCmd(kind kindFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			k, err := kind()
			if err != nil {
				return err
			}
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			if err := client.DeleteTemplate(ctx, args[0], k); err != nil {
				return err
			}
			c.success("Template %s deleted", args[0])
			return nil
		},
	}
}
