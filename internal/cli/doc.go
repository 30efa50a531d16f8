package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/canonica-labs/esql/internal/adapters"
	cerrors "github.com/canonica-labs/esql/internal/errors"
)

func (c *CLI) newDocCmd() *cobra.Command {
	var docType string
	cmd := &cobra.Command{
		Use:   "doc",
		Short: "Single document management",
		Long: `Insert, replace and delete documents.

Clusters before 7.0 address documents by mapping type; pass it with --type.`,
	}
	cmd.PersistentFlags().StringVar(&docType, "type", "", "mapping type (required before 7.0)")

	ref := func(index, id string) adapters.DocumentRef {
		return adapters.DocumentRef{Index: index, Type: docType, ID: id}
	}

	cmd.AddCommand(c.newDocInsertCmd(ref))
	cmd.AddCommand(c.newDocUpdateCmd(ref))
	cmd.AddCommand(c.newDocDeleteCmd(ref))
	cmd.AddCommand(c.newDocDeleteBatchCmd(ref))

	return cmd
}

type refFunc func(index, id string) adapters.DocumentRef

func (c *CLI) docBody(body, file string) ([]byte, error) {
	data, err := c.bodyArg(body, file)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, cerrors.NewValidation("read document", "body", "a document is required", "pass --body or --file")
	}
	return data, nil
}

func (c *CLI) newDocInsertCmd(ref refFunc) *cobra.Command {
	var body, file string
	cmd := &cobra.Command{
		Use:   "insert <index>",
		Short: "Index a document with a generated id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := c.docBody(body, file)
			if err != nil {
				return err
			}
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			id, err := client.InsertDocument(ctx, ref(args[0], ""), data)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return c.outputJSON(map[string]string{"_id": id})
			}
			c.success("Document %s inserted into %s", id, args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&body, "body", "", "document as JSON")
	cmd.Flags().StringVarP(&file, "file", "f", "", "file holding the document, - for stdin")
	return cmd
}

func (c *CLI) newDocUpdateCmd(ref refFunc) *cobra.Command {
	var body, file string
	cmd := &cobra.Command{
		Use:   "update <index> <id>",
		Short: "Replace a document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := c.docBody(body, file)
			if err != nil {
				return err
			}
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			if err := client.UpdateDocument(ctx, ref(args[0], args[1]), data); err != nil {
				return err
			}
			c.success("Document %s updated", args[1])
			return nil
		},
	}
	cmd.Flags().StringVar(&body, "body", "", "document as JSON")
	cmd.Flags().StringVarP(&file, "file", "f", "", "file holding the document, - for stdin")
	return cmd
}

func (c *CLI) newDocDeleteCmd(ref refFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <index> <id>",
		Short: "Delete a document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			if err := client.DeleteDocument(ctx, ref(args[0], args[1])); err != nil {
				return err
			}
			c.success("Document %s deleted", args[1])
			return nil
		},
	}
}

func (c *CLI) newDocDeleteBatchCmd(ref refFunc) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "delete-batch <index> [id...]",
		Short: "Delete many documents through the bulk API",
		Long: `Delete many documents through the bulk API.

Ids come from the arguments, or one per line from --file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ids := args[1:]
			if file != "" {
				data, err := c.readInput(file)
				if err != nil {
					return err
				}
				for _, line := range strings.Split(string(data), "\n") {
					if id := strings.TrimSpace(line); id != "" {
						ids = append(ids, id)
					}
				}
			}
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			if err := client.DeleteDocuments(ctx, ref(args[0], ""), ids); err != nil {
				return err
			}
			c.success("Deleted %d documents", len(ids))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "file with one id per line, - for stdin")
	return cmd
}
