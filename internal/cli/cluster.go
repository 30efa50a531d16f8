package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/canonica-labs/esql/pkg/models"
)

func (c *CLI) newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the cluster root document and the selected dialect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			info, err := client.Info(ctx)
			if err != nil {
				return err
			}
			caps := client.Capabilities().Slice()
			if c.jsonOutput {
				return c.outputJSON(map[string]any{
					"info":         info,
					"dialect":      client.Dialect().String(),
					"capabilities": caps,
				})
			}
			c.printf("Cluster:      %s (%s)\n", info.ClusterName, info.ClusterUUID)
			c.printf("Node:         %s\n", info.Name)
			c.printf("Version:      %s\n", info.Version.Number)
			c.printf("Dialect:      %s\n", client.Dialect())
			names := make([]string, len(caps))
			for i, cp := range caps {
				names[i] = string(cp)
			}
			c.printf("Capabilities: %s\n", strings.Join(names, ", "))
			return nil
		},
	}
}

func (c *CLI) newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show cluster health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			h, err := client.ClusterHealth(ctx)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return c.outputJSON(h)
			}
			return c.renderTable(
				[]string{"CLUSTER", "STATUS", "NODES", "DATA", "PRIMARIES", "SHARDS", "RELOCATING", "INITIALIZING", "UNASSIGNED"},
				[][]string{healthRow(h)},
			)
		},
	}
}

func healthRow(h *models.ClusterHealth) []string {
	return []string{
		h.ClusterName, h.Status,
		strconv.Itoa(h.NumberOfNodes), strconv.Itoa(h.NumberOfDataNodes),
		strconv.Itoa(h.ActivePrimaryShards), strconv.Itoa(h.ActiveShards),
		strconv.Itoa(h.RelocatingShards), strconv.Itoa(h.InitializingShards),
		strconv.Itoa(h.UnassignedShards),
	}
}

func (c *CLI) newIndicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "indices [index]",
		Short: "List the indices of the cluster, or describe one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				item, err := client.GetIndex(ctx, args[0])
				if err != nil {
					return err
				}
				return c.outputJSON(item)
			}

			res, err := client.ClusterIndices(ctx)
			if err != nil {
				return err
			}
			if res.HealthErr != nil {
				c.warn("cluster health unavailable: %v", res.HealthErr)
			}
			if c.jsonOutput {
				return c.outputJSON(res)
			}
			rows := make([][]string, len(res.Indices))
			for i, idx := range res.Indices {
				rows[i] = []string{
					idx.Name, idx.State,
					strconv.Itoa(len(idx.Shards)),
					strings.Join(idx.Aliases, ","),
					strings.Join(idx.Types, ","),
					strconv.Itoa(len(idx.Fields)),
				}
			}
			if err := c.renderTable([]string{"INDEX", "STATE", "SHARDS", "ALIASES", "TYPES", "FIELDS"}, rows); err != nil {
				return err
			}
			if len(res.ErrorIndexKeys) > 0 {
				c.warn("metadata could not be read for: %s", strings.Join(res.ErrorIndexKeys, ", "))
			}
			if res.Health != nil {
				c.printf("%d indices, cluster %s is %s\n", len(res.Indices), res.Health.ClusterName, res.Health.Status)
			}
			return nil
		},
	}
}

func (c *CLI) newMappingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mapping <index>",
		Short: "List the queryable fields of an index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			fields, err := client.IndexMapping(ctx, args[0])
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return c.outputJSON(fields)
			}
			rows := make([][]string, len(fields))
			for i, f := range fields {
				rows[i] = []string{f.Value, f.Type}
			}
			return c.renderTable([]string{"FIELD", "TYPE"}, rows)
		},
	}
}

func (c *CLI) newAllocationCmd() *cobra.Command {
	var req models.AllocationExplainRequest
	cmd := &cobra.Command{
		Use:   "allocation",
		Short: "Explain shard allocation",
		Long: `Explain why a shard is or is not allocated.

Without --index the cluster explains the first unassigned shard it finds.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			var r *models.AllocationExplainRequest
			if req.Index != "" {
				r = &req
			}
			out, err := client.ExplainAllocation(ctx, r)
			if err != nil {
				return err
			}
			return c.renderObject(out)
		},
	}
	cmd.Flags().StringVar(&req.Index, "index", "", "index of the shard")
	cmd.Flags().IntVar(&req.Shard, "shard", 0, "shard number")
	cmd.Flags().BoolVar(&req.Primary, "primary", false, "explain the primary copy")
	return cmd
}
