package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/canonica-labs/esql/internal/bootstrap"
	cerrors "github.com/canonica-labs/esql/internal/errors"
	"github.com/canonica-labs/esql/pkg/models"
)

func (c *CLI) newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Connection profile management",
		Long: `Manage connection profiles.

A profile names a cluster endpoint and its credentials. Passwords, header
values and cookies are kept in the OS keyring, never in the profile store.`,
	}

	cmd.AddCommand(c.newProfileAddCmd())
	cmd.AddCommand(c.newProfileInitCmd())
	cmd.AddCommand(c.newProfileImportCmd())
	cmd.AddCommand(c.newProfileListCmd())
	cmd.AddCommand(c.newProfileShowCmd())
	cmd.AddCommand(c.newProfileRemoveCmd())

	return cmd
}

func (c *CLI) newProfileAddCmd() *cobra.Command {
	var authMode, headerName string
	var detect bool
	cmd := &cobra.Command{
		Use:   "add <name> <endpoint>",
		Short: "Add a connection profile",
		Long: `Add a connection profile.

Auth modes:
  none    no credentials
  basic   --username and --password
  header  --header-name and --password as the header value
  cookie  --password as the cookie string

Example:
  esql profile add local http://localhost:9200 --auth basic --username elastic --password changeme`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := models.ParseAuthMode(authMode)
			if err != nil {
				return cerrors.NewValidation("add profile", "auth", err.Error(), "")
			}
			p := &models.ConnectionProfile{
				Name:       args[0],
				Endpoint:   args[1],
				AuthMode:   mode,
				Username:   c.username,
				Password:   c.password,
				HeaderName: headerName,
				Version:    c.version,
			}
			return c.runProfileAdd(cmd.Context(), p, detect)
		},
	}
	cmd.Flags().StringVar(&authMode, "auth", "none", "auth mode: none, basic, header or cookie")
	cmd.Flags().StringVar(&headerName, "header-name", "", "request header carrying the secret in header mode")
	cmd.Flags().BoolVar(&detect, "detect", true, "detect the cluster version now")
	return cmd
}

func (c *CLI) runProfileAdd(ctx context.Context, p *models.ConnectionProfile, detect bool) error {
	store, err := c.profiles(ctx)
	if err != nil {
		return err
	}
	if detect && p.Version == "" {
		version, err := c.remoteVersion(ctx, p)
		if err != nil {
			c.warn("version detection failed, it will be retried on first use: %v", err)
		} else {
			p.Version = version
		}
	}
	if err := store.Add(ctx, p); err != nil {
		return err
	}

	if c.jsonOutput {
		return c.outputJSON(p)
	}
	version := p.Version
	if version == "" {
		version = "unknown"
	}
	c.success("Profile %s added (%s, version %s)", p.Name, p.Endpoint, version)
	return nil
}

func (c *CLI) newProfileImportCmd() *cobra.Command {
	var prune, confirm bool
	cmd := &cobra.Command{
		Use:   "import <profiles.yaml>",
		Short: "Apply a declarative profiles file",
		Long: `Create or update the profiles defined in a profiles file.

Applying the same file twice changes nothing. Stored profiles missing from
the file are reported; --prune removes them and requires --confirm.

Start from an example with: esql profile init`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runProfileImport(cmd.Context(), args[0], prune, confirm)
		},
	}
	cmd.Flags().BoolVar(&prune, "prune", false, "remove stored profiles the file does not define")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "confirm removals made by --prune")
	return cmd
}

func (c *CLI) runProfileImport(ctx context.Context, path string, prune, confirm bool) error {
	file, err := bootstrap.LoadConfig(path)
	if err != nil {
		return err
	}
	if err := file.Validate(); err != nil {
		return err
	}
	store, err := c.profiles(ctx)
	if err != nil {
		return err
	}

	res, err := file.ApplyTo(ctx, store)
	if err != nil {
		return err
	}
	var removed []string
	if prune {
		b := bootstrap.NewBootstrapper(store)
		for _, name := range res.Stale {
			change := bootstrap.ProfileChange{Type: bootstrap.ChangeTypeDelete, Profile: name, Confirmed: confirm}
			if err := b.ApplyChange(ctx, change); err != nil {
				return err
			}
			removed = append(removed, name)
		}
	}

	if c.jsonOutput {
		return c.outputJSON(map[string]any{
			"created": res.Created,
			"updated": res.Updated,
			"removed": removed,
			"default": file.Default,
		})
	}
	c.success("Applied %s: %d created, %d updated, %d removed",
		path, len(res.Created), len(res.Updated), len(removed))
	if !prune && len(res.Stale) > 0 {
		c.warn("profiles not in the file: %s (use --prune --confirm to remove)", strings.Join(res.Stale, ", "))
	}
	if file.Default != "" && file.Default != c.cfg.Profile {
		c.printf("Set \"profile: %s\" in config.yaml to make it the default\n", file.Default)
	}
	return nil
}

func (c *CLI) newProfileInitCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write an example profiles file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := bootstrap.NewBootstrapper(nil).Init(dir)
			if err != nil {
				return err
			}
			c.success("Wrote %s", path)
			c.printf("Edit it, then run: esql profile import %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "directory to write profiles.yaml into")
	return cmd
}

func (c *CLI) newProfileListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List connection profiles",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.profiles(cmd.Context())
			if err != nil {
				return err
			}
			list, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return c.outputJSON(list)
			}
			if len(list) == 0 {
				c.println("No profiles. Add one with: esql profile add <name> <endpoint>")
				return nil
			}
			rows := make([][]string, len(list))
			for i, p := range list {
				def := ""
				if p.Name == c.cfg.Profile {
					def = "*"
				}
				rows[i] = []string{def, p.Name, p.Endpoint, string(p.AuthMode), p.Version}
			}
			return c.renderTable([]string{"", "NAME", "ENDPOINT", "AUTH", "VERSION"}, rows)
		},
	}
}

func (c *CLI) newProfileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a connection profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.profiles(cmd.Context())
			if err != nil {
				return err
			}
			p, err := store.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			hasSecret := p.Password != ""
			p.Password = ""
			if c.jsonOutput {
				return c.outputJSON(map[string]any{"profile": p, "secret_stored": hasSecret})
			}
			c.printf("Name:      %s\n", p.Name)
			c.printf("Endpoint:  %s\n", p.Endpoint)
			c.printf("Auth:      %s\n", p.AuthMode)
			if p.Username != "" {
				c.printf("Username:  %s\n", p.Username)
			}
			if p.HeaderName != "" {
				c.printf("Header:    %s\n", p.HeaderName)
			}
			c.printf("Secret:    %s\n", map[bool]string{true: "stored in keyring", false: "none"}[hasSecret])
			c.printf("Version:   %s\n", p.Version)
			c.printf("Created:   %s\n", p.CreatedAt.Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}

func (c *CLI) newProfileRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Remove a connection profile and its secret",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.profiles(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			c.success("Profile %s removed", args[0])
			return nil
		},
	}
}

// remoteVersion reads the version of the cluster p points at.
func (c *CLI) remoteVersion(ctx context.Context, p *models.ConnectionProfile) (string, error) {
	tr, err := c.transportFor(p)
	if err != nil {
		return "", err
	}
	return c.detectVersion(ctx, p, tr)
}
