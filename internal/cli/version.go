package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func (c *CLI) newVersionCmd() *cobra.Command {
	var cluster bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  `Display CLI version information, and with --cluster the version of the selected cluster.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := VersionInfo{
				Version:   Version,
				GitCommit: GitCommit,
				BuildDate: BuildDate,
				GoVersion: runtime.Version(),
				OS:        runtime.GOOS,
				Arch:      runtime.GOARCH,
			}

			var clusterVersion, dialect string
			if cluster {
				ctx := cmd.Context()
				client, err := c.client(ctx)
				if err != nil {
					return err
				}
				clusterVersion = client.Profile().Version
				dialect = client.Dialect().String()
			}

			if c.jsonOutput {
				output := struct {
					VersionInfo
					Cluster *clusterVersionInfo `json:"cluster,omitempty"`
				}{VersionInfo: info}
				if cluster {
					output.Cluster = &clusterVersionInfo{Version: clusterVersion, Dialect: dialect}
				}
				return c.outputJSON(output)
			}

			c.println("esql")
			c.printf("  Version:    %s\n", info.Version)
			c.printf("  Git Commit: %s\n", info.GitCommit)
			c.printf("  Build Date: %s\n", info.BuildDate)
			c.printf("  Go Version: %s\n", info.GoVersion)
			c.printf("  OS/Arch:    %s/%s\n", info.OS, info.Arch)
			if cluster {
				c.println("")
				c.println("Cluster:")
				c.printf("  Version: %s\n", clusterVersion)
				c.printf("  Dialect: %s\n", dialect)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&cluster, "cluster", false, "also show the cluster version")
	return cmd
}

// VersionInfo represents version information for JSON output.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

type clusterVersionInfo struct {
	Version string `json:"version"`
	Dialect string `json:"dialect"`
}

// SetVersionInfo sets the version information (called from main).
func SetVersionInfo(version, commit, date string) {
	if version != "" {
		Version = version
	}
	if commit != "" {
		GitCommit = commit
	}
	if date != "" {
		BuildDate = date
	}
}

// GetVersionString returns a formatted version string.
func GetVersionString() string {
	return fmt.Sprintf("esql version %s (commit: %s, built: %s)",
		Version, GitCommit, BuildDate)
}
