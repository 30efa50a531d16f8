package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canonica-labs/esql/internal/router"
)

func (c *CLI) newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostics",
		Long: `Run diagnostics.

Checks:
  - configuration
  - profile store
  - selected profile and its credentials
  - cluster reachability and dialect`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDoctor(cmd.Context())
		},
	}
}

// DiagnosticCheck represents a single diagnostic check result.
type DiagnosticCheck struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (c *CLI) runDoctor(ctx context.Context) error {
	checks := []DiagnosticCheck{
		c.checkConfig(),
		c.checkStore(ctx),
	}
	profileCheck, endpoint := c.checkProfile(ctx)
	checks = append(checks, profileCheck)
	if profileCheck.Passed {
		checks = append(checks, c.checkCluster(ctx, endpoint))
	}

	allPassed := true
	for _, check := range checks {
		allPassed = allPassed && check.Passed
	}

	if c.jsonOutput {
		return c.outputJSON(map[string]any{
			"checks":     checks,
			"all_passed": allPassed,
		})
	}

	c.println("esql diagnostics")
	c.println("================")
	for _, check := range checks {
		c.printCheck(check)
	}
	c.println("")
	if allPassed {
		c.println("✓ All checks passed")
	} else {
		c.println("✗ Some checks failed - see above for details")
	}
	return nil
}

func (c *CLI) printCheck(check DiagnosticCheck) {
	status := "✗"
	if check.Passed {
		status = "✓"
	}
	c.printf("%s %s: %s\n", status, check.Name, check.Message)
	if check.Details != "" && !check.Passed {
		c.printf("  → %s\n", check.Details)
	}
}

func (c *CLI) checkConfig() DiagnosticCheck {
	check := DiagnosticCheck{Name: "Configuration"}
	if err := c.cfg.Validate(); err != nil {
		check.Message = "Invalid configuration"
		check.Details = err.Error()
		return check
	}
	check.Passed = true
	check.Message = fmt.Sprintf("page size %d, track_total_hits %s, timeout %s",
		c.cfg.Search.PageSize, c.cfg.Search.TrackTotalHits, c.cfg.Transport.Timeout)
	return check
}

func (c *CLI) checkStore(ctx context.Context) DiagnosticCheck {
	check := DiagnosticCheck{Name: "Profile store"}
	if c.endpoint != "" {
		check.Passed = true
		check.Message = "skipped (--endpoint given)"
		return check
	}
	store, err := c.profiles(ctx)
	if err != nil {
		check.Message = "Cannot open profile store"
		check.Details = err.Error()
		return check
	}
	list, err := store.List(ctx)
	if err != nil {
		check.Message = "Cannot read profiles"
		check.Details = err.Error()
		return check
	}
	check.Passed = true
	check.Message = fmt.Sprintf("%d profiles", len(list))
	return check
}

func (c *CLI) checkProfile(ctx context.Context) (DiagnosticCheck, string) {
	check := DiagnosticCheck{Name: "Profile"}
	p, _, err := c.resolveProfile(ctx)
	if err != nil {
		check.Message = "No usable profile"
		check.Details = err.Error()
		return check, ""
	}
	if err := p.Validate(); err != nil {
		check.Message = "Invalid profile"
		check.Details = err.Error()
		return check, ""
	}
	check.Passed = true
	check.Message = fmt.Sprintf("%s (%s, auth %s)", p.Name, p.Endpoint, p.AuthMode)
	return check, p.Endpoint
}

func (c *CLI) checkCluster(ctx context.Context, endpoint string) DiagnosticCheck {
	check := DiagnosticCheck{Name: "Cluster"}
	client, err := c.client(ctx)
	if err != nil {
		check.Message = "Cannot connect to " + endpoint
		check.Details = err.Error()
		return check
	}
	info, err := client.Info(ctx)
	if err != nil {
		check.Message = "Cannot read cluster info"
		check.Details = err.Error()
		return check
	}
	decision := router.SelectDialect(info.Version.Number)
	check.Passed = true
	check.Message = fmt.Sprintf("%s %s, %s", info.ClusterName, info.Version.Number, decision.Explain())
	return check
}
