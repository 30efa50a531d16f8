// Package main is the entrypoint for the esql CLI.
package main

import (
	"os"

	"github.com/canonica-labs/esql/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersionInfo(version, commit, date)
	os.Exit(cli.New().Execute())
}
