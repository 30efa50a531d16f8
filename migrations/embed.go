// Package migrations provides the embedded schema of the profile store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
