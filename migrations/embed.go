// Package migrations holds the versioned SQL applied by "bptracker migrate".
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
