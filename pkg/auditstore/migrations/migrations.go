// Package migrations embeds the SQL migrations for the PostgreSQL audit
// store backend.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
