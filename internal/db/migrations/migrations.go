// Package migrations embeds the goose SQL migrations so the migrator and
// integration tests don't depend on the working directory.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
