// Package migrations embeds the goose SQL migrations for the roster database.
package migrations

import "embed"

// FS holds the versioned migration files.
//
//go:embed *.sql
var FS embed.FS
