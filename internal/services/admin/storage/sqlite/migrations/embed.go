package migrations

import "embed"

// FS contains embedded SQLite migrations for admin storage.
//
//go:embed *.sql
var FS embed.FS
