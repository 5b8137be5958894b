// Package migrations embeds the lending engine's SQL migration files —
// the items ledger, the loans table, the audit trail, and the starter
// catalog seed — for the goose programmatic API in tests and server bootstrap.
package migrations

import "embed"

// FS holds all *.sql migration files embedded at compile time.
// Pass this to a goose provider instead of relying on a filesystem
// path at runtime.
//
//go:embed *.sql
var FS embed.FS
