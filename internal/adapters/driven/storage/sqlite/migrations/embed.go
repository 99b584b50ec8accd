// Package migrations holds the schema of the stage database. Files are
// named NNN_name.up.sql / NNN_name.down.sql and applied in order.
package migrations

import "embed"

// FS is the set of migrations compiled into the binary.
//
//go:embed *.sql
var FS embed.FS
