// Package migrations embeds the credential schema for goose.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
