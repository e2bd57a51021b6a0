// Package appfs embeds the files the binaries need at runtime (SQL migrations & email templates).
package appfs

import "embed"

//go:embed migrations/*.sql all:templates
var FS embed.FS
