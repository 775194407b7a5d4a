package migrations

import (
	"embed"
	"io/fs"
)

// Files exposes embedded SQL migration files, one directory per driver.
//
//go:embed postgres/*.sql sqlite/*.sql
var Files embed.FS

// For returns the migration set for the named driver.
func For(driver string) (fs.FS, error) {
	return fs.Sub(Files, driver)
}
