// Package db embeds the SQL migrations for every supported store driver.
package db

import (
	"embed"
	"io/fs"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// Migrations returns the migration files for driver ("sqlite" or "postgres"),
// rooted so the .sql files sit at the top level.
func Migrations(driver string) (fs.FS, error) {
	return fs.Sub(migrationsFS, "migrations/"+driver)
}
