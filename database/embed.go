package database

import (
	"embed"
	"io/fs"
)

// EmbeddedMigrations holds migrations/*.sql inside the binary, so a deployed
// client needs no migration files next to it.
//
//go:embed migrations/*.sql
var EmbeddedMigrations embed.FS

// Migrations returns the embedded migrations rooted at the migrations dir,
// ready to pass to New.
func Migrations() fs.FS {
	sub, err := fs.Sub(EmbeddedMigrations, "migrations")
	if err != nil {
		// fs.Sub only fails on an invalid path literal.
		panic(err)
	}
	return sub
}
