package postgres

import (
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/ignite/engagement-analytics/migrations"
)

// Migrate runs a goose command ("up", "down" or "status") against db using
// the embedded migrations.
func Migrate(db *sql.DB, command string) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	var err error
	switch command {
	case "", "up":
		err = goose.Up(db, ".")
	case "down":
		err = goose.Down(db, ".")
	case "status":
		err = goose.Status(db, ".")
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", command, err)
	}
	return nil
}
