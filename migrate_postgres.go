//go:build postgres

package main

import (
	"embed"
	"errors"
	"fmt"
	"net/url"

	"github.com/billingcat/leadboard/model"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/postgres/*.sql
var migrationFS embed.FS

func migrateDSN(cfg *model.Config) (string, error) {
	svr, ok := cfg.Server()
	if !ok {
		return "", fmt.Errorf("no database configured for mode %q", cfg.Mode)
	}
	port := svr.DBPort
	if port == 0 {
		port = 5432
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(svr.DBUser, svr.DBPassword),
		Host:     fmt.Sprintf("%s:%d", svr.DBHost, port),
		Path:     "/" + svr.DBName,
		RawQuery: "sslmode=disable&timezone=UTC",
	}
	return u.String(), nil
}

func runMigrations(cfg *model.Config, down bool) error {
	dsn, err := migrateDSN(cfg)
	if err != nil {
		return err
	}
	src, err := iofs.New(migrationFS, "migrations/postgres")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	if down {
		err = m.Down()
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return verr
	}
	fmt.Printf("schema version %d (dirty=%t)\n", version, dirty)
	return nil
}
