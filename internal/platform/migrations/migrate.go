package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
)

//go:embed sql/*.sql
var files embed.FS

// Up applies every pending journal migration. No change is not an error.
func Up(conn *sql.DB, log logrus.FieldLogger) error {
	m, err := newMigrate(conn, log)
	if err != nil {
		return err
	}
	log.Info("running journal migrations")
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("journal migrations: no change needed")
			return nil
		}
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// Down rolls back n steps.
func Down(conn *sql.DB, n int, log logrus.FieldLogger) error {
	m, err := newMigrate(conn, log)
	if err != nil {
		return err
	}
	if err := m.Steps(-n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// Version reports the applied version and whether it is dirty.
func Version(conn *sql.DB, log logrus.FieldLogger) (uint, bool, error) {
	m, err := newMigrate(conn, log)
	if err != nil {
		return 0, false, err
	}
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

func newMigrate(conn *sql.DB, log logrus.FieldLogger) (*migrate.Migrate, error) {
	src, err := iofs.New(files, "sql")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	drv, err := mysql.WithInstance(conn, &mysql.Config{})
	if err != nil {
		return nil, fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "mysql", drv)
	if err != nil {
		return nil, fmt.Errorf("init migrate: %w", err)
	}
	m.Log = &migrateLogger{log: log}
	return m, nil
}

type migrateLogger struct {
	log logrus.FieldLogger
}

func (l *migrateLogger) Printf(format string, v ...any) {
	l.log.Infof("journal migration: "+format, v...)
}

func (l *migrateLogger) Verbose() bool { return false }
