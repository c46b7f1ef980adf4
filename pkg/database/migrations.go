package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// migrationLockKey serializes migrators across PostgreSQL instances
const migrationLockKey = 7262010

// driverDirs names the per-driver subdirectory of a migrations root
var driverDirs = map[string]string{
	DriverSQLite:   "sqlite",
	DriverPostgres: "postgres",
}

// Migration is one NNN_description.sql file
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Migrator applies file migrations to one connection
type Migrator struct {
	db     *DB
	logger *zap.Logger
}

// NewMigrator creates a new migrator
func NewMigrator(db *DB, logger *zap.Logger) *Migrator {
	return &Migrator{
		db:     db,
		logger: logger,
	}
}

// ResolveDir returns the driver's subdirectory of root (root/sqlite or
// root/postgres) when it exists, and root itself otherwise.
func (m *Migrator) ResolveDir(root string) string {
	sub, ok := driverDirs[m.db.Driver()]
	if !ok {
		return root
	}
	dir := filepath.Join(root, sub)
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir
	}
	return root
}

// RunMigrations applies every pending migration found for this driver
// under root, in version order. Applied versions are skipped.
func (m *Migrator) RunMigrations(root string) error {
	dir := m.ResolveDir(root)
	m.logger.Info("Starting database migrations",
		zap.String("dir", dir),
		zap.String("driver", m.db.Driver()))

	if _, err := m.db.Exec(m.bookkeepingDDL()); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	migrations, err := LoadMigrations(dir)
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	applied := 0
	for _, mig := range migrations {
		ran, err := m.apply(mig)
		if err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", mig.Version, err)
		}
		if !ran {
			m.logger.Debug("Skipping applied migration",
				zap.Int("version", mig.Version),
				zap.String("name", mig.Name))
			continue
		}
		applied++
		m.logger.Info("Applied migration",
			zap.Int("version", mig.Version),
			zap.String("name", mig.Name))
	}

	m.logger.Info("Database migrations completed",
		zap.Int("applied", applied),
		zap.Int("total", len(migrations)))
	return nil
}

func (m *Migrator) bookkeepingDDL() string {
	if m.db.Driver() == DriverPostgres {
		return `CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`
	}
	return `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`
}

// apply runs one migration in its own transaction and reports whether it
// ran. The applied check happens inside the transaction, after the
// PostgreSQL advisory lock, so concurrent instances never apply twice.
func (m *Migrator) apply(mig Migration) (bool, error) {
	ran := false
	err := m.db.WithTransaction(func(tx *sql.Tx) error {
		if m.db.Driver() == DriverPostgres {
			if _, err := tx.Exec("SELECT pg_advisory_xact_lock($1)", migrationLockKey); err != nil {
				return fmt.Errorf("failed to take migration lock: %w", err)
			}
		}

		var n int
		err := tx.QueryRow(m.db.Rebind("SELECT COUNT(*) FROM schema_migrations WHERE version = ?"), mig.Version).Scan(&n)
		if err != nil {
			return fmt.Errorf("failed to check migration state: %w", err)
		}
		if n > 0 {
			return nil
		}

		if _, err := tx.Exec(mig.SQL); err != nil {
			return fmt.Errorf("failed to execute migration SQL: %w", err)
		}
		_, err = tx.Exec(
			m.db.Rebind("INSERT INTO schema_migrations (version, name) VALUES (?, ?)"),
			mig.Version,
			mig.Name,
		)
		if err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
		ran = true
		return nil
	})
	return ran, err
}

// LoadMigrations reads the .sql files directly inside dir, sorted by
// version. Subdirectories are not descended into, so a root holding
// several drivers' files never mixes them.
func LoadMigrations(dir string) ([]Migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]string)
	var migrations []Migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		mig, err := parseMigrationName(e.Name())
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[mig.Version]; dup {
			return nil, fmt.Errorf("duplicate migration version %d: %s and %s", mig.Version, prev, e.Name())
		}
		seen[mig.Version] = e.Name()

		content, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", e.Name(), err)
		}
		mig.SQL = string(content)
		migrations = append(migrations, mig)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// parseMigrationName splits "001_initial_schema.sql" into version 1 and
// name "initial_schema"
func parseMigrationName(filename string) (Migration, error) {
	base := strings.TrimSuffix(filename, ".sql")
	prefix, name, _ := strings.Cut(base, "_")
	version, err := strconv.Atoi(prefix)
	if err != nil || version <= 0 {
		return Migration{}, fmt.Errorf("invalid migration filename format: %s", filename)
	}
	return Migration{Version: version, Name: name}, nil
}
