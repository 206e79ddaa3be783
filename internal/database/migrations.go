package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/tern/v2/migrate"
)

// Schema versions are tracked by tern in this table.
const versionTable = "db_version"

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrator applies the embedded schema of the routing table.
type Migrator struct {
	migrator *migrate.Migrator
}

// Step is one embedded migration.
type Step struct {
	Sequence int32
	Name     string
	Applied  bool
}

// Status tells which migrations the database has applied.
type Status struct {
	Current int32
	Latest  int32
	Steps   []Step
}

// String lists every migration, marking the current one with "->".
func (s Status) String() string {
	b := strings.Builder{}
	fmt.Fprintf(&b, "schema version %d of %d\n", s.Current, s.Latest)
	for _, step := range s.Steps {
		marker := "  "
		if step.Sequence == s.Current {
			marker = "->"
		}
		fmt.Fprintf(&b, "%2s %3d %s\n", marker, step.Sequence, step.Name)
	}
	return b.String()
}

func NewMigrator(ctx context.Context, conn *pgx.Conn) (Migrator, error) {
	m, err := migrate.NewMigratorEx(ctx, conn, versionTable, &migrate.MigratorOptions{DisableTx: false})
	if err != nil {
		return Migrator{}, fmt.Errorf("unable to create migrator: %w", err)
	}
	root, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return Migrator{}, err
	}
	if err := m.LoadMigrations(root); err != nil {
		return Migrator{}, fmt.Errorf("unable to load migrations: %w", err)
	}
	return Migrator{migrator: m}, nil
}

// Status reads the current schema version.
func (m Migrator) Status(ctx context.Context) (Status, error) {
	current, err := m.migrator.GetCurrentVersion(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("unable to read schema version: %w", err)
	}
	s := Status{Current: current}
	for _, mig := range m.migrator.Migrations {
		s.Steps = append(s.Steps, Step{
			Sequence: mig.Sequence,
			Name:     mig.Name,
			Applied:  mig.Sequence <= current,
		})
		s.Latest = mig.Sequence
	}
	return s, nil
}

// Migrate migrates the DB to the most recent version of the schema.
func (m Migrator) Migrate(ctx context.Context) error {
	return m.migrator.Migrate(ctx)
}

// MigrateTo migrates to a specific version of the schema. Use '0' to undo all migrations.
func (m Migrator) MigrateTo(ctx context.Context, ver int32) error {
	return m.migrator.MigrateTo(ctx, ver)
}

// RunMigrations brings the database to version target, or to the newest
// embedded version when target is negative, and reports the result.
func RunMigrations(ctx context.Context, connStr string, target int32) (Status, error) {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return Status{}, fmt.Errorf("unable to connect to database: %w", err)
	}
	defer conn.Close(ctx)

	m, err := NewMigrator(ctx, conn)
	if err != nil {
		return Status{}, err
	}
	if target < 0 {
		err = m.Migrate(ctx)
	} else {
		err = m.MigrateTo(ctx, target)
	}
	if err != nil {
		return Status{}, fmt.Errorf("unable to migrate database: %w", err)
	}
	return m.Status(ctx)
}
