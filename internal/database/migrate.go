package database

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"

	"postboard/internal/middleware"
)

// Migration is one versioned, reversible schema step.
type Migration struct {
	Version    int
	Name       string
	UpScript   string
	DownScript string
}

func (m *Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

//go:embed migrations/*.sql
var migrationFS embed.FS

// EmbeddedMigrations returns the migrations compiled into the binary, ordered by version.
func EmbeddedMigrations() ([]Migration, error) {
	return LoadMigrations(migrationFS, "migrations")
}

// LoadMigrations reads NNNNNN_name.up.sql / NNNNNN_name.down.sql pairs from dir.
// Every up script must have a matching down script.
func LoadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var out []Migration
	seen := make(map[int]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(name, ".up.sql") {
			continue
		}

		base := strings.TrimSuffix(name, ".up.sql")
		parts := strings.SplitN(base, "_", 2)
		if len(parts) != 2 {
			middleware.Logger.Warn("Skipping migration with invalid naming", slog.String("file", name))
			continue
		}

		version, err := strconv.Atoi(parts[0])
		if err != nil {
			middleware.Logger.Warn("Skipping migration with non-numeric version", slog.String("file", name))
			continue
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("duplicate migration version %06d (%s and %s)", version, prev, parts[1])
		}
		seen[version] = parts[1]

		upBytes, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read up migration %s: %w", name, err)
		}

		downName := base + ".down.sql"
		downBytes, err := fs.ReadFile(fsys, path.Join(dir, downName))
		if err != nil {
			return nil, fmt.Errorf("failed to read down migration %s: %w", downName, err)
		}

		out = append(out, Migration{
			Version:    version,
			Name:       parts[1],
			UpScript:   string(upBytes),
			DownScript: string(downBytes),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Version < out[j].Version
	})

	return out, nil
}

func findMigration(migrations []Migration, version int) *Migration {
	for i := range migrations {
		if migrations[i].Version == version {
			return &migrations[i]
		}
	}
	return nil
}

// RenderUpSQL renders the full upgrade script without a database connection,
// including the bookkeeping statements for migration_logs.
func RenderUpSQL(migrations []Migration) string {
	var b strings.Builder
	b.WriteString("-- postboard schema upgrade\n")
	b.WriteString(strings.TrimSpace(ensureMigrationLogTableSQL))
	b.WriteString("\n")
	for _, m := range migrations {
		fmt.Fprintf(&b, "\n-- Running upgrade -> %s\n", m.String())
		b.WriteString(strings.TrimSpace(m.UpScript))
		b.WriteString("\n")
		fmt.Fprintf(&b, "INSERT INTO migration_logs (version, name) VALUES (%d, '%s');\n",
			m.Version, strings.ReplaceAll(m.Name, "'", "''"))
	}
	return b.String()
}

// RenderDownSQL renders the downgrade script for the given migrations in
// reverse version order.
func RenderDownSQL(migrations []Migration) string {
	var b strings.Builder
	b.WriteString("-- postboard schema downgrade\n")
	for i := len(migrations) - 1; i >= 0; i-- {
		m := migrations[i]
		fmt.Fprintf(&b, "\n-- Running downgrade %s ->\n", m.String())
		b.WriteString(strings.TrimSpace(m.DownScript))
		b.WriteString("\n")
		fmt.Fprintf(&b, "DELETE FROM migration_logs WHERE version = %d;\n", m.Version)
	}
	return b.String()
}
