// Command migrate runs schema operations for the API database.
//
//	migrate up                      apply pending migrations
//	migrate down <version>          revert one applied migration
//	migrate status [-o text|yaml]   show applied and pending migrations
//	migrate sql [up|down [version]] print the SQL without connecting
//	migrate auto                    create tables from the models (development only)
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"postboard/internal/config"
	"postboard/internal/database"

	"gopkg.in/yaml.v3"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: migrate <up|down|status|sql|auto> [args]")
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	output := fs.String("o", "text", "status output format: text or yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return usage()
	}

	cmd := strings.ToLower(strings.TrimSpace(fs.Arg(0)))
	rest := fs.Args()[1:]

	// Offline mode needs no configuration or connection.
	if cmd == "sql" {
		return renderSQL(rest, out)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = database.Close(db) }()

	ctx := context.Background()
	switch cmd {
	case "up":
		if err := database.RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		log.Println("sql migrations applied")
	case "auto":
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return fmt.Errorf("auto schema apply failed: %w", err)
		}
		log.Println("automigrations applied")
	case "status":
		sfs := flag.NewFlagSet("status", flag.ContinueOnError)
		format := sfs.String("o", *output, "output format: text or yaml")
		if err := sfs.Parse(rest); err != nil {
			return err
		}
		status, err := database.GetSchemaStatus(ctx, db, cfg)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		return printStatus(out, status, *format)
	case "down":
		if len(rest) < 1 {
			return fmt.Errorf("usage: migrate down <version>")
		}
		version, err := strconv.Atoi(rest[0])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", rest[0], err)
		}
		if err := database.RollbackMigration(ctx, db, version); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		log.Printf("rolled back migration %d", version)
	default:
		return usage()
	}

	return nil
}

// renderSQL prints the upgrade script, or the downgrade script for every
// migration at or above version (all of them when version is omitted).
func renderSQL(args []string, out io.Writer) error {
	migrations, err := database.EmbeddedMigrations()
	if err != nil {
		return err
	}

	direction := "up"
	if len(args) > 0 {
		direction = strings.ToLower(args[0])
	}

	switch direction {
	case "up":
		_, err = io.WriteString(out, database.RenderUpSQL(migrations))
	case "down":
		from := 0
		if len(args) > 1 {
			if from, err = strconv.Atoi(args[1]); err != nil {
				return fmt.Errorf("invalid version %q: %w", args[1], err)
			}
		}
		var selected []database.Migration
		for _, m := range migrations {
			if m.Version >= from {
				selected = append(selected, m)
			}
		}
		_, err = io.WriteString(out, database.RenderDownSQL(selected))
	default:
		return fmt.Errorf("usage: migrate sql [up|down [version]]")
	}
	return err
}

func printStatus(out io.Writer, status *database.SchemaStatus, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(status); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
		_, err := fmt.Fprintf(out, "mode=%s env=%s run_sql=%t run_auto=%t applied=%d pending=%d\n",
			status.Mode, status.Environment, status.WillRunSQL, status.WillRunAutoMigrate,
			len(status.AppliedVersions), len(status.PendingMigrations))
		if err != nil {
			return err
		}
		for _, m := range status.PendingMigrations {
			if _, err := fmt.Fprintf(out, "pending: %s\n", m); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
