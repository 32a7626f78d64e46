package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/chronoshop/backend/internal/infrastructure/config"
	"github.com/chronoshop/backend/internal/infrastructure/logger"
	"github.com/chronoshop/backend/internal/infrastructure/migration"
	"github.com/chronoshop/backend/migrations"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	var (
		sourceDir string
		logLevel  string
	)
	flag.StringVar(&sourceDir, "path", "", "Read migrations from this directory instead of the embedded schema")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	logCfg := logger.ConfigFor("development")
	logCfg.Level = logLevel
	logCfg.TimeFormat = "2006-01-02 15:04:05"
	log, err := logger.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	switch command {
	case "create":
		if len(args) < 2 {
			log.Fatal("Migration name required. Usage: migrate -path migrations create <name> [description]")
		}
		dir := sourceDir
		if dir == "" {
			dir = "migrations"
		}
		description := ""
		if len(args) > 2 {
			description = args[2]
		}
		mf, err := migration.CreateMigration(dir, args[1], description)
		if err != nil {
			log.Fatal("Failed to create migration", zap.Error(err))
		}
		log.Info("Migration created",
			zap.Uint("version", mf.Version),
			zap.String("up_file", mf.UpPath),
			zap.String("down_file", mf.DownPath),
		)
		return

	case "list":
		var entries []migration.Entry
		if sourceDir != "" {
			entries, err = migration.ListMigrations(os.DirFS(sourceDir))
		} else {
			entries, err = migration.ListMigrations(migrations.FS)
		}
		if err != nil {
			log.Fatal("Failed to list migrations", zap.Error(err))
		}
		for _, e := range entries {
			down := ""
			if !e.HasDown {
				down = " (no down)"
			}
			fmt.Printf("  %06d %s%s\n", e.Version, e.Name, down)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.Database.Driver != config.DriverPostgres {
		log.Fatal("SQL migrations target PostgreSQL; sqlite and memory stores create their schema on start",
			zap.String("driver", cfg.Database.Driver))
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database", zap.Error(err))
	}

	m, err := migration.New(db, log, migration.WithSourceDir(sourceDir))
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()

	if err := run(m, command, args[1:], log); err != nil {
		log.Error("Migration command failed", zap.String("command", command), zap.Error(err))
		os.Exit(1)
	}
}

func run(m *migration.Migrator, command string, args []string, log *zap.Logger) error {
	switch command {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "steps":
		n, err := intArg(args, "steps <n>")
		if err != nil {
			return err
		}
		return m.Steps(n)
	case "goto":
		v, err := intArg(args, "goto <version>")
		if err != nil {
			return err
		}
		if v < 0 {
			return fmt.Errorf("version must not be negative")
		}
		return m.GoTo(uint(v))
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	case "force":
		v, err := intArg(args, "force <version>")
		if err != nil {
			return err
		}
		return m.Force(v)
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func intArg(args []string, usage string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("missing argument, usage: migrate %s", usage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", args[0])
	}
	return n, nil
}

func printUsage() {
	fmt.Println(`chronoshop schema migrations

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  steps <n>             Apply n migrations (negative rolls back)
  goto <version>        Migrate to a specific version
  version               Show the applied version
  force <version>       Record a version without running it (clears dirty state)
  create <name> [desc]  Write a new numbered up/down pair into -path
  list                  List known migrations

Flags:
  -path string          Migrations directory (default: embedded schema; "migrations" for create)
  -log-level string     debug, info, warn, error (default: info)

Environment:
  SHOP_DATABASE_HOST, SHOP_DATABASE_PORT, SHOP_DATABASE_USER,
  SHOP_DATABASE_PASSWORD, SHOP_DATABASE_DBNAME, SHOP_DATABASE_SSLMODE`)
}
