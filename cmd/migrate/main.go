package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/leadscout/backend/internal/infrastructure/config"
	"github.com/leadscout/backend/internal/infrastructure/logger"
	"github.com/leadscout/backend/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

func main() {
	var (
		migrationsPath string
		logLevel       string
	)

	flag.StringVar(&migrationsPath, "path", "", "migrations directory, defaults to ./migrations")
	flag.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	if migrationsPath == "" {
		migrationsPath = resolveMigrationsPath()
	}
	migrationsPath, err = filepath.Abs(migrationsPath)
	if err != nil {
		log.Fatal("resolve migrations path", zap.Error(err))
	}

	log.Info("migration cli",
		zap.String("command", command),
		zap.String("migrations_path", migrationsPath))

	// create and list work on the filesystem alone
	switch command {
	case "create":
		runCreate(log, migrationsPath, args[1:])
		return
	case "list":
		runList(log, migrationsPath)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load configuration", zap.Error(err))
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal("ping database", zap.Error(err))
	}

	m, err := migration.New(db, migrationsPath, log)
	if err != nil {
		log.Fatal("create migrator", zap.Error(err))
	}
	defer m.Close()

	runDatabaseCommand(log, m, command, args[1:])
}

func runCreate(log *zap.Logger, migrationsPath string, args []string) {
	if len(args) < 1 {
		log.Fatal("usage: migrate create <name> [description]")
	}
	name := args[0]
	description := ""
	if len(args) > 1 {
		description = args[1]
	}

	mf, err := migration.CreateMigration(migrationsPath, name, description)
	if err != nil {
		log.Fatal("create migration", zap.Error(err))
	}

	log.Info("migration created",
		zap.String("version", mf.Version),
		zap.String("up_file", mf.UpPath),
		zap.String("down_file", mf.DownPath))
}

func runList(log *zap.Logger, migrationsPath string) {
	migrations, err := migration.ListMigrations(migrationsPath)
	if err != nil {
		log.Fatal("list migrations", zap.Error(err))
	}
	if len(migrations) == 0 {
		log.Info("no migrations found")
		return
	}

	log.Info("available migrations", zap.Int("count", len(migrations)))
	for _, m := range migrations {
		fmt.Println("  -", m)
	}
}

func runDatabaseCommand(log *zap.Logger, m *migration.Migrator, command string, args []string) {
	switch command {
	case "up":
		if err := m.Up(); err != nil {
			log.Fatal("apply migrations", zap.Error(err))
		}

	case "down":
		if err := m.Down(); err != nil {
			log.Fatal("roll back migrations", zap.Error(err))
		}

	case "step":
		n := parseIntArg(log, args, "usage: migrate step <n>")
		if err := m.Steps(n); err != nil {
			log.Fatal("step migrations", zap.Error(err))
		}

	case "goto":
		if len(args) < 1 {
			log.Fatal("usage: migrate goto <version>")
		}
		version, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			log.Fatal("version must be a number", zap.String("value", args[0]))
		}
		if err := m.GoTo(uint(version)); err != nil {
			log.Fatal("migrate to version", zap.Error(err))
		}

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			log.Fatal("read schema version", zap.Error(err))
		}
		if version == 0 {
			log.Info("no migrations applied")
			return
		}
		log.Info("current schema version",
			zap.Uint("version", version),
			zap.Bool("dirty", dirty))

	case "force":
		version := parseIntArg(log, args, "usage: migrate force <version>")
		log.Warn("forcing schema version without running migrations")
		if err := m.Force(version); err != nil {
			log.Fatal("force version", zap.Error(err))
		}

	case "drop":
		if !hasConfirmFlag(args) {
			log.Fatal("refusing to drop without -confirm")
		}
		if err := m.Drop(); err != nil {
			log.Fatal("drop database", zap.Error(err))
		}

	default:
		log.Error("unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
}

func parseIntArg(log *zap.Logger, args []string, usage string) int {
	if len(args) < 1 {
		log.Fatal(usage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		log.Fatal("argument must be a number", zap.String("value", args[0]))
	}
	return n
}

func hasConfirmFlag(args []string) bool {
	for _, arg := range args {
		if arg == "-confirm" || arg == "--confirm" {
			return true
		}
	}
	return false
}

// resolveMigrationsPath looks for the migrations directory next to the
// working directory first, then two levels above the executable (the
// layout used when running a built binary from cmd/migrate).
func resolveMigrationsPath() string {
	if _, err := os.Stat(defaultMigrationsPath); err == nil {
		return defaultMigrationsPath
	}
	if execPath, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(execPath), "..", "..", defaultMigrationsPath)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return defaultMigrationsPath
}

func printUsage() {
	fmt.Println(`leadscout schema migration tool

usage: migrate [flags] <command> [arguments]

commands:
  up                    apply every pending migration
  down                  roll back every migration
  step <n>              apply n migrations, negative n rolls back
  goto <version>        migrate up or down to a specific version
  version               print the current schema version
  force <version>       overwrite the recorded version without migrating
  drop -confirm         drop every object in the database
  create <name> [desc]  write a new up/down migration pair
  list                  print the available migration pairs

flags:
  -path       migrations directory, defaults to ./migrations
  -log-level  debug, info, warn, or error

database settings come from config.toml or LEADSCOUT_DATABASE_* environment
variables, the same sources the server reads.

examples:
  migrate up
  migrate step -1
  migrate create create_usage_counters "per-user usage counter table"
  migrate version`)
}
