// Command dbtool runs operator SQL scripts against the Postgres database.
//
//	dbtool migrate            apply pending scripts from MIGRATIONS_DIR
//	dbtool exec <file>        run one script in a transaction
//	dbtool create <name>      write a timestamped script template
//	dbtool check-schema       report the expected tables and their columns
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	_ "github.com/lib/pq"
	"github.com/smallbiznis/foundr/internal/sqlscript"
	"go.uber.org/zap"
)

type settings struct {
	DatabaseURL   string        `envconfig:"DATABASE_URL"`
	MigrationsDir string        `envconfig:"MIGRATIONS_DIR" default:"db/scripts"`
	Timeout       time.Duration `envconfig:"DBTOOL_TIMEOUT" default:"5m"`
	Verbose       bool          `envconfig:"DBTOOL_VERBOSE" default:"false"`
}

const usage = `usage: dbtool <command> [args]

commands:
  migrate            apply pending scripts from MIGRATIONS_DIR
  exec <file>        run one script in a transaction
  create <name>      write a timestamped script template
  check-schema       report the expected tables and their columns
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "dbtool:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	var cfg settings
	if err := envconfig.Process("", &cfg); err != nil {
		return err
	}

	fs := flag.NewFlagSet("dbtool", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(fs.Output(), usage) }
	dir := fs.String("dir", cfg.MigrationsDir, "directory holding migration scripts")
	verbose := fs.Bool("v", cfg.Verbose, "log every statement")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	log, err := newLogger(*verbose)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	command, rest := fs.Arg(0), fs.Args()[1:]
	if command == "create" {
		if len(rest) != 1 {
			return errors.New("create takes exactly one name")
		}
		path, err := sqlscript.Create(*dir, rest[0], time.Now())
		if err != nil {
			return err
		}
		log.Info("migration created", zap.String("path", path))
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	db, err := openDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	runner := sqlscript.NewRunner(db, log)

	switch command {
	case "migrate":
		ran, err := runner.Migrate(ctx, os.DirFS(*dir))
		if err != nil {
			return err
		}
		if len(ran) == 0 {
			log.Info("database is up to date", zap.String("dir", *dir))
		}
		return nil

	case "exec":
		if len(rest) != 1 {
			return errors.New("exec takes exactly one file")
		}
		file := rest[0]
		return runner.ExecFile(ctx, os.DirFS(filepath.Dir(file)), filepath.Base(file))

	case "check-schema":
		reports, err := runner.CheckSchema(ctx, rest)
		if err != nil {
			return err
		}
		return printSchema(os.Stdout, reports)

	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func openDB(ctx context.Context, url string) (*sql.DB, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(2)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect: %w", err)
	}
	return db, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func printSchema(out io.Writer, reports []sqlscript.TableReport) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	missing := 0
	for _, report := range reports {
		if !report.Exists {
			missing++
			fmt.Fprintf(w, "%s\tMISSING\n", report.Name)
			continue
		}
		fmt.Fprintf(w, "%s\tok\t%d columns\n", report.Name, len(report.Columns))
		for _, col := range report.Columns {
			null := "not null"
			if col.Nullable {
				null = "null"
			}
			fmt.Fprintf(w, "  %s\t%s\t%s\n", col.Name, col.DataType, null)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if missing > 0 {
		return fmt.Errorf("%d of %d tables missing", missing, len(reports))
	}
	return nil
}
