package sqlscript

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

const createMigrationsTable = `CREATE TABLE IF NOT EXISTS migrations (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	run_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// StatementError points at the statement that failed inside a script.
type StatementError struct {
	Script    string
	Index     int
	Statement string
	Err       error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("%s: statement %d (%s): %v", e.Script, e.Index+1, firstLine(e.Statement), e.Err)
}

func (e *StatementError) Unwrap() error { return e.Err }

type Runner struct {
	db  *sql.DB
	log *zap.Logger
	now func() time.Time
}

func NewRunner(db *sql.DB, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{db: db, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Exec runs every statement of script in one transaction.
func (r *Runner) Exec(ctx context.Context, name, script string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := r.execStatements(ctx, tx, name, script); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ExecFile reads name from fsys and runs it with Exec.
func (r *Runner) ExecFile(ctx context.Context, fsys fs.FS, name string) error {
	body, err := fs.ReadFile(fsys, name)
	if err != nil {
		return err
	}
	r.log.Info("running sql file", zap.String("file", name))
	if err := r.Exec(ctx, name, string(body)); err != nil {
		return err
	}
	r.log.Info("sql file executed", zap.String("file", name))
	return nil
}

// Migrate applies every *.sql file in fsys that is not yet recorded in the
// migrations table, in lexical order. Each file commits together with its
// bookkeeping row, so a failed file leaves no trace and stops the run.
func (r *Runner) Migrate(ctx context.Context, fsys fs.FS) ([]string, error) {
	if _, err := r.db.ExecContext(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("ensure migrations table: %w", err)
	}

	files, err := Scripts(fsys)
	if err != nil {
		return nil, err
	}
	done, err := r.applied(ctx)
	if err != nil {
		return nil, err
	}

	var ran []string
	for _, name := range files {
		if done[name] {
			r.log.Debug("migration already applied", zap.String("name", name))
			continue
		}

		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return ran, err
		}

		r.log.Info("applying migration", zap.String("name", name))
		if err := r.applyOne(ctx, name, string(body)); err != nil {
			return ran, err
		}
		ran = append(ran, name)
	}

	r.log.Info("migrations complete", zap.Int("applied", len(ran)))
	return ran, nil
}

func (r *Runner) applyOne(ctx context.Context, name, script string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := r.execStatements(ctx, tx, name, script); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO migrations (name, run_at) VALUES ($1, $2)`, name, r.now()); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record migration %s: %w", name, err)
	}
	return tx.Commit()
}

func (r *Runner) execStatements(ctx context.Context, tx *sql.Tx, name, script string) error {
	for i, stmt := range Split(script) {
		if isTransactionControl(stmt) {
			continue
		}
		r.log.Debug("executing statement", zap.String("file", name), zap.String("statement", firstLine(stmt)))
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return &StatementError{Script: name, Index: i, Statement: stmt, Err: err}
		}
	}
	return nil
}

func (r *Runner) applied(ctx context.Context) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	done := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		done[name] = true
	}
	return done, rows.Err()
}

// Scripts lists the *.sql files at the root of fsys in lexical order.
func Scripts(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".sql" {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	return files, nil
}

func firstLine(stmt string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(stripLeadingComments(stmt)), "\n")
	return strings.TrimSpace(line)
}
