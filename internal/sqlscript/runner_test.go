package sqlscript

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMockRunner(t *testing.T) (*Runner, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRunner(db, zap.NewNop()), mock
}

func TestMigrateAppliesPendingFilesInOrder(t *testing.T) {
	runner, mock := newMockRunner(t)

	fsys := fstest.MapFS{
		"20240102_000000_members.sql": {Data: []byte("BEGIN;\nCREATE TABLE members (id BIGINT);\nCOMMIT;\n")},
		"20240101_000000_init.sql":    {Data: []byte("CREATE TABLE countries (id BIGINT);")},
		"README.md":                   {Data: []byte("not a script")},
	}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT name FROM migrations").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("20240101_000000_init.sql"))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE members").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO migrations").
		WithArgs("20240102_000000_members.sql", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	ran, err := runner.Migrate(context.Background(), fsys)
	require.NoError(t, err)
	require.Equal(t, []string{"20240102_000000_members.sql"}, ran)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateStopsAndRollsBackOnFailure(t *testing.T) {
	runner, mock := newMockRunner(t)

	fsys := fstest.MapFS{
		"001_bad.sql":  {Data: []byte("CREATE TABLE a (id INT);\nINSERT INTO a VALUES ('x');")},
		"002_next.sql": {Data: []byte("CREATE TABLE b (id INT);")},
	}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT name FROM migrations").WillReturnRows(sqlmock.NewRows([]string{"name"}))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE a").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO a").WillReturnError(errors.New("invalid input syntax"))
	mock.ExpectRollback()

	ran, err := runner.Migrate(context.Background(), fsys)
	require.Error(t, err)
	require.Empty(t, ran)

	var stmtErr *StatementError
	require.ErrorAs(t, err, &stmtErr)
	require.Equal(t, "001_bad.sql", stmtErr.Script)
	require.Equal(t, 1, stmtErr.Index)
	require.Contains(t, err.Error(), "statement 2")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecFileRunsInOneTransaction(t *testing.T) {
	runner, mock := newMockRunner(t)

	fsys := fstest.MapFS{
		"seed.sql": {Data: []byte("INSERT INTO countries (name) VALUES ('Côte d''Ivoire');\nUPDATE countries SET code = 'CI';")},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO countries").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE countries").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, runner.ExecFile(context.Background(), fsys, "seed.sql"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckSchema(t *testing.T) {
	runner, mock := newMockRunner(t)

	mock.ExpectQuery("SELECT EXISTS").WithArgs("members").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT column_name, data_type, is_nullable").WithArgs("members").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable"}).
			AddRow("id", "bigint", "NO").
			AddRow("phone", "text", "YES"))
	mock.ExpectQuery("SELECT EXISTS").WithArgs("ghosts").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	reports, err := runner.CheckSchema(context.Background(), []string{"members", "ghosts"})
	require.NoError(t, err)
	require.Len(t, reports, 2)

	require.True(t, reports[0].Exists)
	require.Equal(t, []Column{
		{Name: "id", DataType: "bigint"},
		{Name: "phone", DataType: "text", Nullable: true},
	}, reports[0].Columns)

	require.False(t, reports[1].Exists)
	require.Empty(t, reports[1].Columns)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)

	path, err := Create(dir, "add member-index", at)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "20240305_140709_add_member_index.sql"), path)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(body), "-- Migration: add member-index\n"))
	require.Empty(t, Split(string(body)))

	_, err = Create(dir, "add member-index", at)
	require.ErrorIs(t, err, os.ErrExist)

	_, err = Create(dir, "", at)
	require.Error(t, err)
}
