package sqlscript

import (
	"context"
)

// DefaultTables are the tables the API expects to find.
var DefaultTables = []string{
	"countries",
	"tiers",
	"members",
	"founders",
	"partners",
	"investors",
	"payment_intents",
	"payment_webhook_events",
	"member_subscriptions",
	"investor_interest_submissions",
}

type Column struct {
	Name     string
	DataType string
	Nullable bool
}

type TableReport struct {
	Name    string
	Exists  bool
	Columns []Column
}

// CheckSchema reports whether each table exists in the public schema and
// lists its columns in ordinal order.
func (r *Runner) CheckSchema(ctx context.Context, tables []string) ([]TableReport, error) {
	if len(tables) == 0 {
		tables = DefaultTables
	}

	reports := make([]TableReport, 0, len(tables))
	for _, table := range tables {
		report := TableReport{Name: table}
		err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS (
				SELECT 1 FROM information_schema.tables
				WHERE table_schema = 'public' AND table_name = $1
			)`, table,
		).Scan(&report.Exists)
		if err != nil {
			return nil, err
		}

		if report.Exists {
			cols, err := r.columns(ctx, table)
			if err != nil {
				return nil, err
			}
			report.Columns = cols
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (r *Runner) columns(ctx context.Context, table string) ([]Column, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position`, table,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var (
			col      Column
			nullable string
		)
		if err := rows.Scan(&col.Name, &col.DataType, &nullable); err != nil {
			return nil, err
		}
		col.Nullable = nullable == "YES"
		cols = append(cols, col)
	}
	return cols, rows.Err()
}
