package sqlscript

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

const scriptTemplate = `-- Migration: %s
-- Created at: %s

-- Statements are split on semicolons and run in one transaction.

-- CREATE TABLE example (
--   id BIGINT PRIMARY KEY,
--   created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
--   updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
-- );
-- CREATE INDEX IF NOT EXISTS idx_example_created ON example (created_at);
`

// FileName builds "<yyyymmdd_hhmmss>_<name>.sql" with unsafe characters
// replaced by underscores.
func FileName(name string, at time.Time) string {
	return at.UTC().Format("20060102_150405") + "_" + unsafeNameChars.ReplaceAllString(name, "_") + ".sql"
}

// Create writes an empty script template into dir and returns its path.
func Create(dir, name string, at time.Time) (string, error) {
	if name == "" {
		return "", errors.New("migration name is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, FileName(name, at))
	body := fmt.Sprintf(scriptTemplate, name, at.UTC().Format(time.RFC3339))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := f.WriteString(body); err != nil {
		_ = f.Close()
		return "", err
	}
	return path, f.Close()
}
