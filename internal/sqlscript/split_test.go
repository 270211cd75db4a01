package sqlscript

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   []string
	}{
		{
			name:   "plain statements",
			script: "CREATE TABLE a (id INT);\nINSERT INTO a VALUES (1);\n",
			want:   []string{"CREATE TABLE a (id INT)", "INSERT INTO a VALUES (1)"},
		},
		{
			name:   "semicolon in string literal",
			script: "INSERT INTO notes VALUES ('a;b', 'it''s;fine');SELECT 1",
			want:   []string{"INSERT INTO notes VALUES ('a;b', 'it''s;fine')", "SELECT 1"},
		},
		{
			name:   "semicolon in comments",
			script: "-- first; still comment\nSELECT 1; /* block; comment */ SELECT 2;",
			want:   []string{"-- first; still comment\nSELECT 1", "/* block; comment */ SELECT 2"},
		},
		{
			name: "dollar quoted function body",
			script: `CREATE FUNCTION touch() RETURNS trigger AS $fn$
BEGIN
  NEW.updated_at = NOW();
  RETURN NEW;
END;
$fn$ LANGUAGE plpgsql;
SELECT 1;`,
			want: []string{
				"CREATE FUNCTION touch() RETURNS trigger AS $fn$\nBEGIN\n  NEW.updated_at = NOW();\n  RETURN NEW;\nEND;\n$fn$ LANGUAGE plpgsql",
				"SELECT 1",
			},
		},
		{
			name:   "positional parameters are not dollar quotes",
			script: "UPDATE a SET v = $1 WHERE id = $2; SELECT 1",
			want:   []string{"UPDATE a SET v = $1 WHERE id = $2", "SELECT 1"},
		},
		{
			name:   "comment only chunks dropped",
			script: ";;\n-- trailing note\n",
			want:   nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Split(tc.script))
		})
	}
}

func TestIsTransactionControl(t *testing.T) {
	require.True(t, isTransactionControl("BEGIN"))
	require.True(t, isTransactionControl("-- wrap\ncommit"))
	require.True(t, isTransactionControl("START TRANSACTION"))
	require.False(t, isTransactionControl("BEGIN;\nSELECT 1"))
	require.False(t, isTransactionControl("SELECT 'BEGIN'"))
}
