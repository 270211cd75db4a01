// Package sqlscript runs operator SQL scripts against Postgres and keeps the
// migrations bookkeeping table used by cmd/dbtool.
package sqlscript

import "strings"

// Split breaks a script into statements on semicolons. Semicolons inside
// quoted strings, quoted identifiers, comments and dollar-quoted bodies do not
// end a statement. Empty statements are dropped.
func Split(script string) []string {
	var (
		out     []string
		current strings.Builder
		i       int
	)

	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" && !isCommentOnly(stmt) {
			out = append(out, stmt)
		}
		current.Reset()
	}

	for i < len(script) {
		ch := script[i]
		switch {
		case ch == '\'' || ch == '"':
			end := closingQuote(script, i+1, ch)
			current.WriteString(script[i:end])
			i = end
		case ch == '-' && strings.HasPrefix(script[i:], "--"):
			end := strings.IndexByte(script[i:], '\n')
			if end < 0 {
				end = len(script) - i
			}
			current.WriteString(script[i : i+end])
			i += end
		case ch == '/' && strings.HasPrefix(script[i:], "/*"):
			end := strings.Index(script[i+2:], "*/")
			if end < 0 {
				current.WriteString(script[i:])
				i = len(script)
				continue
			}
			current.WriteString(script[i : i+2+end+2])
			i += 2 + end + 2
		case ch == '$':
			tag, ok := dollarTag(script[i:])
			if !ok {
				current.WriteByte(ch)
				i++
				continue
			}
			end := strings.Index(script[i+len(tag):], tag)
			if end < 0 {
				current.WriteString(script[i:])
				i = len(script)
				continue
			}
			stop := i + len(tag) + end + len(tag)
			current.WriteString(script[i:stop])
			i = stop
		case ch == ';':
			flush()
			i++
		default:
			current.WriteByte(ch)
			i++
		}
	}
	flush()
	return out
}

func closingQuote(s string, from int, quote byte) int {
	for i := from; i < len(s); i++ {
		if s[i] != quote {
			continue
		}
		// A doubled quote is an escaped quote.
		if i+1 < len(s) && s[i+1] == quote {
			i++
			continue
		}
		return i + 1
	}
	return len(s)
}

// dollarTag matches $$ or $tag$ at the start of s.
func dollarTag(s string) (string, bool) {
	for i := 1; i < len(s); i++ {
		c := s[i]
		if c == '$' {
			return s[:i+1], true
		}
		if !(c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || i > 1 && c >= '0' && c <= '9') {
			return "", false
		}
	}
	return "", false
}

func isCommentOnly(stmt string) bool {
	for _, line := range strings.Split(stmt, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "--") {
			return false
		}
	}
	return true
}

// isTransactionControl reports statements that would break out of the
// per-file transaction the runner opens.
func isTransactionControl(stmt string) bool {
	switch strings.ToUpper(strings.TrimSpace(stripLeadingComments(stmt))) {
	case "BEGIN", "BEGIN TRANSACTION", "START TRANSACTION", "COMMIT", "END", "COMMIT TRANSACTION":
		return true
	default:
		return false
	}
}

func stripLeadingComments(stmt string) string {
	lines := strings.Split(stmt, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && !strings.HasPrefix(trimmed, "--") {
			return strings.Join(lines[i:], "\n")
		}
	}
	return ""
}
