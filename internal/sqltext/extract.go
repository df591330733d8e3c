// Package sqltext recovers and cleans a SQL statement from raw model output.
package sqltext

import (
	"regexp"
	"strings"
)

var (
	// "``` sql" / "``` SQL" variants collapse to the canonical fence tag
	// before block matching.
	fenceTagPattern   = regexp.MustCompile("(?i)```[ \t]+sql")
	fencedSQLPattern  = regexp.MustCompile("(?is)```sql\\s*(.*?)```")
	bareSQLLinePattern = regexp.MustCompile(`(?im)^\s*sql\s*\n`)
)

// Extract recovers a single SQL statement from raw model output. It prefers
// the interior of a ```sql fenced block; when none is found it strips every
// fence and backtick from the whole text. Empty input yields empty output.
func Extract(raw string) string {
	if raw == "" {
		return ""
	}

	text := fenceTagPattern.ReplaceAllString(raw, "```sql")

	var sql string
	if match := fencedSQLPattern.FindStringSubmatch(text); match != nil {
		sql = strings.TrimSpace(match[1])
	} else {
		sql = strings.ReplaceAll(text, "```", "")
		sql = strings.ReplaceAll(sql, "`", "")
		sql = strings.TrimSpace(sql)
	}

	sql = bareSQLLinePattern.ReplaceAllString(sql, "")
	if len(sql) >= 4 && strings.EqualFold(sql[:4], "sql ") {
		sql = strings.TrimSpace(sql[4:])
	}
	return strings.TrimSpace(sql)
}
