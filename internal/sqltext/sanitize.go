package sqltext

import "regexp"

// Rewrites target known model mistakes against the rental schema. Order is
// fixed: the year-extraction rewrite runs before the identifier rewrite so a
// statement like EXTRACT(YEAR FROM yr) resolves in a single pass.
var (
	extractYearPattern = regexp.MustCompile(`(?i)EXTRACT\(YEAR FROM (\w+)\)`)
	yrIdentPattern     = regexp.MustCompile(`\byr\b`)
)

const derivedYearColumn = "rental_year"

// Sanitize applies deterministic, idempotent textual rewrites for known
// generation mistakes. Empty input passes through unchanged.
func Sanitize(sql string) string {
	if sql == "" {
		return sql
	}
	sql = extractYearPattern.ReplaceAllString(sql, "$1")
	sql = yrIdentPattern.ReplaceAllString(sql, derivedYearColumn)
	return sql
}
