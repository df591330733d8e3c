package nl2sql

import (
	"fmt"
	"strings"
)

// PromptInput carries everything the prompt needs for one attempt.
type PromptInput struct {
	SchemaText       string
	RelationshipText string
	Question         string
	PreviousError    string
}

// BuildPrompt assembles the generation request. The ```sql fence instruction
// is a contract with sqltext.Extract and must not change independently.
func BuildPrompt(in PromptInput) string {
	previous := strings.TrimSpace(in.PreviousError)
	if previous == "" {
		previous = "(none)"
	}
	return fmt.Sprintf(`You are an autonomous PostgreSQL SQL-generation agent.

RULES:
- Return ONLY SQL inside %[1]ssql%[1]s ... %[1]s
- Use ONLY tables/columns that appear in the schema
- Use JOINs based on the foreign key relationships provided
- If previous SQL failed, FIX it
- Use CTEs and window functions for advanced queries

SCHEMA:
%[2]s

%[3]s

USER QUESTION:
%[4]s

PREVIOUS ERROR (if any):
%[5]s

Return only ONE SQL query inside %[1]ssql%[1]s fences.
`, "```", in.SchemaText, in.RelationshipText, strings.TrimSpace(in.Question), previous)
}
