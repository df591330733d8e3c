package sqltext

import "testing"

func TestExtractFencedBlock(t *testing.T) {
	raw := "Here is the query:\n```sql\nSELECT * FROM customer;\n```\nHope it helps."
	if got := Extract(raw); got != "SELECT * FROM customer;" {
		t.Fatalf("Extract() = %q", got)
	}
}

func TestExtractNormalizesFenceTagVariants(t *testing.T) {
	want := "SELECT 1;"
	variants := []string{
		"```sql\nSELECT 1;\n```",
		"``` sql\nSELECT 1;\n```",
		"``` SQL\nSELECT 1;\n```",
		"```SQL\nSELECT 1;\n```",
		"``` Sql\nSELECT 1;\n```",
	}
	for _, raw := range variants {
		if got := Extract(raw); got != want {
			t.Fatalf("Extract(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestExtractFallbackStripsFencesAndBackticks(t *testing.T) {
	raw := "```\nSELECT `title` FROM film;\n```"
	if got := Extract(raw); got != "SELECT title FROM film;" {
		t.Fatalf("Extract() = %q", got)
	}
}

func TestExtractFallbackRemovesBareSQLLine(t *testing.T) {
	raw := "sql\nSELECT 1;"
	if got := Extract(raw); got != "SELECT 1;" {
		t.Fatalf("Extract() = %q", got)
	}
}

func TestExtractRemovesInlineSQLPrefix(t *testing.T) {
	raw := "SQL SELECT 1;"
	if got := Extract(raw); got != "SELECT 1;" {
		t.Fatalf("Extract() = %q", got)
	}
}

func TestExtractIdempotentOnCleanSQL(t *testing.T) {
	clean := "SELECT first_name, last_name FROM customer ORDER BY last_name;"
	once := Extract(clean)
	if once != clean {
		t.Fatalf("Extract() = %q, want unchanged", once)
	}
	if twice := Extract(once); twice != once {
		t.Fatalf("Extract(Extract()) = %q, want %q", twice, once)
	}
}

func TestExtractTrimsWhitespace(t *testing.T) {
	if got := Extract("   SELECT 1;   "); got != "SELECT 1;" {
		t.Fatalf("Extract() = %q", got)
	}
}

func TestExtractEmptyInput(t *testing.T) {
	if got := Extract(""); got != "" {
		t.Fatalf("Extract(\"\") = %q, want empty", got)
	}
}

func TestExtractMultilineFencedBlock(t *testing.T) {
	raw := "```sql\nWITH totals AS (\n  SELECT store_id, COUNT(*) AS n FROM rental GROUP BY store_id\n)\nSELECT * FROM totals;\n```"
	want := "WITH totals AS (\n  SELECT store_id, COUNT(*) AS n FROM rental GROUP BY store_id\n)\nSELECT * FROM totals;"
	if got := Extract(raw); got != want {
		t.Fatalf("Extract() = %q, want %q", got, want)
	}
}
