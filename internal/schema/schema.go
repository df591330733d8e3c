// Package schema introspects the target database and renders the table and
// foreign-key context injected into generation prompts.
package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"
)

type Table struct {
	Name    string
	Columns []string
}

type ForeignKey struct {
	SourceTable  string
	SourceColumn string
	TargetTable  string
	TargetColumn string
}

// Catalog caches the introspected schema. Loaded once at startup and safe to
// refresh while the agent is idle between questions.
type Catalog struct {
	mu          sync.RWMutex
	tables      []Table
	foreignKeys []ForeignKey
	lastRefresh time.Time
}

func NewCatalog() *Catalog {
	return &Catalog{}
}

func (c *Catalog) Load(ctx context.Context, db *sql.DB) error {
	tables, err := loadTables(ctx, db)
	if err != nil {
		return fmt.Errorf("load tables: %w", err)
	}
	foreignKeys, err := loadForeignKeys(ctx, db)
	if err != nil {
		return fmt.Errorf("load foreign keys: %w", err)
	}

	c.mu.Lock()
	c.tables = tables
	c.foreignKeys = foreignKeys
	c.lastRefresh = time.Now()
	c.mu.Unlock()
	return nil
}

func (c *Catalog) TableCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tables)
}

func (c *Catalog) LastRefresh() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastRefresh
}

// SchemaText renders every table and its columns in declaration order.
func (c *Catalog) SchemaText() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	parts := make([]string, 0, len(c.tables))
	for _, table := range c.tables {
		parts = append(parts, fmt.Sprintf("TABLE: %s\nCOLUMNS: %s\n", table.Name, strings.Join(table.Columns, ", ")))
	}
	return strings.Join(parts, "\n")
}

// RelationshipText renders one foreign-key edge per line, sorted by source
// table then source column.
func (c *Catalog) RelationshipText() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var sb strings.Builder
	sb.WriteString("Relationships / Foreign Keys:\n")
	for _, fk := range c.foreignKeys {
		sb.WriteString(fmt.Sprintf("- %s.%s -> %s.%s\n", fk.SourceTable, fk.SourceColumn, fk.TargetTable, fk.TargetColumn))
	}
	return sb.String()
}

func loadTables(ctx context.Context, db *sql.DB) ([]Table, error) {
	rows, err := db.QueryContext(ctx, `
SELECT table_name, column_name
FROM information_schema.columns
WHERE table_schema = 'public'
ORDER BY table_name, ordinal_position`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tables []Table
	for rows.Next() {
		var tableName, columnName string
		if err := rows.Scan(&tableName, &columnName); err != nil {
			return nil, err
		}
		if len(tables) == 0 || tables[len(tables)-1].Name != tableName {
			tables = append(tables, Table{Name: tableName})
		}
		last := &tables[len(tables)-1]
		last.Columns = append(last.Columns, columnName)
	}
	return tables, rows.Err()
}

func loadForeignKeys(ctx context.Context, db *sql.DB) ([]ForeignKey, error) {
	rows, err := db.QueryContext(ctx, `
SELECT
    tc.table_name AS source_table,
    kcu.column_name AS source_column,
    ccu.table_name AS target_table,
    ccu.column_name AS target_column
FROM information_schema.table_constraints AS tc
JOIN information_schema.key_column_usage AS kcu
    ON tc.constraint_name = kcu.constraint_name
    AND tc.table_schema = kcu.table_schema
JOIN information_schema.constraint_column_usage AS ccu
    ON ccu.constraint_name = tc.constraint_name
    AND ccu.table_schema = tc.table_schema
WHERE tc.constraint_type = 'FOREIGN KEY'
ORDER BY tc.table_name, kcu.column_name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var foreignKeys []ForeignKey
	for rows.Next() {
		var fk ForeignKey
		if err := rows.Scan(&fk.SourceTable, &fk.SourceColumn, &fk.TargetTable, &fk.TargetColumn); err != nil {
			return nil, err
		}
		foreignKeys = append(foreignKeys, fk)
	}
	return foreignKeys, rows.Err()
}
