// Package query executes candidate SQL transactionally against the target
// database.
package query

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type Result struct {
	Columns []string
	Rows    [][]any
}

// Executor runs one statement at a time over a shared database handle. A
// failed statement is rolled back before the error is returned, so the next
// attempt always starts from a clean session.
type Executor struct {
	DB *sql.DB
}

func NewExecutor(db *sql.DB) *Executor {
	return &Executor{DB: db}
}

func (e *Executor) Execute(ctx context.Context, statement string) (Result, error) {
	if strings.TrimSpace(statement) == "" {
		return Result{}, fmt.Errorf("sql is required")
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, fmt.Errorf("begin transaction: %w", err)
	}

	rows, err := tx.QueryContext(ctx, statement)
	if err != nil {
		_ = tx.Rollback()
		return Result{}, fmt.Errorf("execute statement: %w", err)
	}

	result, err := collectRows(rows)
	if err != nil {
		_ = tx.Rollback()
		return Result{}, fmt.Errorf("read result set: %w", err)
	}

	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		return Result{}, fmt.Errorf("commit transaction: %w", err)
	}
	return result, nil
}

func collectRows(rows *sql.Rows) (Result, error) {
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return Result{}, err
	}

	// A statement with no result set surfaces as zero columns and zero rows,
	// which callers treat as an empty row sequence.
	resultRows := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return Result{}, err
		}
		resultRows = append(resultRows, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return Result{}, err
	}

	return Result{Columns: columns, Rows: resultRows}, nil
}

func normalizeValues(values []any) []any {
	for i, value := range values {
		if raw, ok := value.([]byte); ok {
			values[i] = string(raw)
		}
	}
	return values
}
