package query

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func assertSQLMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}

func TestExecuteReturnsRowsAndCommits(t *testing.T) {
	db, mock := newSQLMock(t)
	executor := NewExecutor(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT customer_id, first_name FROM customer")).
		WillReturnRows(sqlmock.NewRows([]string{"customer_id", "first_name"}).
			AddRow(int64(1), "Mary").
			AddRow(int64(2), "Patricia"))
	mock.ExpectCommit()

	result, err := executor.Execute(context.Background(), "SELECT customer_id, first_name FROM customer")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(result.Columns) != 2 || result.Columns[0] != "customer_id" {
		t.Fatalf("Columns = %v", result.Columns)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(result.Rows))
	}
	if result.Rows[0][1] != "Mary" {
		t.Fatalf("Rows[0][1] = %v", result.Rows[0][1])
	}
	assertSQLMock(t, mock)
}

func TestExecuteEmptyResultSetIsNotAnError(t *testing.T) {
	db, mock := newSQLMock(t)
	executor := NewExecutor(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT title FROM film WHERE release_year > 3000")).
		WillReturnRows(sqlmock.NewRows([]string{"title"}))
	mock.ExpectCommit()

	result, err := executor.Execute(context.Background(), "SELECT title FROM film WHERE release_year > 3000")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(result.Rows) != 0 {
		t.Fatalf("rows = %d, want 0", len(result.Rows))
	}
	assertSQLMock(t, mock)
}

func TestExecuteFailureRollsBack(t *testing.T) {
	db, mock := newSQLMock(t)
	executor := NewExecutor(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT nope FROM customer")).
		WillReturnError(fmt.Errorf(`pq: column "nope" does not exist`))
	mock.ExpectRollback()

	_, err := executor.Execute(context.Background(), "SELECT nope FROM customer")
	if err == nil {
		t.Fatal("expected execution error")
	}
	assertSQLMock(t, mock)
}

func TestExecuteSessionReusableAfterFailure(t *testing.T) {
	db, mock := newSQLMock(t)
	executor := NewExecutor(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT nope FROM customer")).
		WillReturnError(fmt.Errorf(`pq: column "nope" does not exist`))
	mock.ExpectRollback()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT customer_id FROM customer")).
		WillReturnRows(sqlmock.NewRows([]string{"customer_id"}).AddRow(int64(7)))
	mock.ExpectCommit()

	if _, err := executor.Execute(context.Background(), "SELECT nope FROM customer"); err == nil {
		t.Fatal("expected first execution to fail")
	}
	result, err := executor.Execute(context.Background(), "SELECT customer_id FROM customer")
	if err != nil {
		t.Fatalf("second Execute() error = %v", err)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(result.Rows))
	}
	assertSQLMock(t, mock)
}

func TestExecuteNormalizesByteValues(t *testing.T) {
	db, mock := newSQLMock(t)
	executor := NewExecutor(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT title FROM film")).
		WillReturnRows(sqlmock.NewRows([]string{"title"}).AddRow([]byte("ACADEMY DINOSAUR")))
	mock.ExpectCommit()

	result, err := executor.Execute(context.Background(), "SELECT title FROM film")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Rows[0][0] != "ACADEMY DINOSAUR" {
		t.Fatalf("Rows[0][0] = %v (%T)", result.Rows[0][0], result.Rows[0][0])
	}
	assertSQLMock(t, mock)
}

func TestExecuteRejectsEmptyStatement(t *testing.T) {
	db, _ := newSQLMock(t)
	executor := NewExecutor(db)
	if _, err := executor.Execute(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty statement")
	}
}
