package mssqlconn

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/sqlbridge/sqlbridge/value"
)

func TestExecuteReturnsRowsAffected(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	mock.ExpectExec("UPDATE accounts SET balance = @p1").
		WithArgs(int64(500)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	conn := NewConnection(db)
	res, err := conn.Execute(context.Background(), "UPDATE accounts SET balance = @p1", []value.Value{value.Int64(500)})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.RowsAffected != 3 {
		t.Fatalf("expected 3 rows affected, got %d", res.RowsAffected)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBeginCommitRunsInsideTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO t").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	conn := NewConnection(db)
	if err := conn.Begin(context.Background()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := conn.Execute(context.Background(), "INSERT INTO t", nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if err := conn.Commit(context.Background()); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
