package pgconn

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
	mock.ExpectExec("UPDATE accounts SET balance = \\$1").
		WithArgs(int64(500)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	conn := NewConnection(db)
	res, err := conn.Execute(context.Background(), "UPDATE accounts SET balance = $1", []value.Value{value.Int64(500)})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.RowsAffected != 2 {
		t.Fatalf("expected 2 rows affected, got %d", res.RowsAffected)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestQueryStreamsRowsUntilExhausted(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	rows := sqlmock.NewRows([]string{"id", "created_at"}).
		AddRow(int64(1), "2024-01-02 03:04:05")
	mock.ExpectQuery("SELECT id, created_at FROM events").WillReturnRows(rows)

	conn := NewConnection(db)
	stream, err := conn.Query(context.Background(), "SELECT id, created_at FROM events", nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	row, err := stream.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if row == nil {
		t.Fatal("expected a row")
	}
	row2, err := stream.Next(context.Background())
	if err != nil {
		t.Fatalf("Next (end): %v", err)
	}
	if row2 != nil {
		t.Fatal("expected stream exhaustion")
	}
	stream.Close()
}
