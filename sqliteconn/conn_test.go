package sqliteconn

import (
	"context"
	"testing"

	"github.com/sqlbridge/sqlbridge/value"
)

func TestExecuteAndQueryRoundTrip(t *testing.T) {
	conn, err := connectForTest(":memory:", 10, 4)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	if _, err := conn.Execute(ctx, "CREATE TABLE t (id INTEGER, name TEXT)", nil); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := conn.Execute(ctx, "INSERT INTO t (id, name) VALUES (1, 'a')", nil); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := conn.Execute(ctx, "INSERT INTO t (id, name) VALUES (2, 'b')", nil); err != nil {
		t.Fatalf("insert 2: %v", err)
	}

	stream, err := conn.Query(ctx, "SELECT id, name FROM t ORDER BY id", nil)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer stream.Close()

	var got []string
	for {
		row, err := stream.Next(ctx)
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if row == nil {
			break
		}
		name, err := row.Get(1).AsString()
		if err != nil {
			t.Fatalf("cell: %v", err)
		}
		got = append(got, name)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected rows: %v", got)
	}
}

func TestPersistentExecuteAndScratchPrepare(t *testing.T) {
	conn, err := connectForTest(":memory:", 2, 4)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer conn.Close()
	ctx := context.Background()
	if _, err := conn.Execute(ctx, "CREATE TABLE t (n INTEGER)", nil); err != nil {
		t.Fatalf("create table: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := conn.Execute(ctx, "INSERT INTO t (n) VALUES (?)", []value.Value{value.Int64(int64(i))}); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	if err := conn.Prepare(ctx, "SELECT 1", false); err != nil {
		t.Fatalf("prepare scratch: %v", err)
	}
	if err := conn.Prepare(ctx, "SELECT 2", false); err != nil {
		t.Fatalf("prepare scratch 2: %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	conn, err := connectForTest(":memory:", 10, 4)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("second close should be a no-op: %v", err)
	}
}

func TestUnlockDBSuspendsWorker(t *testing.T) {
	conn, err := connectForTest(":memory:", 10, 4)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer conn.Close()
	ctx := context.Background()
	guard, err := conn.UnlockDB(ctx)
	if err != nil {
		t.Fatalf("unlockdb: %v", err)
	}
	if guard.Raw() == nil {
		t.Fatal("expected a non-nil raw handle")
	}
	guard.Release()

	if _, err := conn.Execute(ctx, "SELECT 1", nil); err != nil {
		t.Fatalf("execute after release: %v", err)
	}
}
