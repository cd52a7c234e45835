package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "transcript.db"))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestAppendAndRecentRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	records := []Record{
		{Sender: "EDDF", Direction: DirectionIn, Body: "LOGON ACCEPTED", At: base},
		{Sender: "DLH123", Direction: DirectionOut, Body: "REQUEST CLIMB TO FL350", At: base.Add(time.Minute)},
		{Sender: "EDDF", Direction: DirectionIn, Body: "CLIMB TO FL350", At: base.Add(2 * time.Minute)},
	}
	for _, rec := range records {
		if err := db.Append(ctx, rec); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	got, err := db.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	// Oldest first.
	if got[0].Body != "LOGON ACCEPTED" || got[2].Body != "CLIMB TO FL350" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[1].Direction != DirectionOut {
		t.Fatalf("direction lost in round trip")
	}
}

func TestRecentHonorsLimit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 5; i++ {
		rec := Record{Sender: "EDDF", Direction: DirectionIn, Body: "MSG", At: base.Add(time.Duration(i) * time.Second)}
		if err := db.Append(ctx, rec); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	got, err := db.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(got))
	}
}

func TestAppendStampsZeroTime(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Append(ctx, Record{Sender: "EDDF", Direction: DirectionIn, Body: "MSG"}); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	got, err := db.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(got) != 1 || got[0].At.IsZero() {
		t.Fatalf("expected stamped timestamp, got %+v", got)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.db")
	ctx := context.Background()

	db, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("first open failed: %v", err)
	}
	if err := db.Append(ctx, Record{Sender: "EDDF", Direction: DirectionIn, Body: "MSG"}); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	db.Close()

	db, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer db.Close()

	got, err := db.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected record to survive reopen, got %d", len(got))
	}
}
