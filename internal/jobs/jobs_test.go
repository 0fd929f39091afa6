package jobs

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testTracker(t *testing.T, tr Tracker) {
	t.Helper()
	ctx := context.Background()
	id := NewID()

	if _, err := tr.Status(ctx, id); !errors.Is(err, ErrUnknownJob) {
		t.Fatalf("unknown job: err = %v, want ErrUnknownJob", err)
	}

	if err := tr.SetStatus(ctx, id, StatusProcessing); err != nil {
		t.Fatal(err)
	}
	got, err := tr.Status(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Job{ID: id, Status: StatusProcessing}, got); diff != "" {
		t.Errorf("processing (-want +got):\n%s", diff)
	}

	if err := tr.SaveResult(ctx, id, "exports/"+id+".pdf"); err != nil {
		t.Fatal(err)
	}
	got, err = tr.Status(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	want := Job{ID: id, Status: StatusCompleted, Result: "exports/" + id + ".pdf"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("completed (-want +got):\n%s", diff)
	}
}

func TestMemoryTracker(t *testing.T) {
	testTracker(t, NewMemoryTracker())
}

func TestRedisTracker(t *testing.T) {
	addr := os.Getenv("REDIS_HOST")
	if addr == "" {
		t.Skip("REDIS_HOST not set")
	}
	client, err := Dial(context.Background(), addr, os.Getenv("REDIS_PASSWORD"))
	if err != nil {
		t.Skip(err)
	}
	defer client.Close()
	testTracker(t, NewRedisTracker(client))
}

func TestNewID(t *testing.T) {
	if NewID() == NewID() {
		t.Error("ids are not unique")
	}
}
