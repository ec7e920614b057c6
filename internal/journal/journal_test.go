package journal

import (
	"context"
	"testing"
	"time"
	"vikcal/internal/syncer"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndListRuns(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	older := &syncer.Report{
		RunID:      "run-1",
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Second),
		Tasks:      3,
		Created:    1,
		Failed:     1,
		Operations: []syncer.Operation{
			{Kind: "create", TaskID: "42", CalendarID: "cal-1", EventID: "ev-1"},
			{Kind: "delete", TaskID: "41", CalendarID: "cal-1", EventID: "ev-0", Err: "backend error"},
		},
	}
	newer := &syncer.Report{
		RunID:          "run-2",
		StartedAt:      start.Add(time.Minute),
		FinishedAt:     start.Add(time.Minute + time.Second),
		CleanupSkipped: true,
	}

	for _, r := range []*syncer.Report{older, newer} {
		if err := s.RecordRun(ctx, r); err != nil {
			t.Fatalf("RecordRun(%s) failed: %v", r.RunID, err)
		}
	}

	runs, err := s.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if runs[0].RunID != "run-2" || runs[1].RunID != "run-1" {
		t.Errorf("Expected newest first, got %s, %s", runs[0].RunID, runs[1].RunID)
	}
	if !runs[0].CleanupSkipped || len(runs[0].Operations) != 0 {
		t.Errorf("Unexpected newer run: %+v", runs[0])
	}

	got := runs[1]
	if !got.StartedAt.Equal(older.StartedAt) || !got.FinishedAt.Equal(older.FinishedAt) {
		t.Errorf("Expected timestamps to round-trip, got %v..%v", got.StartedAt, got.FinishedAt)
	}
	if got.Tasks != 3 || got.Created != 1 || got.Failed != 1 {
		t.Errorf("Unexpected counts: %+v", got)
	}
	if len(got.Operations) != 2 {
		t.Fatalf("Expected 2 operations, got %d", len(got.Operations))
	}
	if got.Operations[0].EventID != "ev-1" || got.Operations[1].Err != "backend error" {
		t.Errorf("Unexpected operations: %+v", got.Operations)
	}
}

func TestRecentRunsLimit(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		at := start.Add(time.Duration(i) * time.Minute)
		if err := s.RecordRun(ctx, &syncer.Report{RunID: id, StartedAt: at, FinishedAt: at}); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}
	}

	runs, err := s.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != "c" || runs[1].RunID != "b" {
		t.Errorf("Expected runs c, b; got %+v", runs)
	}
}

func TestRecordRunRejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	r := &syncer.Report{RunID: "same", StartedAt: time.Now(), FinishedAt: time.Now()}
	if err := s.RecordRun(ctx, r); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}
	if err := s.RecordRun(ctx, r); err == nil {
		t.Error("Expected an error for a duplicate run id")
	}
}
