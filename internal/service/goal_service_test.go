package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jogcadence/internal/db"
	"github.com/jogcadence/internal/schedule"
)

func TestGoalServiceCreateAndCurrent(t *testing.T) {
	svc := NewGoalService(setupServiceTestDB(t))
	ctx := context.Background()
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	if _, err := svc.Current(ctx); !errors.Is(err, ErrGoalNotFound) {
		t.Fatalf("expected ErrGoalNotFound on empty store, got %v", err)
	}

	first, err := svc.Create(ctx, GoalInput{TargetFrequency: 3, StartDate: start})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if first.ID == uuid.Nil {
		t.Fatal("expected goal to have ID")
	}
	if !first.EndDate.Equal(start.AddDate(0, 0, 7)) {
		t.Fatalf("expected default 7 day period, got %s", first.EndDate)
	}

	second, err := svc.Create(ctx, GoalInput{TargetFrequency: 4, StartDate: start.AddDate(0, 0, 7), Days: 14})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	current, err := svc.Current(ctx)
	if err != nil {
		t.Fatalf("Current returned error: %v", err)
	}
	if current.ID != second.ID {
		t.Fatalf("expected latest goal to be current")
	}

	goals, err := svc.List(ctx, true)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(goals) != 2 || goals[0].ID != second.ID {
		t.Fatalf("unexpected goal list %+v", goals)
	}

	if _, err := svc.Create(ctx, GoalInput{TargetFrequency: 0, StartDate: start}); !errors.Is(err, schedule.ErrInvalidGoal) {
		t.Fatalf("expected ErrInvalidGoal, got %v", err)
	}
}

func TestGoalServiceSupersede(t *testing.T) {
	svc := NewGoalService(setupServiceTestDB(t))
	ctx := context.Background()
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	old, err := svc.Create(ctx, GoalInput{TargetFrequency: 3, StartDate: start})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	replacement := &db.Goal{TargetFrequency: 5, StartDate: start, EndDate: old.EndDate, Status: db.GoalStatusInProgress}
	at := start.Add(time.Hour)
	if err := svc.Supersede(ctx, old, replacement, at); err != nil {
		t.Fatalf("Supersede returned error: %v", err)
	}

	stored, err := svc.Get(ctx, old.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !stored.IsSuperseded() || *stored.SupersededByID != replacement.ID {
		t.Fatalf("old goal not superseded: %+v", stored)
	}

	active, _ := svc.List(ctx, false)
	if len(active) != 1 || active[0].ID != replacement.ID {
		t.Fatalf("expected only the replacement to be active, got %+v", active)
	}

	again := &db.Goal{TargetFrequency: 2, StartDate: start, EndDate: old.EndDate, Status: db.GoalStatusInProgress}
	if err := svc.Supersede(ctx, stored, again, at); !errors.Is(err, ErrGoalClosed) {
		t.Fatalf("expected ErrGoalClosed superseding twice, got %v", err)
	}
	if _, err := svc.Get(ctx, again.ID); !errors.Is(err, ErrGoalNotFound) {
		t.Fatalf("expected failed replacement to be rolled back, got %v", err)
	}
}

func TestSessionServiceListFilters(t *testing.T) {
	svc := NewSessionService(setupServiceTestDB(t))
	ctx := context.Background()

	goalID := uuid.New()
	batchA, batchB := uuid.New(), uuid.New()
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	records := []db.Session{
		{GoalID: goalID, BatchID: batchB, StartTime: start.AddDate(0, 0, 1), EndTime: start.AddDate(0, 0, 1).Add(30 * time.Minute), Kind: db.SessionKindJog, Status: db.SessionStatusIncomplete, EventRef: "b"},
		{GoalID: goalID, BatchID: batchA, StartTime: start, EndTime: start.Add(30 * time.Minute), Kind: db.SessionKindJog, Status: db.SessionStatusCompleted, EventRef: "a"},
		{GoalID: uuid.New(), BatchID: uuid.New(), StartTime: start, EndTime: start.Add(time.Hour), Kind: db.SessionKindJog, Status: db.SessionStatusIncomplete, EventRef: "c"},
	}
	for i := range records {
		if err := svc.Save(ctx, &records[i]); err != nil {
			t.Fatalf("Save returned error: %v", err)
		}
	}

	all, err := svc.List(ctx, SessionFilter{GoalID: goalID})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(all) != 2 || all[0].BatchID != batchA {
		t.Fatalf("expected 2 sessions ordered by start, got %+v", all)
	}

	completed, _ := svc.List(ctx, SessionFilter{GoalID: goalID, Status: db.SessionStatusCompleted})
	if len(completed) != 1 || completed[0].EventRef != "a" {
		t.Fatalf("unexpected status filter result %+v", completed)
	}

	inRange, _ := svc.List(ctx, SessionFilter{From: start.Add(time.Hour), To: start.AddDate(0, 0, 2)})
	if len(inRange) != 1 || inRange[0].EventRef != "b" {
		t.Fatalf("unexpected range filter result %+v", inRange)
	}

	byBatch, _ := svc.List(ctx, SessionFilter{BatchID: batchB})
	if len(byBatch) != 1 {
		t.Fatalf("unexpected batch filter result %+v", byBatch)
	}

	updated, err := svc.UpdateNote(ctx, records[1].ID, "  **tempo** run  ")
	if err != nil {
		t.Fatalf("UpdateNote returned error: %v", err)
	}
	if updated.Note != "**tempo** run" {
		t.Fatalf("unexpected note %q", updated.Note)
	}

	if err := svc.Delete(ctx, records[1].ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := svc.Get(ctx, records[1].ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	bad := db.Session{GoalID: goalID, BatchID: batchA, StartTime: start, EndTime: start}
	if err := svc.Save(ctx, &bad); err == nil {
		t.Fatal("expected error for empty interval")
	}
}
