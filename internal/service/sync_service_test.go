package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jogcadence/internal/companion"
	"github.com/jogcadence/internal/config"
	"github.com/jogcadence/internal/db"
)

func newSyncFixture(t *testing.T) (*schedulerFixture, *SyncService) {
	t.Helper()
	fx := newSchedulerFixture(t, config.DefaultSchedulePolicy(), nil)
	svc := NewSyncService(fx.goals, fx.sessions, fx.scheduler)
	svc.now = func() time.Time { return fx.now }
	return fx, svc
}

func TestSyncServiceCurrentSnapshot(t *testing.T) {
	fx, svc := newSyncFixture(t)
	ctx := context.Background()
	goal := fx.createGoal(t, 3, 1)

	if _, err := svc.Current(ctx); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound without sessions, got %v", err)
	}

	batch, err := fx.scheduler.ScheduleNext(ctx, goal.ID)
	if err != nil {
		t.Fatalf("ScheduleNext returned error: %v", err)
	}

	snapshot, err := svc.Current(ctx)
	if err != nil {
		t.Fatalf("Current returned error: %v", err)
	}
	if snapshot.SessionToken != companion.EncodeToken(batch.Sessions[0].ID) {
		t.Fatal("expected the first incomplete session in the snapshot")
	}
	if snapshot.GoalProgress != 1 || snapshot.GoalTarget != 3 || snapshot.Version != companion.SnapshotVersion {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}
}

func TestSyncServiceApplyCompletion(t *testing.T) {
	fx, svc := newSyncFixture(t)
	ctx := context.Background()
	goal := fx.createGoal(t, 3, 2)

	batch, err := fx.scheduler.ScheduleNext(ctx, goal.ID)
	if err != nil {
		t.Fatalf("ScheduleNext returned error: %v", err)
	}

	jog := jogSession(t, batch, db.SessionKindJog)
	jog.Status = db.SessionStatusCompleted
	refreshed, _ := fx.goals.Get(ctx, goal.ID)
	payload, _ := json.Marshal(companion.FromModels(jog, *refreshed, fx.now))

	result, err := svc.Apply(ctx, payload)
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if result.Dropped || !result.Applied {
		t.Fatalf("expected applied result, got %+v", result)
	}
	if result.Completion == nil || !result.Completion.GoalCompleted {
		t.Fatalf("expected goal completion, got %+v", result.Completion)
	}

	again, err := svc.Apply(ctx, payload)
	if err != nil {
		t.Fatalf("second Apply returned error: %v", err)
	}
	if again.Applied {
		t.Fatal("expected duplicate completion to be a no-op")
	}
}

func TestSyncServiceApplyMissed(t *testing.T) {
	fx, svc := newSyncFixture(t)
	ctx := context.Background()
	goal := fx.createGoal(t, 3, 0)

	batch, err := fx.scheduler.ScheduleNext(ctx, goal.ID)
	if err != nil {
		t.Fatalf("ScheduleNext returned error: %v", err)
	}

	pre := batch.Sessions[0]
	pre.Status = db.SessionStatusMissed
	payload, _ := json.Marshal(companion.FromModels(pre, *goal, fx.now))

	result, err := svc.Apply(ctx, payload)
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if !result.Applied || result.Session.Status != db.SessionStatusMissed {
		t.Fatalf("expected missed session, got %+v", result)
	}
}

func TestSyncServiceDropsUndecodableMessages(t *testing.T) {
	_, svc := newSyncFixture(t)

	for _, payload := range []string{"", "{", `{"v":1,"session":"garbage","session_status":"completed"}`, `{"v":7}`} {
		result, err := svc.Apply(context.Background(), []byte(payload))
		if err != nil {
			t.Fatalf("expected no error for %q, got %v", payload, err)
		}
		if !result.Dropped || result.Applied {
			t.Fatalf("expected %q to be dropped, got %+v", payload, result)
		}
	}
}
