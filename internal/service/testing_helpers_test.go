package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jogcadence/internal/calendar"
	"github.com/jogcadence/internal/config"
	"github.com/jogcadence/internal/db"
	"github.com/jogcadence/internal/schedule"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:service-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := gdb.AutoMigrate(db.Models()...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

type fakeEvent struct {
	title string
	start time.Time
	end   time.Time
}

// fakeCalendar 是内存日历，可按调用次数注入失败
type fakeCalendar struct {
	mu        sync.Mutex
	denied    bool
	events    map[string]fakeEvent
	busy      []schedule.Interval
	nextID    int
	creates   int
	failOnNth int
	createErr error
	updateErr error
}

func newFakeCalendar() *fakeCalendar {
	return &fakeCalendar{events: make(map[string]fakeEvent)}
}

func (c *fakeCalendar) CheckAccess(context.Context) error {
	if c.denied {
		return calendar.ErrAccessDenied
	}
	return nil
}

func (c *fakeCalendar) QueryFreeBusy(_ context.Context, dayStart, dayEnd time.Time) ([]schedule.Interval, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	day := schedule.Interval{Start: dayStart, End: dayEnd}
	var result []schedule.Interval
	for _, item := range c.busy {
		if item.Overlaps(day) {
			result = append(result, item)
		}
	}
	for _, event := range c.events {
		item := schedule.Interval{Start: event.start, End: event.end}
		if item.Overlaps(day) {
			result = append(result, item)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Start.Before(result[j].Start) })
	return result, nil
}

func (c *fakeCalendar) CreateEvent(_ context.Context, title string, start, end time.Time) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.creates++
	if c.failOnNth > 0 && c.creates == c.failOnNth {
		if c.createErr != nil {
			return "", c.createErr
		}
		return "", errors.New("calendar unavailable")
	}

	c.nextID++
	ref := fmt.Sprintf("evt-%d", c.nextID)
	c.events[ref] = fakeEvent{title: title, start: start, end: end}
	return ref, nil
}

func (c *fakeCalendar) UpdateEvent(_ context.Context, ref string, start, end time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.updateErr != nil {
		return c.updateErr
	}
	event, ok := c.events[ref]
	if !ok {
		return calendar.ErrEventNotFound
	}
	event.start, event.end = start, end
	c.events[ref] = event
	return nil
}

func (c *fakeCalendar) DeleteEvent(_ context.Context, ref string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.events[ref]; !ok {
		return calendar.ErrEventNotFound
	}
	delete(c.events, ref)
	return nil
}

func (c *fakeCalendar) eventCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func (c *fakeCalendar) removeEvent(ref string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.events, ref)
}

// failingSessions 在第 n 次 Save 时返回持久化错误
type failingSessions struct {
	*SessionService
	saves     int
	failOnNth int
}

func (f *failingSessions) Save(ctx context.Context, session *db.Session) error {
	f.saves++
	if f.failOnNth > 0 && f.saves == f.failOnNth {
		return fmt.Errorf("%w: disk full", ErrPersistence)
	}
	return f.SessionService.Save(ctx, session)
}

type recordingPublisher struct {
	mu        sync.Mutex
	snapshots []db.Session
}

func (p *recordingPublisher) Publish(session db.Session, _ db.Goal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots = append(p.snapshots, session)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.snapshots)
}

type schedulerFixture struct {
	db          *gorm.DB
	calendar    *fakeCalendar
	goals       *GoalService
	sessions    *SessionService
	preferences *PreferenceService
	publisher   *recordingPublisher
	scheduler   *Scheduler
	now         time.Time
}

// 2026-03-02 是周一
var fixtureNow = time.Date(2026, 3, 2, 7, 30, 0, 0, time.UTC)

func newSchedulerFixture(t *testing.T, policy config.SchedulePolicy, sessions SessionRepository) *schedulerFixture {
	t.Helper()

	gdb := setupServiceTestDB(t)
	fx := &schedulerFixture{
		db:          gdb,
		calendar:    newFakeCalendar(),
		goals:       NewGoalService(gdb),
		sessions:    NewSessionService(gdb),
		preferences: NewPreferenceService(gdb),
		publisher:   &recordingPublisher{},
		now:         fixtureNow,
	}
	if sessions == nil {
		sessions = fx.sessions
	}

	fx.scheduler = NewScheduler(SchedulerDeps{
		Calendar:    fx.calendar,
		Goals:       fx.goals,
		Sessions:    sessions,
		Preferences: fx.preferences,
		Publisher:   fx.publisher,
		Policy:      policy,
		Location:    time.UTC,
	})
	fx.scheduler.SetClock(func() time.Time { return fx.now })
	return fx
}

func (fx *schedulerFixture) createGoal(t *testing.T, target, progress int) *db.Goal {
	t.Helper()

	goal, err := fx.goals.Create(context.Background(), GoalInput{
		TargetFrequency: target,
		StartDate:       fx.now.Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("failed to create goal: %v", err)
	}
	if progress > 0 {
		goal.Progress = progress
		if err := fx.goals.Save(context.Background(), goal); err != nil {
			t.Fatalf("failed to set progress: %v", err)
		}
	}
	return goal
}

func (fx *schedulerFixture) sessionCount(t *testing.T, goalID uuid.UUID) int {
	t.Helper()

	sessions, err := fx.sessions.List(context.Background(), SessionFilter{GoalID: goalID})
	if err != nil {
		t.Fatalf("failed to list sessions: %v", err)
	}
	return len(sessions)
}
