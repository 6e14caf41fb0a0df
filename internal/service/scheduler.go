package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jogcadence/internal/calendar"
	"github.com/jogcadence/internal/config"
	"github.com/jogcadence/internal/db"
	"github.com/jogcadence/internal/locale"
	"github.com/jogcadence/internal/schedule"
)

// Calendar 是调度器依赖的日历能力
type Calendar interface {
	CheckAccess(ctx context.Context) error
	QueryFreeBusy(ctx context.Context, dayStart, dayEnd time.Time) ([]schedule.Interval, error)
	CreateEvent(ctx context.Context, title string, start, end time.Time) (string, error)
	UpdateEvent(ctx context.Context, ref string, start, end time.Time) error
	DeleteEvent(ctx context.Context, ref string) error
}

// GoalRepository 是目标的持久化能力
type GoalRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*db.Goal, error)
	Current(ctx context.Context) (*db.Goal, error)
	Save(ctx context.Context, goal *db.Goal) error
	Supersede(ctx context.Context, old *db.Goal, replacement *db.Goal, at time.Time) error
}

// SessionRepository 是分段的持久化能力
type SessionRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*db.Session, error)
	Save(ctx context.Context, session *db.Session) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter SessionFilter) ([]db.Session, error)
}

// PreferenceRepository 提供当前生效的偏好
type PreferenceRepository interface {
	Latest(ctx context.Context) (*db.Preference, error)
}

// SnapshotPublisher 把最新的分段与目标状态推送给手表端，实现方不得阻塞调用方
type SnapshotPublisher interface {
	Publish(session db.Session, goal db.Goal)
}

// SchedulerDeps 汇总 Scheduler 的依赖
type SchedulerDeps struct {
	Calendar    Calendar
	Goals       GoalRepository
	Sessions    SessionRepository
	Preferences PreferenceRepository
	Publisher   SnapshotPublisher
	Policy      config.SchedulePolicy
	Location    *time.Location
}

// Scheduler 编排日历与持久化：查找空闲、拆分分段、记录完成、改期与重建
// 同一目标上的操作串行执行
type Scheduler struct {
	calendar    Calendar
	goals       GoalRepository
	sessions    SessionRepository
	preferences PreferenceRepository
	publisher   SnapshotPublisher
	policy      config.SchedulePolicy
	location    *time.Location
	now         func() time.Time
	locks       *goalLocks
}

// ScheduleResult 是一次调度产生的分段
type ScheduleResult struct {
	GoalID   uuid.UUID
	BatchID  uuid.UUID
	Window   schedule.TimeWindow
	Sessions []db.Session
}

// CompletionResult 描述完成一个分段后的目标状态
type CompletionResult struct {
	Session db.Session
	Goal    db.Goal
	// Counted 表示本次完成是否计入目标进度
	Counted bool
	// GoalCompleted 仅在本次完成使目标达成时为 true
	GoalCompleted bool
	// AlreadyCompleted 表示分段此前已完成，本次调用没有任何变化
	AlreadyCompleted bool
	Next             *ScheduleResult
	NextError        string
}

// GoalEdit 定义修改目标时的参数，零值表示沿用原值
type GoalEdit struct {
	TargetFrequency int
	PeriodDays      int
}

// GoalResult 是创建、修改或开启新周期后的结果
type GoalResult struct {
	Goal      db.Goal
	Schedule  *ScheduleResult
	NextError string
}

// NewScheduler 构造 Scheduler
func NewScheduler(deps SchedulerDeps) *Scheduler {
	location := deps.Location
	if location == nil {
		location = time.Local
	}
	return &Scheduler{
		calendar:    deps.Calendar,
		goals:       deps.Goals,
		sessions:    deps.Sessions,
		preferences: deps.Preferences,
		publisher:   deps.Publisher,
		policy:      deps.Policy,
		location:    location,
		now:         time.Now,
		locks:       newGoalLocks(),
	}
}

// SetClock 替换时钟，主要面向测试场景。
func (s *Scheduler) SetClock(now func() time.Time) {
	if now == nil {
		s.now = time.Now
		return
	}
	s.now = now
}

func (s *Scheduler) clock() time.Time {
	return s.now().In(s.location)
}

// ScheduleNext 为目标安排下一次外出
func (s *Scheduler) ScheduleNext(ctx context.Context, goalID uuid.UUID) (*ScheduleResult, error) {
	unlock := s.locks.lock(goalID)
	defer unlock()

	return s.scheduleNextLocked(ctx, goalID)
}

func (s *Scheduler) scheduleNextLocked(ctx context.Context, goalID uuid.UUID) (*ScheduleResult, error) {
	if err := s.calendar.CheckAccess(ctx); err != nil {
		return nil, err
	}

	goal, err := s.goals.Get(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if goal.IsCompleted() || goal.IsSuperseded() {
		return nil, ErrGoalClosed
	}

	pref, err := s.preferences.Latest(ctx)
	if err != nil {
		return nil, err
	}
	prefs, err := PreferencesFromModel(*pref)
	if err != nil {
		return nil, err
	}

	from := s.clock()
	if goal.StartDate.After(from) {
		from = goal.StartDate.In(s.location)
	}

	window, err := schedule.FindSlot(ctx, from, prefs.TotalDuration(), prefs, s.policy.Schedule(), s.calendar.QueryFreeBusy)
	if err != nil {
		return nil, err
	}

	specs, err := schedule.ComposeSessions(window, prefs)
	if err != nil {
		return nil, err
	}

	batchID := uuid.New()
	created := make([]db.Session, 0, len(specs))
	for _, spec := range specs {
		ref, err := s.calendar.CreateEvent(ctx, locale.LegTitle(pref.Language, string(spec.Kind)), spec.Start, spec.End)
		if err != nil {
			s.rollbackBatch(ctx, created)
			return nil, fmt.Errorf("create calendar event: %w", err)
		}

		session := db.Session{
			GoalID:    goal.ID,
			BatchID:   batchID,
			StartTime: spec.Start,
			EndTime:   spec.End,
			EventRef:  ref,
			Kind:      string(spec.Kind),
			Status:    db.SessionStatusIncomplete,
		}
		if err := s.sessions.Save(ctx, &session); err != nil {
			cleanupCtx := context.WithoutCancel(ctx)
			if delErr := s.calendar.DeleteEvent(cleanupCtx, ref); delErr != nil {
				log.Printf("[scheduler] rollback: delete event %s failed: %v", ref, delErr)
			}
			s.rollbackBatch(ctx, created)
			if errors.Is(err, ErrPersistence) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
		}
		created = append(created, session)
	}

	log.Printf("[scheduler] goal %s scheduled batch %s with %d sessions at %s", goal.ID, batchID, len(created), window.Start.Format(time.RFC3339))
	s.publish(created[len(created)-1], *goal)

	return &ScheduleResult{
		GoalID:   goal.ID,
		BatchID:  batchID,
		Window:   window,
		Sessions: created,
	}, nil
}

// rollbackBatch 逆序删除已创建分段的日历事件与记录，清理失败只记录日志
func (s *Scheduler) rollbackBatch(ctx context.Context, created []db.Session) {
	cleanupCtx := context.WithoutCancel(ctx)
	for i := len(created) - 1; i >= 0; i-- {
		session := created[i]
		if err := s.calendar.DeleteEvent(cleanupCtx, session.EventRef); err != nil {
			log.Printf("[scheduler] rollback: delete event %s failed: %v", session.EventRef, err)
		}
		if err := s.sessions.Delete(cleanupCtx, session.ID); err != nil {
			log.Printf("[scheduler] rollback: delete session %s failed: %v", session.ID, err)
		}
	}
}

// MarkComplete 标记分段完成并推进目标进度
// 热身与主跑计入进度，单独的拉伸不计入；同一批次最多计一次
func (s *Scheduler) MarkComplete(ctx context.Context, sessionID uuid.UUID) (*CompletionResult, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(session.GoalID)
	defer unlock()

	// 加锁后重新读取，避免并发修改
	session, err = s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	goal, err := s.goals.Get(ctx, session.GoalID)
	if err != nil {
		return nil, err
	}

	if session.Status == db.SessionStatusCompleted {
		return &CompletionResult{Session: *session, Goal: *goal, AlreadyCompleted: true}, nil
	}

	counted := false
	if schedule.Kind(session.Kind).CountsTowardGoal() && !goal.IsSuperseded() {
		alreadyCounted, err := s.batchCounted(ctx, *session)
		if err != nil {
			return nil, err
		}
		counted = !alreadyCounted
	}

	now := s.clock()
	previous := *session
	session.Status = db.SessionStatusCompleted
	session.CompletedAt = &now
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	result := &CompletionResult{Session: *session, Counted: counted}
	if counted {
		state, transitioned := schedule.RecordCompletion(goalState(*goal), now)
		applyGoalState(goal, state)
		if err := s.goals.Save(ctx, goal); err != nil {
			if restoreErr := s.sessions.Save(context.WithoutCancel(ctx), &previous); restoreErr != nil {
				log.Printf("[scheduler] restore session %s failed: %v", previous.ID, restoreErr)
			}
			return nil, err
		}
		result.GoalCompleted = transitioned
		if transitioned {
			log.Printf("[scheduler] goal %s completed (%d/%d)", goal.ID, goal.Progress, goal.TargetFrequency)
		}
	}
	result.Goal = *goal

	s.publish(*session, *goal)

	if counted && !goal.IsCompleted() && session.Kind == db.SessionKindJog && s.policy.AutoScheduleNext {
		next, err := s.scheduleNextLocked(ctx, goal.ID)
		if err != nil {
			log.Printf("[scheduler] auto schedule after %s failed: %v", session.ID, err)
			result.NextError = err.Error()
		} else {
			result.Next = next
		}
	}

	return result, nil
}

// batchCounted 判断同批次中是否已有计入进度的完成分段
func (s *Scheduler) batchCounted(ctx context.Context, session db.Session) (bool, error) {
	siblings, err := s.sessions.List(ctx, SessionFilter{
		GoalID:  session.GoalID,
		BatchID: session.BatchID,
		Status:  db.SessionStatusCompleted,
	})
	if err != nil {
		return false, err
	}
	for _, sibling := range siblings {
		if sibling.ID != session.ID && schedule.Kind(sibling.Kind).CountsTowardGoal() {
			return true, nil
		}
	}
	return false, nil
}

// MarkMissed 标记分段错过，不影响进度
func (s *Scheduler) MarkMissed(ctx context.Context, sessionID uuid.UUID) (*db.Session, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(session.GoalID)
	defer unlock()

	session, err = s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == db.SessionStatusCompleted {
		return nil, ErrSessionClosed
	}
	if session.Status == db.SessionStatusMissed {
		return session, nil
	}

	session.Status = db.SessionStatusMissed
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	if goal, err := s.goals.Get(ctx, session.GoalID); err == nil {
		s.publish(*session, *goal)
	}
	return session, nil
}

// Reschedule 修改单个分段的时间：先改日历事件，再改记录
// 不重新排列同批次的其他分段
func (s *Scheduler) Reschedule(ctx context.Context, sessionID uuid.UUID, start, end time.Time) (*db.Session, error) {
	if !start.Before(end) {
		return nil, ErrInvalidReschedule
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(session.GoalID)
	defer unlock()

	if err := s.calendar.CheckAccess(ctx); err != nil {
		return nil, err
	}

	session, err = s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == db.SessionStatusCompleted {
		return nil, ErrSessionClosed
	}

	if err := s.calendar.UpdateEvent(ctx, session.EventRef, start, end); err != nil {
		if errors.Is(err, calendar.ErrEventNotFound) {
			return nil, fmt.Errorf("%w: event %s of session %s: %w", ErrInconsistentState, session.EventRef, session.ID, err)
		}
		return nil, fmt.Errorf("update calendar event: %w", err)
	}

	previousStart, previousEnd := session.StartTime, session.EndTime
	session.StartTime = start
	session.EndTime = end
	if err := s.sessions.Save(ctx, session); err != nil {
		if restoreErr := s.calendar.UpdateEvent(context.WithoutCancel(ctx), session.EventRef, previousStart, previousEnd); restoreErr != nil {
			log.Printf("[scheduler] restore event %s failed: %v", session.EventRef, restoreErr)
		}
		return nil, err
	}

	log.Printf("[scheduler] session %s rescheduled to %s", session.ID, start.Format(time.RFC3339))
	if goal, err := s.goals.Get(ctx, session.GoalID); err == nil {
		s.publish(*session, *goal)
	}
	return session, nil
}

// WipeAndRebuild 删除目标的全部分段（日历与记录），然后重新调度
func (s *Scheduler) WipeAndRebuild(ctx context.Context, goalID uuid.UUID) (*ScheduleResult, error) {
	unlock := s.locks.lock(goalID)
	defer unlock()

	if err := s.calendar.CheckAccess(ctx); err != nil {
		return nil, err
	}
	goal, err := s.goals.Get(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if goal.IsCompleted() || goal.IsSuperseded() {
		return nil, ErrGoalClosed
	}
	if err := s.wipeSessions(ctx, SessionFilter{GoalID: goalID}); err != nil {
		return nil, err
	}

	return s.scheduleNextLocked(ctx, goalID)
}

// wipeSessions 删除匹配 filter 的分段及其日历事件；日历侧已不存在的事件忽略
func (s *Scheduler) wipeSessions(ctx context.Context, filter SessionFilter) error {
	sessions, err := s.sessions.List(ctx, filter)
	if err != nil {
		return err
	}

	for _, session := range sessions {
		if err := s.calendar.DeleteEvent(ctx, session.EventRef); err != nil && !errors.Is(err, calendar.ErrEventNotFound) {
			return fmt.Errorf("delete calendar event: %w", err)
		}
		if err := s.sessions.Delete(ctx, session.ID); err != nil {
			return err
		}
	}

	log.Printf("[scheduler] goal %s wiped %d sessions", filter.GoalID, len(sessions))
	return nil
}

// CreateGoal 创建新的周目标并安排第一次外出
// 已有未被替代的目标时，旧目标被新目标替代，其未完成的分段连同日历事件一并删除
func (s *Scheduler) CreateGoal(ctx context.Context, targetFrequency, periodDays int) (*GoalResult, error) {
	if err := s.calendar.CheckAccess(ctx); err != nil {
		return nil, err
	}

	if periodDays <= 0 {
		periodDays = s.policy.Period().Days
	}
	now := s.clock()
	state := schedule.StartNewPeriod(schedule.GoalState{TargetFrequency: targetFrequency}, now, schedule.PeriodOptions{Days: periodDays})

	goal := &db.Goal{}
	applyGoalState(goal, state)

	current, err := s.goals.Current(ctx)
	switch {
	case errors.Is(err, ErrGoalNotFound):
		if err := s.goals.Save(ctx, goal); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if err := s.replaceGoal(ctx, current.ID, goal, now); err != nil {
			return nil, err
		}
	}

	return s.scheduleFirstBatch(ctx, goal), nil
}

// replaceGoal 在旧目标的锁内用 replacement 替代它，并清理旧目标未完成的分段
func (s *Scheduler) replaceGoal(ctx context.Context, oldID uuid.UUID, replacement *db.Goal, now time.Time) error {
	unlock := s.locks.lock(oldID)
	defer unlock()

	old, err := s.goals.Get(ctx, oldID)
	if err != nil {
		return err
	}
	if err := s.goals.Supersede(ctx, old, replacement, now); err != nil {
		return err
	}
	log.Printf("[scheduler] goal %s superseded by %s", old.ID, replacement.ID)

	return s.wipeSessions(ctx, SessionFilter{GoalID: old.ID, Status: db.SessionStatusIncomplete})
}

// EditGoal 用新的参数替代当前目标：旧目标标记为已替代，其分段全部删除，新目标重新调度
// 已完成的次数沿用到新目标，超过新频率时按新频率截断
func (s *Scheduler) EditGoal(ctx context.Context, goalID uuid.UUID, edit GoalEdit) (*GoalResult, error) {
	unlock := s.locks.lock(goalID)
	defer unlock()

	if err := s.calendar.CheckAccess(ctx); err != nil {
		return nil, err
	}

	old, err := s.goals.Get(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if old.IsSuperseded() {
		return nil, ErrGoalClosed
	}

	now := s.clock()
	replacement := &db.Goal{
		TargetFrequency: old.TargetFrequency,
		StartDate:       old.StartDate,
		EndDate:         old.EndDate,
		Progress:        old.Progress,
		Status:          db.GoalStatusInProgress,
	}
	if edit.TargetFrequency > 0 {
		replacement.TargetFrequency = edit.TargetFrequency
	}
	if edit.PeriodDays > 0 {
		replacement.EndDate = old.StartDate.AddDate(0, 0, edit.PeriodDays)
	}
	if replacement.Progress >= replacement.TargetFrequency {
		replacement.Progress = replacement.TargetFrequency
		replacement.Status = db.GoalStatusCompleted
		completedAt := now
		if old.CompletedAt != nil {
			completedAt = *old.CompletedAt
		}
		replacement.CompletedAt = &completedAt
	}

	if err := s.goals.Supersede(ctx, old, replacement, now); err != nil {
		return nil, err
	}
	log.Printf("[scheduler] goal %s superseded by %s", old.ID, replacement.ID)

	if err := s.wipeSessions(ctx, SessionFilter{GoalID: old.ID}); err != nil {
		return nil, err
	}

	if replacement.IsCompleted() {
		return &GoalResult{Goal: *replacement}, nil
	}
	return s.scheduleFirstBatch(ctx, replacement), nil
}

// StartNewPeriod 在目标完成或周期结束后开启新周期并安排第一次外出
// targetFrequency 大于 0 时覆盖原频率
func (s *Scheduler) StartNewPeriod(ctx context.Context, goalID uuid.UUID, targetFrequency int) (*GoalResult, error) {
	unlock := s.locks.lock(goalID)
	defer unlock()

	if err := s.calendar.CheckAccess(ctx); err != nil {
		return nil, err
	}

	preceding, err := s.goals.Get(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if preceding.IsSuperseded() {
		return nil, ErrGoalClosed
	}

	now := s.clock()
	if !preceding.IsCompleted() && now.Before(preceding.EndDate) {
		return nil, ErrGoalActive
	}

	opts := s.policy.Period()
	opts.TargetFrequency = targetFrequency
	state := schedule.StartNewPeriod(goalState(*preceding), now, opts)

	goal := &db.Goal{}
	applyGoalState(goal, state)
	if err := s.goals.Supersede(ctx, preceding, goal, now); err != nil {
		return nil, err
	}
	if err := s.wipeSessions(ctx, SessionFilter{GoalID: preceding.ID, Status: db.SessionStatusIncomplete}); err != nil {
		return nil, err
	}
	log.Printf("[scheduler] goal %s starts new period %s after %s", goal.ID, goal.StartDate.Format(time.DateOnly), preceding.ID)

	return s.scheduleFirstBatch(ctx, goal), nil
}

// scheduleFirstBatch 为刚创建的目标调度；失败不影响目标本身，错误写入结果
func (s *Scheduler) scheduleFirstBatch(ctx context.Context, goal *db.Goal) *GoalResult {
	unlock := s.locks.lock(goal.ID)
	defer unlock()

	result := &GoalResult{Goal: *goal}

	next, err := s.scheduleNextLocked(ctx, goal.ID)
	if err != nil {
		log.Printf("[scheduler] first batch for goal %s failed: %v", goal.ID, err)
		result.NextError = err.Error()
		return result
	}
	result.Schedule = next
	return result
}

func (s *Scheduler) publish(session db.Session, goal db.Goal) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(session, goal)
}
