package schedule

import (
	"errors"
	"fmt"
	"time"
)

// GoalStatus 周目标状态，只允许 in_progress -> completed
type GoalStatus string

const (
	GoalInProgress GoalStatus = "in_progress"
	GoalCompleted  GoalStatus = "completed"
)

// ErrInvalidGoal 目标参数不合法
var ErrInvalidGoal = errors.New("invalid goal")

// GoalState 是进度推进所需的目标字段
type GoalState struct {
	TargetFrequency int
	Progress        int
	Status          GoalStatus
	StartDate       time.Time
	EndDate         time.Time
	CompletedAt     *time.Time
}

// Validate 检查频率与周期
func (g GoalState) Validate() error {
	if g.TargetFrequency <= 0 {
		return fmt.Errorf("%w: target frequency must be positive", ErrInvalidGoal)
	}
	if !g.EndDate.After(g.StartDate) {
		return fmt.Errorf("%w: end date must be after start date", ErrInvalidGoal)
	}
	if g.Progress < 0 || g.Progress > g.TargetFrequency {
		return fmt.Errorf("%w: progress out of range", ErrInvalidGoal)
	}
	return nil
}

// RecordCompletion 进度 +1 并截断在目标频率；仅在本次调用使目标完成时返回 true。
// 已完成的目标原样返回。
func RecordCompletion(goal GoalState, now time.Time) (GoalState, bool) {
	if goal.Status == GoalCompleted {
		return goal, false
	}

	goal.Progress = min(goal.Progress+1, goal.TargetFrequency)
	if goal.Progress < goal.TargetFrequency {
		return goal, false
	}

	goal.Status = GoalCompleted
	completedAt := now
	goal.CompletedAt = &completedAt
	return goal, true
}

// PeriodOptions 控制新周期的生成方式
type PeriodOptions struct {
	// TargetFrequency 大于 0 时覆盖上一周期的频率
	TargetFrequency int
	// Days 周期天数，默认 7
	Days int
	// AnchorAfterPreceding 为 true 时新周期从上一周期结束日开始，而不是 now
	AnchorAfterPreceding bool
}

// StartNewPeriod 基于上一周期生成新的目标，进度清零
func StartNewPeriod(preceding GoalState, now time.Time, opts PeriodOptions) GoalState {
	days := opts.Days
	if days <= 0 {
		days = DefaultPeriodDays
	}

	target := preceding.TargetFrequency
	if opts.TargetFrequency > 0 {
		target = opts.TargetFrequency
	}

	start := now
	if opts.AnchorAfterPreceding && !preceding.EndDate.IsZero() {
		start = preceding.EndDate
	}

	return GoalState{
		TargetFrequency: target,
		Progress:        0,
		Status:          GoalInProgress,
		StartDate:       start,
		EndDate:         start.AddDate(0, 0, days),
	}
}
