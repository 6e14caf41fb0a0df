package service

import (
	"errors"

	"github.com/jogcadence/internal/calendar"
	"github.com/jogcadence/internal/schedule"
)

var (
	// ErrAccessDenied 日历未授权，不做任何调度
	ErrAccessDenied = calendar.ErrAccessDenied
	// ErrNoAvailability 搜索范围内没有足够长的空闲时段
	ErrNoAvailability = schedule.ErrNoAvailability
	// ErrPersistence 存储层读写失败
	ErrPersistence = errors.New("persistence failure")
	// ErrInconsistentState 分段记录与日历事件不一致
	ErrInconsistentState = errors.New("session and calendar event are out of sync")
	// ErrGoalNotFound 在指定目标不存在时返回
	ErrGoalNotFound = errors.New("goal not found")
	// ErrSessionNotFound 在指定分段不存在时返回
	ErrSessionNotFound = errors.New("session not found")
	// ErrGoalClosed 目标已完成或已被替代，不再接受调度
	ErrGoalClosed = errors.New("goal is completed or superseded")
	// ErrGoalActive 当前周期尚未结束，不能开启新周期
	ErrGoalActive = errors.New("goal period is still active")
	// ErrSessionClosed 分段已完成，不能再改期或标记错过
	ErrSessionClosed = errors.New("session already completed")
	// ErrInvalidReschedule 改期时间不合法
	ErrInvalidReschedule = errors.New("reschedule start must be before end")
)
