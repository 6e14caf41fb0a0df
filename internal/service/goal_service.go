package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jogcadence/internal/db"
	"github.com/jogcadence/internal/schedule"
	"gorm.io/gorm"
)

// GoalService 负责周目标的持久化
// 目标不会被删除：修改参数时旧目标写入 SupersededAt，新目标成为当前目标
type GoalService struct {
	db *gorm.DB
}

// GoalInput 定义创建目标时可配置字段
type GoalInput struct {
	TargetFrequency int
	StartDate       time.Time
	Days            int
}

// NewGoalService 构造 GoalService
func NewGoalService(gdb *gorm.DB) *GoalService {
	return &GoalService{db: gdb}
}

// Get 根据 ID 获取目标
func (s *GoalService) Get(ctx context.Context, id uuid.UUID) (*db.Goal, error) {
	var goal db.Goal
	if err := s.db.WithContext(ctx).First(&goal, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGoalNotFound
		}
		return nil, fmt.Errorf("%w: get goal: %w", ErrPersistence, err)
	}
	return &goal, nil
}

// Save 新建或更新目标
func (s *GoalService) Save(ctx context.Context, goal *db.Goal) error {
	if err := goalState(*goal).Validate(); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Save(goal).Error; err != nil {
		return fmt.Errorf("%w: save goal: %w", ErrPersistence, err)
	}
	return nil
}

// Create 按输入生成一个新的进行中目标
func (s *GoalService) Create(ctx context.Context, input GoalInput) (*db.Goal, error) {
	days := input.Days
	if days <= 0 {
		days = schedule.DefaultPeriodDays
	}

	goal := &db.Goal{
		TargetFrequency: input.TargetFrequency,
		StartDate:       input.StartDate,
		EndDate:         input.StartDate.AddDate(0, 0, days),
		Status:          db.GoalStatusInProgress,
	}
	if err := s.Save(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

// Current 返回最近开始且未被替代的目标
func (s *GoalService) Current(ctx context.Context) (*db.Goal, error) {
	var goal db.Goal
	if err := s.db.WithContext(ctx).
		Where("superseded_at IS NULL").
		Order("start_date DESC, created_at DESC").
		First(&goal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGoalNotFound
		}
		return nil, fmt.Errorf("%w: current goal: %w", ErrPersistence, err)
	}
	return &goal, nil
}

// List 返回全部目标，最新的在前
func (s *GoalService) List(ctx context.Context, includeSuperseded bool) ([]db.Goal, error) {
	var goals []db.Goal

	query := s.db.WithContext(ctx).Model(&db.Goal{})
	if !includeSuperseded {
		query = query.Where("superseded_at IS NULL")
	}

	if err := query.Order("start_date DESC, created_at DESC").Find(&goals).Error; err != nil {
		return nil, fmt.Errorf("%w: list goals: %w", ErrPersistence, err)
	}
	return goals, nil
}

// Supersede 在同一事务中保存 replacement 并把 old 标记为已替代
func (s *GoalService) Supersede(ctx context.Context, old *db.Goal, replacement *db.Goal, at time.Time) error {
	if err := goalState(*replacement).Validate(); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(replacement).Error; err != nil {
			return fmt.Errorf("create replacement goal: %w", err)
		}

		result := tx.Model(&db.Goal{}).
			Where("id = ? AND superseded_at IS NULL", old.ID).
			Updates(map[string]interface{}{
				"superseded_at":    at,
				"superseded_by_id": replacement.ID,
			})
		if result.Error != nil {
			return fmt.Errorf("mark goal superseded: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrGoalClosed
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrGoalClosed) {
			return err
		}
		return fmt.Errorf("%w: supersede goal: %w", ErrPersistence, err)
	}

	old.SupersededAt = &at
	old.SupersededByID = &replacement.ID
	return nil
}

func goalState(goal db.Goal) schedule.GoalState {
	return schedule.GoalState{
		TargetFrequency: goal.TargetFrequency,
		Progress:        goal.Progress,
		Status:          schedule.GoalStatus(goal.Status),
		StartDate:       goal.StartDate,
		EndDate:         goal.EndDate,
		CompletedAt:     goal.CompletedAt,
	}
}

func applyGoalState(goal *db.Goal, state schedule.GoalState) {
	goal.TargetFrequency = state.TargetFrequency
	goal.Progress = state.Progress
	goal.Status = string(state.Status)
	goal.StartDate = state.StartDate
	goal.EndDate = state.EndDate
	goal.CompletedAt = state.CompletedAt
}
