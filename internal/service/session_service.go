package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jogcadence/internal/db"
	"gorm.io/gorm"
)

// SessionService 负责跑步分段的持久化，不接触日历
type SessionService struct {
	db *gorm.DB
}

// SessionFilter 描述列表过滤条件，零值字段不参与过滤
type SessionFilter struct {
	GoalID  uuid.UUID
	BatchID uuid.UUID
	Status  string
	From    time.Time
	To      time.Time
}

// NewSessionService 构造 SessionService
func NewSessionService(gdb *gorm.DB) *SessionService {
	return &SessionService{db: gdb}
}

// Get 根据 ID 获取分段
func (s *SessionService) Get(ctx context.Context, id uuid.UUID) (*db.Session, error) {
	var session db.Session
	if err := s.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("%w: get session: %w", ErrPersistence, err)
	}
	return &session, nil
}

// Save 新建或更新分段
func (s *SessionService) Save(ctx context.Context, session *db.Session) error {
	if !session.EndTime.After(session.StartTime) {
		return fmt.Errorf("%w: session end must be after start", ErrInvalidReschedule)
	}
	if err := s.db.WithContext(ctx).Save(session).Error; err != nil {
		return fmt.Errorf("%w: save session: %w", ErrPersistence, err)
	}
	return nil
}

// Delete 删除分段记录
func (s *SessionService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.db.WithContext(ctx).Delete(&db.Session{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("%w: delete session: %w", ErrPersistence, err)
	}
	return nil
}

// List 按开始时间升序返回分段
func (s *SessionService) List(ctx context.Context, filter SessionFilter) ([]db.Session, error) {
	var sessions []db.Session

	query := s.db.WithContext(ctx).Model(&db.Session{})

	if filter.GoalID != uuid.Nil {
		query = query.Where("goal_id = ?", filter.GoalID)
	}
	if filter.BatchID != uuid.Nil {
		query = query.Where("batch_id = ?", filter.BatchID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if !filter.From.IsZero() {
		query = query.Where("end_time > ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("start_time < ?", filter.To)
	}

	if err := query.Order("start_time ASC").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("%w: list sessions: %w", ErrPersistence, err)
	}
	return sessions, nil
}

// UpdateNote 保存分段备注（markdown 原文）
func (s *SessionService) UpdateNote(ctx context.Context, id uuid.UUID, note string) (*db.Session, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	session.Note = strings.TrimSpace(note)
	if err := s.db.WithContext(ctx).Model(session).Update("note", session.Note).Error; err != nil {
		return nil, fmt.Errorf("%w: update session note: %w", ErrPersistence, err)
	}
	return session, nil
}
