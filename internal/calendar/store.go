// Package calendar 提供基于数据库的本地日历实现，满足调度器所需的日历能力：
// 忙闲查询、事件增删改以及访问授权检查。
package calendar

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jogcadence/internal/db"
	"github.com/jogcadence/internal/schedule"
	"gorm.io/gorm"
)

var (
	// ErrAccessDenied 日历访问未授权
	ErrAccessDenied = errors.New("calendar access not granted")
	// ErrEventNotFound 事件引用无效或事件已被删除
	ErrEventNotFound = errors.New("calendar event not found")
	// ErrInvalidEvent 事件时间不合法
	ErrInvalidEvent = errors.New("calendar event end must be after start")
)

// AccessSource 提供日历授权状态
type AccessSource interface {
	CalendarAccess(ctx context.Context) (bool, error)
}

// Store 使用 db.CalendarEvent 作为日历存储
type Store struct {
	db     *gorm.DB
	access AccessSource
}

// NewStore 构造 Store；access 为 nil 时视为始终授权
func NewStore(gdb *gorm.DB, access AccessSource) *Store {
	return &Store{db: gdb, access: access}
}

// CheckAccess 返回 ErrAccessDenied 表示未授权
func (s *Store) CheckAccess(ctx context.Context) error {
	if s.access == nil {
		return nil
	}
	granted, err := s.access.CalendarAccess(ctx)
	if err != nil {
		return fmt.Errorf("check calendar access: %w", err)
	}
	if !granted {
		return ErrAccessDenied
	}
	return nil
}

// QueryFreeBusy 返回与 [dayStart, dayEnd) 相交的全部事件区间，按开始时间升序
func (s *Store) QueryFreeBusy(ctx context.Context, dayStart, dayEnd time.Time) ([]schedule.Interval, error) {
	var events []db.CalendarEvent
	if err := s.db.WithContext(ctx).
		Where("start_time < ? AND end_time > ?", dayEnd, dayStart).
		Order("start_time ASC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("query calendar events: %w", err)
	}

	intervals := make([]schedule.Interval, 0, len(events))
	for _, event := range events {
		intervals = append(intervals, schedule.Interval{
			Start: event.StartTime.In(dayStart.Location()),
			End:   event.EndTime.In(dayStart.Location()),
		})
	}
	return intervals, nil
}

// CreateEvent 新建事件并返回事件引用
func (s *Store) CreateEvent(ctx context.Context, title string, start, end time.Time) (string, error) {
	if !end.After(start) {
		return "", ErrInvalidEvent
	}

	event := db.CalendarEvent{
		Title:     strings.TrimSpace(title),
		StartTime: start,
		EndTime:   end,
	}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		return "", fmt.Errorf("create calendar event: %w", err)
	}

	log.Printf("[calendar] created event %s %q %s-%s", event.ID, event.Title, start.Format(time.RFC3339), end.Format(time.RFC3339))
	return event.ID.String(), nil
}

// UpdateEvent 修改事件起止时间
func (s *Store) UpdateEvent(ctx context.Context, ref string, start, end time.Time) error {
	if !end.After(start) {
		return ErrInvalidEvent
	}

	id, err := parseRef(ref)
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Model(&db.CalendarEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"start_time": start, "end_time": end})
	if result.Error != nil {
		return fmt.Errorf("update calendar event: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrEventNotFound
	}
	return nil
}

// DeleteEvent 删除事件
func (s *Store) DeleteEvent(ctx context.Context, ref string) error {
	id, err := parseRef(ref)
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Delete(&db.CalendarEvent{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("delete calendar event: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrEventNotFound
	}
	return nil
}

func parseRef(ref string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(ref))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: malformed reference %q", ErrEventNotFound, ref)
	}
	return id, nil
}
