package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jogcadence/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// CalendarAccessGranted 日历已授权
	CalendarAccessGranted = "granted"
	// CalendarAccessDenied 日历未授权
	CalendarAccessDenied = "denied"
)

// SettingDefaults 是数据库中没有记录时使用的默认值，通常来自环境变量
type SettingDefaults struct {
	CalendarAccess string
	CompanionURL   string
}

// Settings 汇总当前生效的系统设置
type Settings struct {
	CalendarAccess string
	CompanionURL   string
	LastSyncAt     *time.Time
}

// SettingService 提供键值设置的读取与更新能力。
type SettingService struct {
	db       *gorm.DB
	defaults SettingDefaults
}

// NewSettingService 构造 SettingService。
func NewSettingService(gdb *gorm.DB, defaults SettingDefaults) *SettingService {
	if normalizeCalendarAccess(defaults.CalendarAccess) == "" {
		defaults.CalendarAccess = CalendarAccessGranted
	}
	return &SettingService{db: gdb, defaults: defaults}
}

var settingKeys = []string{
	db.SettingKeyCalendarAccess,
	db.SettingKeyCompanionURL,
	db.SettingKeyLastSyncAt,
}

// GetSettings 读取系统设置，如未设置将返回默认值。
func (s *SettingService) GetSettings(ctx context.Context) (Settings, error) {
	result := Settings{
		CalendarAccess: normalizeCalendarAccess(s.defaults.CalendarAccess),
		CompanionURL:   strings.TrimSpace(s.defaults.CompanionURL),
	}

	var records []db.SystemSetting
	if err := s.db.WithContext(ctx).Where("key IN ?", settingKeys).Find(&records).Error; err != nil {
		return result, fmt.Errorf("%w: load settings: %w", ErrPersistence, err)
	}

	for _, record := range records {
		switch record.Key {
		case db.SettingKeyCalendarAccess:
			if access := normalizeCalendarAccess(record.Value); access != "" {
				result.CalendarAccess = access
			}
		case db.SettingKeyCompanionURL:
			if strings.TrimSpace(record.Value) != "" {
				result.CompanionURL = strings.TrimSpace(record.Value)
			}
		case db.SettingKeyLastSyncAt:
			if parsed, err := time.Parse(time.RFC3339, record.Value); err == nil {
				result.LastSyncAt = &parsed
			}
		}
	}

	return result, nil
}

// CalendarAccess 满足 calendar.AccessSource
func (s *SettingService) CalendarAccess(ctx context.Context) (bool, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return false, err
	}
	return settings.CalendarAccess == CalendarAccessGranted, nil
}

// SetCalendarAccess 记录日历授权状态
func (s *SettingService) SetCalendarAccess(ctx context.Context, granted bool) error {
	value := CalendarAccessDenied
	if granted {
		value = CalendarAccessGranted
	}
	return s.set(ctx, db.SettingKeyCalendarAccess, value)
}

// SetCompanionURL 保存手表端同步地址，空字符串表示回退到默认值
func (s *SettingService) SetCompanionURL(ctx context.Context, url string) error {
	return s.set(ctx, db.SettingKeyCompanionURL, strings.TrimRight(strings.TrimSpace(url), "/"))
}

// MarkSynced 记录最近一次推送成功的时间
func (s *SettingService) MarkSynced(ctx context.Context, at time.Time) error {
	return s.set(ctx, db.SettingKeyLastSyncAt, at.UTC().Format(time.RFC3339))
}

func (s *SettingService) set(ctx context.Context, key, value string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return upsertSetting(tx, key, value)
	})
	if err != nil {
		return fmt.Errorf("%w: update setting: %w", ErrPersistence, err)
	}
	return nil
}

func upsertSetting(tx *gorm.DB, key, value string) error {
	setting := db.SystemSetting{Key: key, Value: value}
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      value,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&setting).Error; err != nil {
		return fmt.Errorf("upsert setting %s: %w", key, err)
	}
	return nil
}

func normalizeCalendarAccess(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case CalendarAccessGranted:
		return CalendarAccessGranted
	case CalendarAccessDenied:
		return CalendarAccessDenied
	default:
		return ""
	}
}

// ParseCalendarAccess 解析 granted/denied，其他取值返回错误
func ParseCalendarAccess(value string) (bool, error) {
	switch normalizeCalendarAccess(value) {
	case CalendarAccessGranted:
		return true, nil
	case CalendarAccessDenied:
		return false, nil
	default:
		return false, errors.New("calendar access must be granted or denied")
	}
}
