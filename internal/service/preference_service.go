package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jogcadence/internal/db"
	"github.com/jogcadence/internal/locale"
	"github.com/jogcadence/internal/schedule"
	"gorm.io/gorm"
)

// PreferenceService 维护唯一生效的跑步偏好，以最近更新的记录为准
type PreferenceService struct {
	db *gorm.DB
}

// PreferenceInput 定义更新偏好时的字段
type PreferenceInput struct {
	PreJogMinutes  int
	JogMinutes     int
	PostJogMinutes int
	TimesOfDay     []string
	Days           []string
	Language       string
}

// NewPreferenceService 构造 PreferenceService
func NewPreferenceService(gdb *gorm.DB) *PreferenceService {
	return &PreferenceService{db: gdb}
}

// Latest 返回当前偏好，首次读取时写入默认值
func (s *PreferenceService) Latest(ctx context.Context) (*db.Preference, error) {
	var pref db.Preference
	err := s.db.WithContext(ctx).Order("updated_at DESC, id DESC").First(&pref).Error
	if err == nil {
		return &pref, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: load preference: %w", ErrPersistence, err)
	}

	pref = db.DefaultPreference()
	if err := s.db.WithContext(ctx).Create(&pref).Error; err != nil {
		return nil, fmt.Errorf("%w: create default preference: %w", ErrPersistence, err)
	}
	return &pref, nil
}

// Update 校验并覆盖当前偏好
func (s *PreferenceService) Update(ctx context.Context, input PreferenceInput) (*db.Preference, error) {
	if input.PreJogMinutes < 0 || input.PostJogMinutes < 0 {
		return nil, fmt.Errorf("%w: warm-up and cool-down must not be negative", schedule.ErrInvalidPreferences)
	}

	times, err := parseTimesOfDay(input.TimesOfDay)
	if err != nil {
		return nil, err
	}
	days, err := parseWeekdays(input.Days)
	if err != nil {
		return nil, err
	}

	prefs := schedule.NewPreferences(input.PreJogMinutes, input.JogMinutes, input.PostJogMinutes, times, days)
	if err := prefs.Validate(); err != nil {
		return nil, err
	}

	current, err := s.Latest(ctx)
	if err != nil {
		return nil, err
	}

	current.PreJogMinutes = input.PreJogMinutes
	current.JogMinutes = input.JogMinutes
	current.PostJogMinutes = input.PostJogMinutes
	current.TimesOfDay = formatTimesOfDay(prefs.TimesOfDay)
	current.Days = formatWeekdays(prefs.Days)
	current.Language = locale.NormalizeLanguage(input.Language)

	if err := s.db.WithContext(ctx).Save(current).Error; err != nil {
		return nil, fmt.Errorf("%w: update preference: %w", ErrPersistence, err)
	}
	return current, nil
}

// PreferencesFromModel 将存储的偏好转换为调度参数
func PreferencesFromModel(pref db.Preference) (schedule.Preferences, error) {
	times, err := parseTimesOfDay(splitList(pref.TimesOfDay))
	if err != nil {
		return schedule.Preferences{}, err
	}
	days, err := parseWeekdays(splitList(pref.Days))
	if err != nil {
		return schedule.Preferences{}, err
	}

	prefs := schedule.NewPreferences(pref.PreJogMinutes, pref.JogMinutes, pref.PostJogMinutes, times, days)
	if err := prefs.Validate(); err != nil {
		return schedule.Preferences{}, err
	}
	return prefs, nil
}

func parseTimesOfDay(values []string) ([]schedule.TimeOfDay, error) {
	times := make([]schedule.TimeOfDay, 0, len(values))
	for _, raw := range values {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		value, ok := schedule.ParseTimeOfDay(raw)
		if !ok {
			return nil, fmt.Errorf("%w: unknown time of day %q", schedule.ErrInvalidPreferences, raw)
		}
		times = append(times, value)
	}
	return times, nil
}

func parseWeekdays(values []string) ([]time.Weekday, error) {
	days := make([]time.Weekday, 0, len(values))
	for _, raw := range values {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		day, ok := schedule.ParseWeekday(raw)
		if !ok {
			return nil, fmt.Errorf("%w: unknown weekday %q", schedule.ErrInvalidPreferences, raw)
		}
		days = append(days, day)
	}
	return days, nil
}

func formatTimesOfDay(times []schedule.TimeOfDay) string {
	parts := make([]string, 0, len(times))
	for _, value := range times {
		parts = append(parts, string(value))
	}
	return strings.Join(parts, ",")
}

func formatWeekdays(days []time.Weekday) string {
	parts := make([]string, 0, len(days))
	for _, day := range days {
		parts = append(parts, strings.ToLower(day.String()[:3]))
	}
	return strings.Join(parts, ",")
}

// splitList 拆分逗号分隔的字段
func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return strings.Split(raw, ",")
}
