package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jogcadence/internal/schedule"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// SchedulePolicy 是调度策略文件的结构，支持 YAML 与 TOML，例如：
//
//	band: "06:00-21:00"
//	horizon_days: 8
//	period_days: 7
//	time_of_day:
//	  morning: "06:00-10:00"
type SchedulePolicy struct {
	Band                 schedule.ClockRange                        `yaml:"band" toml:"band"`
	HorizonDays          int                                        `yaml:"horizon_days" toml:"horizon_days"`
	PeriodDays           int                                        `yaml:"period_days" toml:"period_days"`
	TimeOfDay            map[schedule.TimeOfDay]schedule.ClockRange `yaml:"time_of_day" toml:"time_of_day"`
	AutoScheduleNext     bool                                       `yaml:"auto_schedule_next" toml:"auto_schedule_next"`
	AnchorAfterPreceding bool                                       `yaml:"anchor_after_preceding" toml:"anchor_after_preceding"`
}

// DefaultSchedulePolicy 返回内置策略
func DefaultSchedulePolicy() SchedulePolicy {
	defaults := schedule.DefaultPolicy()
	return SchedulePolicy{
		Band:        defaults.Band,
		HorizonDays: defaults.HorizonDays,
		PeriodDays:  schedule.DefaultPeriodDays,
		TimeOfDay:   defaults.Windows,
	}
}

// LoadPolicy 按扩展名解析策略文件；path 为空或文件不存在时返回默认策略。
func LoadPolicy(path string) (SchedulePolicy, error) {
	policy := DefaultSchedulePolicy()

	path = strings.TrimSpace(path)
	if path == "" {
		return policy, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return policy, nil
		}
		return policy, fmt.Errorf("read schedule policy: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &policy)
	case ".toml":
		err = toml.Unmarshal(data, &policy)
	default:
		return policy, fmt.Errorf("unsupported schedule policy format %q", filepath.Ext(path))
	}
	if err != nil {
		return policy, fmt.Errorf("decode schedule policy: %w", err)
	}

	for key := range policy.TimeOfDay {
		if _, ok := schedule.ParseTimeOfDay(string(key)); !ok {
			return policy, fmt.Errorf("unknown time of day %q in schedule policy", key)
		}
	}
	if policy.HorizonDays < 0 || policy.PeriodDays < 0 {
		return policy, errors.New("horizon_days and period_days must not be negative")
	}

	return policy, nil
}

// SchedulePolicy 转换为调度核心使用的策略
func (p SchedulePolicy) Schedule() schedule.Policy {
	return schedule.Policy{
		Band:        p.Band,
		HorizonDays: p.HorizonDays,
		Windows:     p.TimeOfDay,
	}
}

// Period 返回新周期的生成参数
func (p SchedulePolicy) Period() schedule.PeriodOptions {
	return schedule.PeriodOptions{
		Days:                 p.PeriodDays,
		AnchorAfterPreceding: p.AnchorAfterPreceding,
	}
}
