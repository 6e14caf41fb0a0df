// Package schedule 包含跑步计划的纯调度逻辑：空闲时段查找、分段编排与周目标进度推进。
// 包内不访问数据库或日历，所有外部能力通过参数注入。
package schedule

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Kind 表示一次外出跑步中的分段类型
type Kind string

const (
	KindPreJog  Kind = "pre_jog"
	KindJog     Kind = "jog"
	KindPostJog Kind = "post_jog"
)

// Valid 判断分段类型是否受支持
func (k Kind) Valid() bool {
	switch k {
	case KindPreJog, KindJog, KindPostJog:
		return true
	}
	return false
}

// CountsTowardGoal 热身与主跑段完成计入周目标，单独完成拉伸段不计入
func (k Kind) CountsTowardGoal() bool {
	return k == KindPreJog || k == KindJog
}

// TimeOfDay 为偏好的时间段
type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"
	Noon      TimeOfDay = "noon"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
)

var timeOfDayOrder = []TimeOfDay{Morning, Noon, Afternoon, Evening}

// ParseTimeOfDay 解析时间段名称，大小写不敏感
func ParseTimeOfDay(raw string) (TimeOfDay, bool) {
	candidate := TimeOfDay(strings.ToLower(strings.TrimSpace(raw)))
	if slices.Contains(timeOfDayOrder, candidate) {
		return candidate, true
	}
	return "", false
}

// ParseWeekday 支持 "mon"/"monday" 等写法
func ParseWeekday(raw string) (time.Weekday, bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if len(value) < 3 {
		return 0, false
	}
	for day := time.Sunday; day <= time.Saturday; day++ {
		name := strings.ToLower(day.String())
		if value == name || value == name[:3] {
			return day, true
		}
	}
	return 0, false
}

// Interval 表示一个左闭右开的时间区间
type Interval struct {
	Start time.Time
	End   time.Time
}

// Duration 返回区间长度
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Overlaps 判断两个区间是否相交
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// TimeWindow 是查找结果：长度恰好等于请求时长
type TimeWindow = Interval

// Preferences 是调度核心读取的只读偏好
type Preferences struct {
	PreJog     time.Duration
	Jog        time.Duration
	PostJog    time.Duration
	TimesOfDay []TimeOfDay
	Days       []time.Weekday
}

// NewPreferences 以分钟构造偏好，时间段与星期去重并排序
func NewPreferences(preMinutes, jogMinutes, postMinutes int, times []TimeOfDay, days []time.Weekday) Preferences {
	return Preferences{
		PreJog:     time.Duration(max(preMinutes, 0)) * time.Minute,
		Jog:        time.Duration(jogMinutes) * time.Minute,
		PostJog:    time.Duration(max(postMinutes, 0)) * time.Minute,
		TimesOfDay: normalizeTimes(times),
		Days:       normalizeDays(days),
	}
}

// TotalDuration 是一次外出的总时长（热身 + 主跑 + 拉伸）
func (p Preferences) TotalDuration() time.Duration {
	return max(p.PreJog, 0) + p.Jog + max(p.PostJog, 0)
}

// AllowsDay 偏好星期为空时允许任意一天
func (p Preferences) AllowsDay(day time.Weekday) bool {
	return len(p.Days) == 0 || slices.Contains(p.Days, day)
}

// Validate 校验主跑时长
func (p Preferences) Validate() error {
	if p.Jog <= 0 {
		return fmt.Errorf("%w: jog duration must be positive", ErrInvalidPreferences)
	}
	if p.PreJog < 0 || p.PostJog < 0 {
		return fmt.Errorf("%w: warm-up and cool-down must not be negative", ErrInvalidPreferences)
	}
	return nil
}

func normalizeTimes(times []TimeOfDay) []TimeOfDay {
	result := make([]TimeOfDay, 0, len(times))
	for _, candidate := range timeOfDayOrder {
		if slices.Contains(times, candidate) {
			result = append(result, candidate)
		}
	}
	return result
}

func normalizeDays(days []time.Weekday) []time.Weekday {
	result := make([]time.Weekday, 0, len(days))
	for day := time.Sunday; day <= time.Saturday; day++ {
		if slices.Contains(days, day) {
			result = append(result, day)
		}
	}
	return result
}
