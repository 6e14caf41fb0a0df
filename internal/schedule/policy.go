package schedule

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultHorizonDays 最多向后扫描的天数（含起始日）
	DefaultHorizonDays = 8
	// DefaultPeriodDays 目标周期长度
	DefaultPeriodDays = 7
)

// ClockRange 表示一天内的时段，配置中写作 "HH:MM-HH:MM"
type ClockRange struct {
	Start time.Duration
	End   time.Duration
}

// MustClockRange 解析固定写法，仅用于默认值
func MustClockRange(text string) ClockRange {
	var r ClockRange
	if err := r.UnmarshalText([]byte(text)); err != nil {
		panic(err)
	}
	return r
}

// UnmarshalText 同时服务于 YAML 与 TOML 配置解析
func (r *ClockRange) UnmarshalText(text []byte) error {
	parts := strings.Split(strings.TrimSpace(string(text)), "-")
	if len(parts) != 2 {
		return fmt.Errorf("invalid clock range %q: expected 'HH:MM-HH:MM'", string(text))
	}

	start, err := parseClock(parts[0])
	if err != nil {
		return err
	}
	end, err := parseClock(parts[1])
	if err != nil {
		return err
	}
	if start >= end {
		return fmt.Errorf("clock range start %s must be before end %s", strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
	}

	r.Start = start
	r.End = end
	return nil
}

// MarshalText 输出与解析一致的格式
func (r ClockRange) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r ClockRange) String() string {
	return formatClock(r.Start) + "-" + formatClock(r.End)
}

// IsZero 未配置的时段
func (r ClockRange) IsZero() bool {
	return r.Start == 0 && r.End == 0
}

// On 将时段落到指定日期（按 day 的时区计算墙上时间）
func (r ClockRange) On(day time.Time) Interval {
	y, m, d := day.Date()
	loc := day.Location()
	return Interval{
		Start: time.Date(y, m, d, int(r.Start.Hours()), int(r.Start.Minutes())%60, 0, 0, loc),
		End:   time.Date(y, m, d, int(r.End.Hours()), int(r.End.Minutes())%60, 0, 0, loc),
	}
}

func parseClock(raw string) (time.Duration, error) {
	value := strings.TrimSpace(raw)
	if value == "24:00" {
		return 24 * time.Hour, nil
	}
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %w", value, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func formatClock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

// Policy 汇总可调的调度策略
type Policy struct {
	Band        ClockRange
	HorizonDays int
	Windows     map[TimeOfDay]ClockRange
}

// DefaultPolicy 06:00-21:00 的可跑时段，向后扫描 8 天
func DefaultPolicy() Policy {
	return Policy{
		Band:        MustClockRange("06:00-21:00"),
		HorizonDays: DefaultHorizonDays,
		Windows: map[TimeOfDay]ClockRange{
			Morning:   MustClockRange("06:00-11:00"),
			Noon:      MustClockRange("11:00-14:00"),
			Afternoon: MustClockRange("14:00-17:00"),
			Evening:   MustClockRange("17:00-21:00"),
		},
	}
}

// normalized 为缺省字段补默认值
func (p Policy) normalized() Policy {
	defaults := DefaultPolicy()
	if p.Band.IsZero() {
		p.Band = defaults.Band
	}
	if p.HorizonDays <= 0 {
		p.HorizonDays = defaults.HorizonDays
	}
	windows := make(map[TimeOfDay]ClockRange, len(defaults.Windows))
	for key, value := range defaults.Windows {
		windows[key] = value
	}
	for key, value := range p.Windows {
		if !value.IsZero() {
			windows[key] = value
		}
	}
	p.Windows = windows
	return p
}

// preferredRanges 返回偏好时间段与 band 的交集，按时间先后排列
func (p Policy) preferredRanges(prefs Preferences, day time.Time) []Interval {
	band := p.Band.On(day)
	ranges := make([]Interval, 0, len(prefs.TimesOfDay))
	for _, slot := range prefs.TimesOfDay {
		window, ok := p.Windows[slot]
		if !ok {
			continue
		}
		r := window.On(day)
		if r.Start.Before(band.Start) {
			r.Start = band.Start
		}
		if r.End.After(band.End) {
			r.End = band.End
		}
		if r.Start.Before(r.End) {
			ranges = append(ranges, r)
		}
	}
	sortIntervals(ranges)
	return ranges
}
