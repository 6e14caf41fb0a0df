package schedule

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
)

var (
	// ErrNoAvailability 扫描范围内没有满足时长的空闲时段
	ErrNoAvailability = errors.New("no availability found within horizon")
	// ErrInvalidDuration 请求时长必须为正
	ErrInvalidDuration = errors.New("duration must be positive")
	// ErrInvalidPreferences 偏好配置无效
	ErrInvalidPreferences = errors.New("invalid preferences")
)

const dateLayout = "2006-01-02"

// BusyLookup 返回 [dayStart, dayEnd) 内的忙碌区间
type BusyLookup func(ctx context.Context, dayStart, dayEnd time.Time) ([]Interval, error)

// FindSlot 从 from 所在日期起逐日扫描，返回最早的、长度恰为 duration 的空闲窗口。
//
// 偏好星期非空时跳过其余日期；偏好时间段非空时，每天先在偏好时段内查找，
// 均不满足再回落到整个 band。第一天的候选起点不早于 from。
func FindSlot(ctx context.Context, from time.Time, duration time.Duration, prefs Preferences, policy Policy, busy BusyLookup) (TimeWindow, error) {
	if duration <= 0 {
		return TimeWindow{}, ErrInvalidDuration
	}
	if busy == nil {
		return TimeWindow{}, errors.New("busy lookup is required")
	}

	policy = policy.normalized()
	first := startOfDay(from)

	for offset := 0; offset < policy.HorizonDays; offset++ {
		if err := ctx.Err(); err != nil {
			return TimeWindow{}, err
		}

		day := first.AddDate(0, 0, offset)
		if !prefs.AllowsDay(day.Weekday()) {
			continue
		}

		intervals, err := busy(ctx, day, day.AddDate(0, 0, 1))
		if err != nil {
			return TimeWindow{}, fmt.Errorf("query busy intervals for %s: %w", day.Format(dateLayout), err)
		}

		band := policy.Band.On(day)
		if offset == 0 && from.After(band.Start) {
			band.Start = from
		}
		if !band.Start.Before(band.End) {
			continue
		}

		gaps := FreeGaps(band, intervals)

		for _, preferred := range policy.preferredRanges(prefs, day) {
			if window, ok := earliestFit(clipGaps(gaps, preferred), duration); ok {
				return window, nil
			}
		}

		if window, ok := earliestFit(gaps, duration); ok {
			return window, nil
		}
	}

	return TimeWindow{}, ErrNoAvailability
}

// FreeGaps 计算 band 内扣除忙碌区间后的空闲区间，按开始时间升序。
// 相互重叠的忙碌区间会被合并，band 之外的部分被裁掉。
func FreeGaps(band Interval, busy []Interval) []Interval {
	sorted := slices.Clone(busy)
	sortIntervals(sorted)

	gaps := make([]Interval, 0, len(sorted)+1)
	cursor := band.Start

	for _, item := range sorted {
		if !item.End.After(cursor) {
			continue
		}
		if !item.Start.Before(band.End) {
			break
		}
		if item.Start.After(cursor) {
			gaps = append(gaps, Interval{Start: cursor, End: item.Start})
		}
		cursor = item.End
	}

	if cursor.Before(band.End) {
		gaps = append(gaps, Interval{Start: cursor, End: band.End})
	}

	return gaps
}

func earliestFit(gaps []Interval, duration time.Duration) (TimeWindow, bool) {
	for _, gap := range gaps {
		if gap.Duration() >= duration {
			return TimeWindow{Start: gap.Start, End: gap.Start.Add(duration)}, true
		}
	}
	return TimeWindow{}, false
}

func clipGaps(gaps []Interval, bounds Interval) []Interval {
	clipped := make([]Interval, 0, len(gaps))
	for _, gap := range gaps {
		if !gap.Overlaps(bounds) {
			continue
		}
		if gap.Start.Before(bounds.Start) {
			gap.Start = bounds.Start
		}
		if gap.End.After(bounds.End) {
			gap.End = bounds.End
		}
		clipped = append(clipped, gap)
	}
	return clipped
}

func sortIntervals(items []Interval) {
	slices.SortFunc(items, func(a, b Interval) int {
		if diff := a.Start.Compare(b.Start); diff != 0 {
			return diff
		}
		return cmp.Compare(a.End.UnixNano(), b.End.UnixNano())
	})
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
