package schedule

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"
)

func staticBusy(intervals ...Interval) BusyLookup {
	return func(_ context.Context, dayStart, dayEnd time.Time) ([]Interval, error) {
		result := make([]Interval, 0, len(intervals))
		for _, item := range intervals {
			if item.Overlaps(Interval{Start: dayStart, End: dayEnd}) {
				result = append(result, item)
			}
		}
		return result, nil
	}
}

func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

func TestFindSlotEmptyCalendarStartsAtBand(t *testing.T) {
	// 2026-03-02 是周一
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	for _, minutes := range []int{5, 30, 45, 90, 15 * 60} {
		window, err := FindSlot(context.Background(), day, time.Duration(minutes)*time.Minute, Preferences{}, DefaultPolicy(), staticBusy())
		if err != nil {
			t.Fatalf("duration %d: unexpected error: %v", minutes, err)
		}
		if !window.Start.Equal(at(day, 6, 0)) {
			t.Fatalf("duration %d: expected start 06:00, got %s", minutes, window.Start)
		}
		if window.Duration() != time.Duration(minutes)*time.Minute {
			t.Fatalf("duration %d: unexpected window length %s", minutes, window.Duration())
		}
	}
}

func TestFindSlotPicksEarliestGap(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		busy     []Interval
		duration time.Duration
		expected time.Time
	}{
		{
			name:     "before first event",
			busy:     []Interval{{Start: at(day, 7, 0), End: at(day, 8, 0)}},
			duration: 45 * time.Minute,
			expected: at(day, 6, 0),
		},
		{
			name: "between events",
			busy: []Interval{
				{Start: at(day, 6, 0), End: at(day, 9, 0)},
				{Start: at(day, 10, 0), End: at(day, 12, 0)},
			},
			duration: 45 * time.Minute,
			expected: at(day, 9, 0),
		},
		{
			name: "gap too short is skipped",
			busy: []Interval{
				{Start: at(day, 6, 0), End: at(day, 9, 0)},
				{Start: at(day, 9, 30), End: at(day, 12, 0)},
			},
			duration: 45 * time.Minute,
			expected: at(day, 12, 0),
		},
		{
			name: "unsorted and overlapping events",
			busy: []Interval{
				{Start: at(day, 8, 0), End: at(day, 11, 0)},
				{Start: at(day, 5, 0), End: at(day, 7, 0)},
				{Start: at(day, 6, 30), End: at(day, 9, 0)},
			},
			duration: 30 * time.Minute,
			expected: at(day, 11, 0),
		},
		{
			name:     "after last event",
			busy:     []Interval{{Start: at(day, 5, 0), End: at(day, 20, 0)}},
			duration: time.Hour,
			expected: at(day, 20, 0),
		},
		{
			name:     "full day rolls over to next day",
			busy:     []Interval{{Start: at(day, 6, 0), End: at(day, 20, 30)}},
			duration: time.Hour,
			expected: at(day.AddDate(0, 0, 1), 6, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window, err := FindSlot(context.Background(), day, tt.duration, Preferences{}, DefaultPolicy(), staticBusy(tt.busy...))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !window.Start.Equal(tt.expected) {
				t.Fatalf("expected start %s, got %s", tt.expected, window.Start)
			}
			if window.Duration() != tt.duration {
				t.Fatalf("expected length %s, got %s", tt.duration, window.Duration())
			}
		})
	}
}

func TestFindSlotNeverOverlapsBusyIntervals(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 200; run++ {
		// 生成当天 band 内互不重叠的忙碌区间
		var busy []Interval
		cursor := at(day, 6, 0)
		for cursor.Before(at(day, 21, 0)) {
			cursor = cursor.Add(time.Duration(rng.Intn(120)) * time.Minute)
			end := cursor.Add(time.Duration(5+rng.Intn(90)) * time.Minute)
			if end.After(at(day, 21, 0)) {
				break
			}
			busy = append(busy, Interval{Start: cursor, End: end})
			cursor = end
		}
		duration := time.Duration(5+rng.Intn(80)) * time.Minute

		window, err := FindSlot(context.Background(), day, duration, Preferences{}, Policy{HorizonDays: 1}, staticBusy(busy...))
		if errors.Is(err, ErrNoAvailability) {
			for _, gap := range FreeGaps(DefaultPolicy().Band.On(day), busy) {
				if gap.Duration() >= duration {
					t.Fatalf("run %d: reported no availability but gap %s-%s fits %s", run, gap.Start, gap.End, duration)
				}
			}
			continue
		}
		if err != nil {
			t.Fatalf("run %d: unexpected error: %v", run, err)
		}
		if window.Duration() != duration {
			t.Fatalf("run %d: window length %s, want %s", run, window.Duration(), duration)
		}
		for _, item := range busy {
			if window.Overlaps(item) {
				t.Fatalf("run %d: window %s-%s overlaps busy %s-%s", run, window.Start, window.End, item.Start, item.End)
			}
		}
		for _, gap := range FreeGaps(DefaultPolicy().Band.On(day), busy) {
			if gap.Start.Before(window.Start) && gap.Duration() >= duration {
				t.Fatalf("run %d: earlier gap at %s was skipped", run, gap.Start)
			}
		}
	}
}

func TestFindSlotRespectsPreferredDays(t *testing.T) {
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	prefs := NewPreferences(0, 30, 0, nil, []time.Weekday{time.Thursday, time.Thursday})

	window, err := FindSlot(context.Background(), monday, 30*time.Minute, prefs, DefaultPolicy(), staticBusy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if window.Start.Weekday() != time.Thursday {
		t.Fatalf("expected Thursday, got %s", window.Start.Weekday())
	}
	if !window.Start.Equal(at(monday.AddDate(0, 0, 3), 6, 0)) {
		t.Fatalf("unexpected start %s", window.Start)
	}
}

func TestFindSlotPrefersTimeOfDayThenFallsBack(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	prefs := NewPreferences(0, 30, 0, []TimeOfDay{Evening}, nil)

	window, err := FindSlot(context.Background(), day, 30*time.Minute, prefs, DefaultPolicy(), staticBusy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !window.Start.Equal(at(day, 17, 0)) {
		t.Fatalf("expected evening slot, got %s", window.Start)
	}

	// 晚间被占满时同一天回落到 band 内最早的空闲
	busy := staticBusy(Interval{Start: at(day, 17, 0), End: at(day, 21, 0)})
	window, err = FindSlot(context.Background(), day, 30*time.Minute, prefs, DefaultPolicy(), busy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !window.Start.Equal(at(day, 6, 0)) {
		t.Fatalf("expected fallback to band start, got %s", window.Start)
	}
}

func TestFindSlotDoesNotStartBeforeFrom(t *testing.T) {
	from := time.Date(2026, 3, 2, 9, 17, 0, 0, time.UTC)

	window, err := FindSlot(context.Background(), from, 30*time.Minute, Preferences{}, DefaultPolicy(), staticBusy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !window.Start.Equal(from) {
		t.Fatalf("expected start at %s, got %s", from, window.Start)
	}

	late := time.Date(2026, 3, 2, 22, 0, 0, 0, time.UTC)
	window, err = FindSlot(context.Background(), late, 30*time.Minute, Preferences{}, DefaultPolicy(), staticBusy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !window.Start.Equal(time.Date(2026, 3, 3, 6, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected next morning, got %s", window.Start)
	}
}

func TestFindSlotHorizonExhausted(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	calls := 0
	busy := func(_ context.Context, dayStart, dayEnd time.Time) ([]Interval, error) {
		calls++
		return []Interval{{Start: dayStart, End: dayEnd}}, nil
	}

	_, err := FindSlot(context.Background(), day, 30*time.Minute, Preferences{}, DefaultPolicy(), busy)
	if !errors.Is(err, ErrNoAvailability) {
		t.Fatalf("expected ErrNoAvailability, got %v", err)
	}
	if calls != DefaultHorizonDays {
		t.Fatalf("expected %d day lookups, got %d", DefaultHorizonDays, calls)
	}
}

func TestFindSlotHonoursCancellation(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	busy := func(_ context.Context, dayStart, dayEnd time.Time) ([]Interval, error) {
		calls++
		if calls == 2 {
			cancel()
		}
		return []Interval{{Start: dayStart, End: dayEnd}}, nil
	}

	_, err := FindSlot(ctx, day, 30*time.Minute, Preferences{}, DefaultPolicy(), busy)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected scan to stop after 2 days, got %d", calls)
	}
}

func TestFindSlotPropagatesLookupError(t *testing.T) {
	lookupErr := errors.New("calendar offline")
	busy := func(context.Context, time.Time, time.Time) ([]Interval, error) {
		return nil, lookupErr
	}

	_, err := FindSlot(context.Background(), time.Now(), time.Minute, Preferences{}, DefaultPolicy(), busy)
	if !errors.Is(err, lookupErr) {
		t.Fatalf("expected lookup error, got %v", err)
	}

	if _, err := FindSlot(context.Background(), time.Now(), 0, Preferences{}, DefaultPolicy(), busy); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
}

func TestClockRangeUnmarshalText(t *testing.T) {
	var r ClockRange
	if err := r.UnmarshalText([]byte("06:30-21:00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Start != 6*time.Hour+30*time.Minute || r.End != 21*time.Hour {
		t.Fatalf("unexpected range %s", r)
	}
	if r.String() != "06:30-21:00" {
		t.Fatalf("unexpected string %q", r.String())
	}

	for _, invalid := range []string{"", "06:00", "21:00-06:00", "aa:00-07:00"} {
		if err := r.UnmarshalText([]byte(invalid)); err == nil {
			t.Fatalf("expected error for %q", invalid)
		}
	}
}
