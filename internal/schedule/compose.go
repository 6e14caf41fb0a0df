package schedule

import (
	"errors"
	"fmt"
	"time"
)

// ErrWindowTooShort 窗口不足以容纳全部分段
var ErrWindowTooShort = errors.New("window shorter than composed duration")

// SessionSpec 描述待创建的一个分段，只包含类型与起止时间
type SessionSpec struct {
	Kind  Kind
	Start time.Time
	End   time.Time
}

// Duration 返回分段时长
func (s SessionSpec) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// ComposeSessions 从窗口起点开始依次排布热身、主跑、拉伸，
// 时长为 0 的分段被跳过，相邻分段首尾相接。
func ComposeSessions(window TimeWindow, prefs Preferences) ([]SessionSpec, error) {
	if err := prefs.Validate(); err != nil {
		return nil, err
	}

	total := prefs.TotalDuration()
	if window.Duration() < total {
		return nil, fmt.Errorf("%w: need %s, window is %s", ErrWindowTooShort, total, window.Duration())
	}

	legs := []struct {
		kind     Kind
		duration time.Duration
	}{
		{KindPreJog, prefs.PreJog},
		{KindJog, prefs.Jog},
		{KindPostJog, prefs.PostJog},
	}

	specs := make([]SessionSpec, 0, len(legs))
	cursor := window.Start
	for _, leg := range legs {
		if leg.duration <= 0 {
			continue
		}
		end := cursor.Add(leg.duration)
		specs = append(specs, SessionSpec{Kind: leg.kind, Start: cursor, End: end})
		cursor = end
	}

	return specs, nil
}
