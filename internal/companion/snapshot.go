// Package companion 负责与手表端之间的状态同步：扁平快照、不透明令牌与 HTTP 推送通道。
package companion

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jogcadence/internal/db"
)

// SnapshotVersion 当前快照格式版本
const SnapshotVersion = 1

// ErrInvalidSnapshot 快照格式或字段不合法
var ErrInvalidSnapshot = errors.New("invalid companion snapshot")

// Snapshot 是推送给手表端的扁平记录，只包含基础类型
type Snapshot struct {
	Version       int       `json:"v"`
	SessionToken  string    `json:"session"`
	SessionStart  time.Time `json:"session_start"`
	SessionEnd    time.Time `json:"session_end"`
	SessionKind   string    `json:"session_kind"`
	SessionStatus string    `json:"session_status"`
	GoalToken     string    `json:"goal"`
	GoalTarget    int       `json:"goal_target"`
	GoalProgress  int       `json:"goal_progress"`
	GoalStatus    string    `json:"goal_status"`
	GoalStart     time.Time `json:"goal_start"`
	GoalEnd       time.Time `json:"goal_end"`
	SentAt        time.Time `json:"sent_at"`
}

// FromModels 由分段与目标生成快照
func FromModels(session db.Session, goal db.Goal, sentAt time.Time) Snapshot {
	return Snapshot{
		Version:       SnapshotVersion,
		SessionToken:  EncodeToken(session.ID),
		SessionStart:  session.StartTime,
		SessionEnd:    session.EndTime,
		SessionKind:   session.Kind,
		SessionStatus: session.Status,
		GoalToken:     EncodeToken(goal.ID),
		GoalTarget:    goal.TargetFrequency,
		GoalProgress:  goal.Progress,
		GoalStatus:    goal.Status,
		GoalStart:     goal.StartDate,
		GoalEnd:       goal.EndDate,
		SentAt:        sentAt,
	}
}

// Validate 校验版本、令牌与枚举字段
func (s Snapshot) Validate() error {
	if s.Version != SnapshotVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidSnapshot, s.Version)
	}
	if _, err := DecodeToken(s.SessionToken); err != nil {
		return fmt.Errorf("%w: session token: %w", ErrInvalidSnapshot, err)
	}
	if s.GoalToken != "" {
		if _, err := DecodeToken(s.GoalToken); err != nil {
			return fmt.Errorf("%w: goal token: %w", ErrInvalidSnapshot, err)
		}
	}

	switch s.SessionStatus {
	case db.SessionStatusIncomplete, db.SessionStatusCompleted, db.SessionStatusMissed:
	default:
		return fmt.Errorf("%w: unknown session status %q", ErrInvalidSnapshot, s.SessionStatus)
	}

	switch s.SessionKind {
	case "", db.SessionKindPreJog, db.SessionKindJog, db.SessionKindPostJog:
	default:
		return fmt.Errorf("%w: unknown session kind %q", ErrInvalidSnapshot, s.SessionKind)
	}
	return nil
}

// SessionID 返回快照指向的分段 ID
func (s Snapshot) SessionID() (uuid.UUID, error) {
	return DecodeToken(s.SessionToken)
}

// Decode 解析并校验手表端发来的快照，失败时不返回部分结果
func Decode(data []byte) (Snapshot, error) {
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	if err := snapshot.Validate(); err != nil {
		return Snapshot{}, err
	}
	return snapshot, nil
}
