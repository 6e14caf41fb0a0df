package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/jogcadence/internal/companion"
	"github.com/jogcadence/internal/db"
)

// SyncService 处理手表端的快照拉取与回传
type SyncService struct {
	goals     *GoalService
	sessions  *SessionService
	scheduler *Scheduler
	now       func() time.Time
}

// SyncResult 描述一次回传的处理结果
type SyncResult struct {
	// Dropped 为 true 表示报文无法解析，已丢弃
	Dropped bool
	// Applied 为 true 表示报文导致了状态变化
	Applied    bool
	Completion *CompletionResult
	Session    *db.Session
}

// NewSyncService 构造 SyncService
func NewSyncService(goals *GoalService, sessions *SessionService, scheduler *Scheduler) *SyncService {
	return &SyncService{goals: goals, sessions: sessions, scheduler: scheduler, now: time.Now}
}

// Current 返回当前目标下最近一个未完成分段的快照；没有未完成分段时取最后一个分段
func (s *SyncService) Current(ctx context.Context) (companion.Snapshot, error) {
	goal, err := s.goals.Current(ctx)
	if err != nil {
		return companion.Snapshot{}, err
	}

	sessions, err := s.sessions.List(ctx, SessionFilter{GoalID: goal.ID})
	if err != nil {
		return companion.Snapshot{}, err
	}
	if len(sessions) == 0 {
		return companion.Snapshot{}, ErrSessionNotFound
	}

	selected := sessions[len(sessions)-1]
	for _, session := range sessions {
		if session.Status == db.SessionStatusIncomplete {
			selected = session
			break
		}
	}

	return companion.FromModels(selected, *goal, s.now().UTC()), nil
}

// Apply 处理手表端回传的快照；无法解析的报文记录日志后丢弃，不做部分应用
func (s *SyncService) Apply(ctx context.Context, payload []byte) (*SyncResult, error) {
	snapshot, err := companion.Decode(payload)
	if err != nil {
		log.Printf("[sync] drop inbound snapshot: %v", err)
		companion.LogPayload("inbound", string(payload))
		return &SyncResult{Dropped: true}, nil
	}

	sessionID, err := snapshot.SessionID()
	if err != nil {
		log.Printf("[sync] drop inbound snapshot: %v", err)
		return &SyncResult{Dropped: true}, nil
	}

	switch snapshot.SessionStatus {
	case db.SessionStatusCompleted:
		completion, err := s.scheduler.MarkComplete(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		return &SyncResult{Applied: !completion.AlreadyCompleted, Completion: completion, Session: &completion.Session}, nil
	case db.SessionStatusMissed:
		session, err := s.scheduler.MarkMissed(ctx, sessionID)
		if err != nil {
			if errors.Is(err, ErrSessionClosed) {
				log.Printf("[sync] ignore missed report for completed session %s", sessionID)
				return &SyncResult{}, nil
			}
			return nil, err
		}
		return &SyncResult{Applied: true, Session: session}, nil
	default:
		session, err := s.sessions.Get(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		return &SyncResult{Session: session}, nil
	}
}
