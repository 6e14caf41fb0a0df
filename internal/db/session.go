package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SessionKindPreJog  = "pre_jog"
	SessionKindJog     = "jog"
	SessionKindPostJog = "post_jog"

	SessionStatusIncomplete = "incomplete"
	SessionStatusCompleted  = "completed"
	SessionStatusMissed     = "missed"
)

// Session 记录一次外出中的单个分段
// 同一次外出的 1-3 个分段共享 BatchID，时间首尾相接
// EventRef 是日历侧事件的引用，日历事件先于本记录创建
type Session struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	GoalID      uuid.UUID `gorm:"type:uuid;index;not null"`
	BatchID     uuid.UUID `gorm:"type:uuid;index;not null"`
	StartTime   time.Time `gorm:"index"`
	EndTime     time.Time
	EventRef    string `gorm:"size:64;not null"`
	Kind        string `gorm:"size:20;not null"`
	Status      string `gorm:"size:20;not null;default:'incomplete';index"`
	Note        string `gorm:"type:text"`
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BeforeCreate 为新分段生成 UUID
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName 固定表名为 jog_sessions
func (Session) TableName() string {
	return "jog_sessions"
}
