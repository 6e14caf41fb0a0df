package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	GoalStatusInProgress = "in_progress"
	GoalStatusCompleted  = "completed"
)

// Goal 定义每周跑步目标
// 周期为 [StartDate, EndDate)，Progress 不超过 TargetFrequency
// 用户修改目标参数时旧记录不会删除，而是写入 SupersededAt/SupersededByID
type Goal struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	TargetFrequency int       `gorm:"not null"`
	StartDate       time.Time `gorm:"index"`
	EndDate         time.Time
	Progress        int        `gorm:"not null;default:0"`
	Status          string     `gorm:"size:20;not null;default:'in_progress';index"`
	CompletedAt     *time.Time
	SupersededAt    *time.Time
	SupersededByID  *uuid.UUID `gorm:"type:uuid"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// BeforeCreate 为新目标生成 UUID
func (g *Goal) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// IsCompleted 判断目标是否已达成
func (g Goal) IsCompleted() bool {
	return g.Status == GoalStatusCompleted
}

// IsSuperseded 判断目标是否已被新周期替代
func (g Goal) IsSuperseded() bool {
	return g.SupersededAt != nil
}
