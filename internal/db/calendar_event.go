package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CalendarEvent 是本地日历中的事件，既包括跑步分段也包括用户的其他安排
type CalendarEvent struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title     string    `gorm:"size:200"`
	StartTime time.Time `gorm:"index"`
	EndTime   time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BeforeCreate 为新事件生成 UUID
func (e *CalendarEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
