package db

import "gorm.io/gorm"

// SystemSetting 存储可配置的系统级键值对。
type SystemSetting struct {
	gorm.Model
	Key   string `gorm:"size:100;uniqueIndex;not null"`
	Value string `gorm:"type:text"`
}

// TableName 自定义表名以保持命名一致。
func (SystemSetting) TableName() string {
	return "system_settings"
}

const (
	// SettingKeyCalendarAccess 表示日历访问授权，取值 granted/denied。
	SettingKeyCalendarAccess = "calendar_access"
	// SettingKeyCompanionURL 表示手表端同步地址。
	SettingKeyCompanionURL = "companion_url"
	// SettingKeyLastSyncAt 记录最近一次成功推送的时间。
	SettingKeyLastSyncAt = "companion_last_sync_at"
)
