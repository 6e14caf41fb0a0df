package db

import "gorm.io/gorm"

const (
	DefaultPreJogMinutes  = 10
	DefaultJogMinutes     = 30
	DefaultPostJogMinutes = 5
)

// Preference 存储跑步偏好，始终以最近更新的一条为准
// TimesOfDay/Days 以逗号分隔保存，例如 "morning,evening" / "mon,wed,fri"
type Preference struct {
	gorm.Model
	PreJogMinutes  int
	JogMinutes     int `gorm:"not null"`
	PostJogMinutes int
	TimesOfDay     string `gorm:"size:100"`
	Days           string `gorm:"size:100"`
	Language       string `gorm:"size:10"`
}

// DefaultPreference 首次使用时的默认偏好
func DefaultPreference() Preference {
	return Preference{
		PreJogMinutes:  DefaultPreJogMinutes,
		JogMinutes:     DefaultJogMinutes,
		PostJogMinutes: DefaultPostJogMinutes,
	}
}
