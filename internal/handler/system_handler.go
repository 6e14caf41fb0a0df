package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jogcadence/internal/service"
)

// HealthCheck 检查数据库连接
func (a *API) HealthCheck(c *gin.Context) {
	sqlDB, err := a.db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "database handle unavailable",
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": "database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": "up",
	})
}

type systemSettingsRequest struct {
	CalendarAccess string  `json:"calendarAccess"`
	CompanionURL   *string `json:"companionUrl"`
}

// GetSystemSettings 返回日历授权与同步设置
func (a *API) GetSystemSettings(c *gin.Context) {
	settings, err := a.settings.GetSettings(c.Request.Context())
	if err != nil {
		handleScheduleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": systemSettingsPayload(settings)})
}

// UpdateSystemSettings 更新日历授权状态与手表端地址
// 手表端地址在服务重启后生效
func (a *API) UpdateSystemSettings(c *gin.Context) {
	var req systemSettingsRequest
	if !bindJSON(c, &req, message(c, "invalid settings payload", "设置参数无效")) {
		return
	}

	ctx := c.Request.Context()
	if strings.TrimSpace(req.CalendarAccess) != "" {
		granted, err := service.ParseCalendarAccess(req.CalendarAccess)
		if err != nil {
			respondError(c, http.StatusBadRequest, message(c, "calendarAccess must be granted or denied", "calendarAccess 只能是 granted 或 denied"))
			return
		}
		if err := a.settings.SetCalendarAccess(ctx, granted); err != nil {
			handleScheduleError(c, err)
			return
		}
	}
	if req.CompanionURL != nil {
		if err := a.settings.SetCompanionURL(ctx, *req.CompanionURL); err != nil {
			handleScheduleError(c, err)
			return
		}
	}

	settings, err := a.settings.GetSettings(ctx)
	if err != nil {
		handleScheduleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  message(c, "settings saved", "设置已保存"),
		"settings": systemSettingsPayload(settings),
	})
}

func systemSettingsPayload(settings service.Settings) gin.H {
	return gin.H{
		"calendarAccess": settings.CalendarAccess,
		"companionUrl":   settings.CompanionURL,
		"lastSyncAt":     formatOptionalTime(settings.LastSyncAt),
	}
}
