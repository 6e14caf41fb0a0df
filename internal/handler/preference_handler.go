package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jogcadence/internal/db"
	"github.com/jogcadence/internal/service"
)

type preferenceRequest struct {
	PreJogMinutes  int      `json:"preJogMinutes"`
	JogMinutes     int      `json:"jogMinutes"`
	PostJogMinutes int      `json:"postJogMinutes"`
	TimesOfDay     []string `json:"timesOfDay"`
	Days           []string `json:"days"`
	Language       string   `json:"language"`
}

// GetPreferences 返回当前偏好
func (a *API) GetPreferences(c *gin.Context) {
	pref, err := a.preferences.Latest(c.Request.Context())
	if err != nil {
		handleScheduleError(c, err)
		return
	}
	c.JSON(http.StatusOK, preferenceToPayload(*pref))
}

// UpdatePreferences 覆盖当前偏好
func (a *API) UpdatePreferences(c *gin.Context) {
	var req preferenceRequest
	if !bindJSON(c, &req, message(c, "invalid preference payload", "偏好参数无效")) {
		return
	}

	pref, err := a.preferences.Update(c.Request.Context(), service.PreferenceInput{
		PreJogMinutes:  req.PreJogMinutes,
		JogMinutes:     req.JogMinutes,
		PostJogMinutes: req.PostJogMinutes,
		TimesOfDay:     req.TimesOfDay,
		Days:           req.Days,
		Language:       req.Language,
	})
	if err != nil {
		handleScheduleError(c, err)
		return
	}
	c.JSON(http.StatusOK, preferenceToPayload(*pref))
}

func preferenceToPayload(pref db.Preference) gin.H {
	times := splitCSV(pref.TimesOfDay)
	days := splitCSV(pref.Days)

	return gin.H{
		"preJogMinutes":  pref.PreJogMinutes,
		"jogMinutes":     pref.JogMinutes,
		"postJogMinutes": pref.PostJogMinutes,
		"totalMinutes":   pref.PreJogMinutes + pref.JogMinutes + pref.PostJogMinutes,
		"timesOfDay":     times,
		"days":           days,
		"language":       pref.Language,
		"updatedAt":      formatTime(pref.UpdatedAt),
	}
}

func splitCSV(raw string) []string {
	items := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
