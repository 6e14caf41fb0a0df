package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jogcadence/internal/companion"
	"github.com/jogcadence/internal/schedule"
	"github.com/jogcadence/internal/service"
)

func handleScheduleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAccessDenied):
		respondError(c, http.StatusForbidden, message(c, "calendar access not granted", "日历未授权"))
	case errors.Is(err, service.ErrNoAvailability):
		respondError(c, http.StatusConflict, message(c, "no free slot in the next days", "近期没有足够的空闲时间"))
	case errors.Is(err, service.ErrGoalNotFound):
		respondError(c, http.StatusNotFound, message(c, "goal not found", "目标不存在"))
	case errors.Is(err, service.ErrSessionNotFound):
		respondError(c, http.StatusNotFound, message(c, "session not found", "跑步安排不存在"))
	case errors.Is(err, service.ErrInvalidReschedule):
		respondError(c, http.StatusBadRequest, message(c, "start must be before end", "开始时间必须早于结束时间"))
	case errors.Is(err, schedule.ErrInvalidPreferences):
		respondError(c, http.StatusBadRequest, message(c, "invalid preferences", "偏好设置无效"))
	case errors.Is(err, schedule.ErrInvalidGoal):
		respondError(c, http.StatusBadRequest, message(c, "invalid goal", "目标参数无效"))
	case errors.Is(err, companion.ErrInvalidToken):
		respondError(c, http.StatusBadRequest, message(c, "invalid token", "令牌无效"))
	case errors.Is(err, service.ErrInconsistentState):
		respondError(c, http.StatusConflict, message(c, "session and calendar are out of sync, rebuild the schedule", "日历与安排不一致，请重建日程"))
	case errors.Is(err, service.ErrGoalClosed):
		respondError(c, http.StatusConflict, message(c, "goal is completed or replaced", "目标已完成或已被替换"))
	case errors.Is(err, service.ErrGoalActive):
		respondError(c, http.StatusConflict, message(c, "current period is still running", "当前周期尚未结束"))
	case errors.Is(err, service.ErrSessionClosed):
		respondError(c, http.StatusConflict, message(c, "session already completed", "该安排已完成"))
	default:
		log.Printf("[handler] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		respondError(c, http.StatusInternalServerError, message(c, "operation failed", "操作失败"))
	}
}
