package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jogcadence/internal/companion"
	"github.com/jogcadence/internal/db"
	"github.com/jogcadence/internal/service"
)

type goalRequest struct {
	TargetFrequency int `json:"targetFrequency"`
	PeriodDays      int `json:"periodDays"`
}

// CreateGoal 创建周目标并安排第一次外出
func (a *API) CreateGoal(c *gin.Context) {
	var req goalRequest
	if !bindJSON(c, &req, message(c, "invalid goal payload", "目标参数无效")) {
		return
	}

	result, err := a.scheduler.CreateGoal(c.Request.Context(), req.TargetFrequency, req.PeriodDays)
	if err != nil {
		handleScheduleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, goalResultToPayload(result))
}

// GetCurrentGoal 返回当前目标及其分段
func (a *API) GetCurrentGoal(c *gin.Context) {
	ctx := c.Request.Context()

	goal, err := a.goals.Current(ctx)
	if err != nil {
		handleScheduleError(c, err)
		return
	}

	sessions, err := a.sessions.List(ctx, service.SessionFilter{GoalID: goal.ID})
	if err != nil {
		handleScheduleError(c, err)
		return
	}

	payload := goalToPayload(*goal)
	payload["sessions"] = serializeSessions(sessions)
	c.JSON(http.StatusOK, payload)
}

// ListGoals 返回历史目标
func (a *API) ListGoals(c *gin.Context) {
	goals, err := a.goals.List(c.Request.Context(), c.Query("all") == "true")
	if err != nil {
		handleScheduleError(c, err)
		return
	}

	items := make([]gin.H, 0, len(goals))
	for _, goal := range goals {
		items = append(items, goalToPayload(goal))
	}
	c.JSON(http.StatusOK, gin.H{"goals": items})
}

// EditGoal 修改目标参数，旧目标被替代
func (a *API) EditGoal(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, message(c, "invalid goal id", "目标 ID 无效"))
		return
	}

	var req goalRequest
	if !bindJSON(c, &req, message(c, "invalid goal payload", "目标参数无效")) {
		return
	}

	result, err := a.scheduler.EditGoal(c.Request.Context(), id, service.GoalEdit{
		TargetFrequency: req.TargetFrequency,
		PeriodDays:      req.PeriodDays,
	})
	if err != nil {
		handleScheduleError(c, err)
		return
	}
	c.JSON(http.StatusOK, goalResultToPayload(result))
}

// StartNewPeriod 在目标完成或到期后开启新周期
func (a *API) StartNewPeriod(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, message(c, "invalid goal id", "目标 ID 无效"))
		return
	}

	var req goalRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req, message(c, "invalid goal payload", "目标参数无效")) {
		return
	}

	result, err := a.scheduler.StartNewPeriod(c.Request.Context(), id, req.TargetFrequency)
	if err != nil {
		handleScheduleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, goalResultToPayload(result))
}

// ScheduleNext 为目标安排下一次外出
func (a *API) ScheduleNext(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, message(c, "invalid goal id", "目标 ID 无效"))
		return
	}

	result, err := a.scheduler.ScheduleNext(c.Request.Context(), id)
	if err != nil {
		handleScheduleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, scheduleResultToPayload(result))
}

// RebuildSchedule 删除目标的全部分段后重新调度
func (a *API) RebuildSchedule(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, message(c, "invalid goal id", "目标 ID 无效"))
		return
	}

	result, err := a.scheduler.WipeAndRebuild(c.Request.Context(), id)
	if err != nil {
		handleScheduleError(c, err)
		return
	}
	c.JSON(http.StatusOK, scheduleResultToPayload(result))
}

func goalToPayload(goal db.Goal) gin.H {
	payload := gin.H{
		"id":              goal.ID.String(),
		"token":           companion.EncodeToken(goal.ID),
		"targetFrequency": goal.TargetFrequency,
		"progress":        goal.Progress,
		"status":          goal.Status,
		"startDate":       formatTime(goal.StartDate),
		"endDate":         formatTime(goal.EndDate),
		"completedAt":     formatOptionalTime(goal.CompletedAt),
		"superseded":      goal.IsSuperseded(),
	}
	if goal.SupersededByID != nil {
		payload["supersededBy"] = goal.SupersededByID.String()
	}
	return payload
}

func goalResultToPayload(result *service.GoalResult) gin.H {
	payload := gin.H{"goal": goalToPayload(result.Goal)}
	if result.Schedule != nil {
		payload["schedule"] = scheduleResultToPayload(result.Schedule)
	}
	if result.NextError != "" {
		payload["scheduleError"] = result.NextError
	}
	return payload
}

func scheduleResultToPayload(result *service.ScheduleResult) gin.H {
	return gin.H{
		"goalId":   result.GoalID.String(),
		"batchId":  result.BatchID.String(),
		"start":    formatTime(result.Window.Start),
		"end":      formatTime(result.Window.End),
		"sessions": serializeSessions(result.Sessions),
	}
}
