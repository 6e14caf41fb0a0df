package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jogcadence/internal/companion"
	"github.com/jogcadence/internal/db"
	"github.com/jogcadence/internal/service"
)

type rescheduleRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type noteRequest struct {
	Note string `json:"note"`
}

// ListSessions 支持 goal/status/from/to 过滤
func (a *API) ListSessions(c *gin.Context) {
	filter := service.SessionFilter{Status: strings.TrimSpace(c.Query("status"))}

	if raw := strings.TrimSpace(c.Query("goal")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, message(c, "invalid goal id", "目标 ID 无效"))
			return
		}
		filter.GoalID = id
	}
	if raw := c.Query("from"); raw != "" {
		from, ok := parseTimeValue(raw)
		if !ok {
			respondError(c, http.StatusBadRequest, message(c, "invalid from time", "开始时间格式无效"))
			return
		}
		filter.From = from
	}
	if raw := c.Query("to"); raw != "" {
		to, ok := parseTimeValue(raw)
		if !ok {
			respondError(c, http.StatusBadRequest, message(c, "invalid to time", "结束时间格式无效"))
			return
		}
		filter.To = to
	}

	sessions, err := a.sessions.List(c.Request.Context(), filter)
	if err != nil {
		handleScheduleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": serializeSessions(sessions)})
}

// GetSession 返回单个分段，备注渲染为 HTML
func (a *API) GetSession(c *gin.Context) {
	id, ok := a.sessionID(c)
	if !ok {
		return
	}

	session, err := a.sessions.Get(c.Request.Context(), id)
	if err != nil {
		handleScheduleError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionWithNote(*session))
}

// CompleteSession 标记分段完成
func (a *API) CompleteSession(c *gin.Context) {
	id, ok := a.sessionID(c)
	if !ok {
		return
	}

	result, err := a.scheduler.MarkComplete(c.Request.Context(), id)
	if err != nil {
		handleScheduleError(c, err)
		return
	}

	payload := gin.H{
		"session":          sessionToPayload(result.Session),
		"goal":             goalToPayload(result.Goal),
		"counted":          result.Counted,
		"goalCompleted":    result.GoalCompleted,
		"alreadyCompleted": result.AlreadyCompleted,
	}
	if result.Next != nil {
		payload["next"] = scheduleResultToPayload(result.Next)
	}
	if result.NextError != "" {
		payload["scheduleError"] = result.NextError
	}
	c.JSON(http.StatusOK, payload)
}

// MissSession 标记分段错过
func (a *API) MissSession(c *gin.Context) {
	id, ok := a.sessionID(c)
	if !ok {
		return
	}

	session, err := a.scheduler.MarkMissed(c.Request.Context(), id)
	if err != nil {
		handleScheduleError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionToPayload(*session))
}

// RescheduleSession 修改单个分段的起止时间
func (a *API) RescheduleSession(c *gin.Context) {
	id, ok := a.sessionID(c)
	if !ok {
		return
	}

	var req rescheduleRequest
	if !bindJSON(c, &req, message(c, "invalid reschedule payload", "改期参数无效")) {
		return
	}
	start, okStart := parseTimeValue(req.Start)
	end, okEnd := parseTimeValue(req.End)
	if !okStart || !okEnd {
		respondError(c, http.StatusBadRequest, message(c, "start and end must be RFC3339 times", "开始与结束时间需为 RFC3339 格式"))
		return
	}

	session, err := a.scheduler.Reschedule(c.Request.Context(), id, start.In(a.location), end.In(a.location))
	if err != nil {
		handleScheduleError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionToPayload(*session))
}

// UpdateSessionNote 保存分段备注
func (a *API) UpdateSessionNote(c *gin.Context) {
	id, ok := a.sessionID(c)
	if !ok {
		return
	}

	var req noteRequest
	if !bindJSON(c, &req, message(c, "invalid note payload", "备注参数无效")) {
		return
	}

	session, err := a.sessions.UpdateNote(c.Request.Context(), id, req.Note)
	if err != nil {
		handleScheduleError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionWithNote(*session))
}

// sessionID 同时接受 UUID 与手表端令牌
func (a *API) sessionID(c *gin.Context) (uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Param("id"))
	if id, err := uuid.Parse(raw); err == nil {
		return id, true
	}
	if id, err := companion.DecodeToken(raw); err == nil {
		return id, true
	}
	respondError(c, http.StatusBadRequest, message(c, "invalid session id", "安排 ID 无效"))
	return uuid.Nil, false
}

func sessionToPayload(session db.Session) gin.H {
	return gin.H{
		"id":          session.ID.String(),
		"token":       companion.EncodeToken(session.ID),
		"goalId":      session.GoalID.String(),
		"batchId":     session.BatchID.String(),
		"kind":        session.Kind,
		"status":      session.Status,
		"start":       formatTime(session.StartTime),
		"end":         formatTime(session.EndTime),
		"eventRef":    session.EventRef,
		"note":        session.Note,
		"completedAt": formatOptionalTime(session.CompletedAt),
	}
}

func sessionWithNote(session db.Session) gin.H {
	payload := sessionToPayload(session)
	if html, err := service.RenderNote(session.Note); err == nil {
		payload["noteHtml"] = string(html)
	}
	return payload
}

func serializeSessions(sessions []db.Session) []gin.H {
	items := make([]gin.H, 0, len(sessions))
	for _, session := range sessions {
		items = append(items, sessionToPayload(session))
	}
	return items
}
