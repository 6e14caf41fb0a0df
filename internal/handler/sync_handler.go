package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

const maxSnapshotBytes = 64 << 10

// GetSnapshot 供手表端拉取当前分段与目标状态
func (a *API) GetSnapshot(c *gin.Context) {
	snapshot, err := a.sync.Current(c.Request.Context())
	if err != nil {
		handleScheduleError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// PushSnapshot 接收手表端回传；无法解析的报文被丢弃并返回 202
func (a *API) PushSnapshot(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSnapshotBytes))
	if err != nil {
		respondError(c, http.StatusBadRequest, message(c, "failed to read body", "读取请求失败"))
		return
	}

	result, err := a.sync.Apply(c.Request.Context(), payload)
	if err != nil {
		handleScheduleError(c, err)
		return
	}

	body := gin.H{
		"dropped": result.Dropped,
		"applied": result.Applied,
	}
	if result.Session != nil {
		body["session"] = sessionToPayload(*result.Session)
	}
	if result.Completion != nil {
		body["goal"] = goalToPayload(result.Completion.Goal)
		body["goalCompleted"] = result.Completion.GoalCompleted
	}
	c.JSON(http.StatusAccepted, body)
}
