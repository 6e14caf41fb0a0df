package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jogcadence/internal/config"
	"github.com/jogcadence/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// 2026-03-02 是周一
var handlerNow = time.Date(2026, 3, 2, 7, 30, 0, 0, time.UTC)

func setupTestAPI(t *testing.T) *API {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:handler-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := gdb.AutoMigrate(db.Models()...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	api := NewAPI(gdb, Options{
		Policy:   config.DefaultSchedulePolicy(),
		Location: time.UTC,
	})
	api.Scheduler().SetClock(func() time.Time { return handlerNow })
	return api
}

func newJSONContext(method, target string, payload any) (*gin.Context, *httptest.ResponseRecorder) {
	var body *bytes.Reader
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return c, w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return body
}

func createGoalViaAPI(t *testing.T, api *API, target int) map[string]any {
	t.Helper()

	c, w := newJSONContext(http.MethodPost, "/api/goals", map[string]any{"targetFrequency": target})
	api.CreateGoal(c)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	return decodeBody(t, w)
}

func firstSession(t *testing.T, body map[string]any) map[string]any {
	t.Helper()

	schedule, ok := body["schedule"].(map[string]any)
	if !ok {
		t.Fatalf("expected schedule in response, got %v", body)
	}
	sessions, ok := schedule["sessions"].([]any)
	if !ok || len(sessions) == 0 {
		t.Fatalf("expected scheduled sessions, got %v", schedule["sessions"])
	}
	return sessions[0].(map[string]any)
}
