package router

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/jogcadence/internal/handler"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(sessionSecret string, api *handler.API) *gin.Engine {
	r := gin.Default()

	if sessionSecret == "" {
		sessionSecret = "jogcadence-dev-session-secret"
	}
	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("jogcadence_session", store))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	r.GET("/healthz", api.HealthCheck)

	auth := r.Group("/api/auth")
	{
		auth.POST("/login", api.Login)
		auth.POST("/logout", api.Logout)
	}

	// 需要认证的路由：会话或 Bearer 令牌
	protected := r.Group("/api")
	protected.Use(api.AuthRequired())
	{
		protected.POST("/auth/token", api.IssueToken)

		protected.GET("/preferences", api.GetPreferences)
		protected.PUT("/preferences", api.UpdatePreferences)

		protected.GET("/settings", api.GetSystemSettings)
		protected.PUT("/settings", api.UpdateSystemSettings)

		protected.GET("/goals", api.ListGoals)
		protected.POST("/goals", api.CreateGoal)
		protected.GET("/goals/current", api.GetCurrentGoal)
		protected.PUT("/goals/:id", api.EditGoal)
		protected.POST("/goals/:id/new-period", api.StartNewPeriod)
		protected.POST("/goals/:id/schedule", api.ScheduleNext)
		protected.POST("/goals/:id/rebuild", api.RebuildSchedule)

		protected.GET("/sessions", api.ListSessions)
		protected.GET("/sessions/:id", api.GetSession)
		protected.POST("/sessions/:id/complete", api.CompleteSession)
		protected.POST("/sessions/:id/miss", api.MissSession)
		protected.PUT("/sessions/:id/schedule", api.RescheduleSession)
		protected.PUT("/sessions/:id/note", api.UpdateSessionNote)

		protected.GET("/sync/snapshot", api.GetSnapshot)
		protected.POST("/sync/snapshot", api.PushSnapshot)
	}

	return r
}
