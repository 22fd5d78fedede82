package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"

	"RollCall/internal/handler"
	"RollCall/internal/middleware"
)

func Register(h *server.Hertz) {

	h.Use(middleware.RecoverMiddleware())
	h.Use(middleware.CORSMiddleware())
	h.Use(middleware.OpenTelemetryMiddleware())

	v1 := h.Group("/v1")

	// 认证相关路由
	auth := v1.Group("/auth")
	auth.Use(middleware.AuthRateLimitMiddleware()) // 认证接口限流
	{
		auth.POST("/token/refresh", handler.RefreshToken)
	}

	// 考勤场次路由
	sessions := v1.Group("/sessions")
	sessions.Use(middleware.AuthMiddleware())
	{
		sessions.POST("", handler.CreateSession)
		sessions.GET("/:session_id", handler.GetSession)
		sessions.GET("/:session_id/tab", handler.GetSessionTab)
		sessions.DELETE("/:session_id", handler.DeleteSession)

		// 打卡与补卡窗口
		sessions.POST("/:session_id/mark", middleware.MarkRateLimitMiddleware(), handler.MarkAttendance)
		sessions.POST("/:session_id/finalize", handler.FinalizeSession)
		sessions.POST("/:session_id/reopen", middleware.ReopenRateLimitMiddleware(), handler.ReopenSession)

		// 缺勤申诉
		sessions.POST("/:session_id/plea", handler.SubmitPlea)
		sessions.POST("/:session_id/records/:student_id/plea/review", handler.ReviewPlea)
	}

	// 小组视角的场次列表
	groups := v1.Group("/groups")
	groups.Use(middleware.AuthMiddleware())
	{
		groups.GET("/:group_id/sessions", handler.GetGroupSessions)
	}

	// 站内通知路由
	notifications := v1.Group("/notifications")
	notifications.Use(middleware.AuthMiddleware())
	{
		notifications.GET("", handler.ListNotifications)
		notifications.POST("/:notification_id/read", handler.MarkNotificationRead)
	}
}
