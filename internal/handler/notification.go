package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"RollCall/internal/model/dto"
	"RollCall/internal/service"
	"RollCall/pkg/response"
)

// ListNotifications 查询当前用户的站内通知
// GET /v1/notifications
func ListNotifications(ctx context.Context, c *app.RequestContext) {
	a, ok := currentActor(ctx, c)
	if !ok {
		return
	}

	var query dto.NotificationListQuery
	if err := c.Bind(&query); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Notification().ListNotifications(ctx, a.ID, query)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// MarkNotificationRead 标记通知为已读
// POST /v1/notifications/:notification_id/read
func MarkNotificationRead(ctx context.Context, c *app.RequestContext) {
	a, ok := currentActor(ctx, c)
	if !ok {
		return
	}

	notificationID, ok := pathID(ctx, c, "notification_id")
	if !ok {
		return
	}

	if err := service.Notification().MarkNotificationRead(ctx, a.ID, notificationID); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.NoContent(ctx, c)
}
