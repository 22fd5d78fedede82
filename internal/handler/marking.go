package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"RollCall/internal/model/dto"
	"RollCall/internal/service"
	"RollCall/pkg/response"
)

// MarkAttendance 学生打卡（签到/签退），课代表可携带 student_id 代操作
// POST /v1/sessions/:session_id/mark
func MarkAttendance(ctx context.Context, c *app.RequestContext) {
	a, ok := currentActor(ctx, c)
	if !ok {
		return
	}

	sessionID, ok := pathID(ctx, c, "session_id")
	if !ok {
		return
	}

	var req dto.MarkEntryRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Marking().MarkEntry(ctx, sessionID, a.ID, a.Role, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}
