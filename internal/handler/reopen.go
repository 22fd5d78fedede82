package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"RollCall/internal/model/dto"
	"RollCall/internal/service"
	"RollCall/pkg/response"
)

// ReopenSession 课代表重开已结束场次的补卡窗口
// POST /v1/sessions/:session_id/reopen
func ReopenSession(ctx context.Context, c *app.RequestContext) {
	a, ok := currentActor(ctx, c)
	if !ok {
		return
	}

	sessionID, ok := pathID(ctx, c, "session_id")
	if !ok {
		return
	}

	var req dto.ReopenSessionRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Reopen().ReopenSession(ctx, sessionID, a.ID, a.Role, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}
