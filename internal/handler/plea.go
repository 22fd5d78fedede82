package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"RollCall/internal/model/dto"
	"RollCall/internal/service"
	"RollCall/pkg/response"
)

// SubmitPlea 学生为自己的缺勤记录提交申诉
// POST /v1/sessions/:session_id/plea
func SubmitPlea(ctx context.Context, c *app.RequestContext) {
	a, ok := currentActor(ctx, c)
	if !ok {
		return
	}

	sessionID, ok := pathID(ctx, c, "session_id")
	if !ok {
		return
	}

	var req dto.SubmitPleaRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Plea().SubmitPlea(ctx, sessionID, a.ID, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Created(ctx, c, result)
}

// ReviewPlea 课代表审核学生申诉
// POST /v1/sessions/:session_id/records/:student_id/plea/review
func ReviewPlea(ctx context.Context, c *app.RequestContext) {
	a, ok := currentActor(ctx, c)
	if !ok {
		return
	}

	sessionID, ok := pathID(ctx, c, "session_id")
	if !ok {
		return
	}

	studentID, ok := pathID(ctx, c, "student_id")
	if !ok {
		return
	}

	var req dto.ReviewPleaRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Plea().ReviewPlea(ctx, sessionID, studentID, a.ID, a.Role, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}
