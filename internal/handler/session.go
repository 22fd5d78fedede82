package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"RollCall/internal/model"
	"RollCall/internal/model/dto"
	"RollCall/internal/service"
	"RollCall/pkg/errors"
	"RollCall/pkg/response"
)

// CreateSession 课代表创建考勤场次
// POST /v1/sessions
func CreateSession(ctx context.Context, c *app.RequestContext) {
	a, ok := currentActor(ctx, c)
	if !ok {
		return
	}
	if a.Role != string(model.GroupRoleRep) {
		response.Error(ctx, c, errors.ForbiddenForRole)
		return
	}

	var req dto.CreateSessionRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Session().CreateSession(ctx, a.ID, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Created(ctx, c, result)
}

// GetSession 查询场次详情
// GET /v1/sessions/:session_id
func GetSession(ctx context.Context, c *app.RequestContext) {
	sessionID, ok := pathID(ctx, c, "session_id")
	if !ok {
		return
	}

	result, err := service.Session().GetSession(ctx, sessionID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// GetGroupSessions 按游标分页查询小组的考勤场次
// GET /v1/groups/:group_id/sessions
func GetGroupSessions(ctx context.Context, c *app.RequestContext) {
	groupID, ok := pathID(ctx, c, "group_id")
	if !ok {
		return
	}

	var query dto.GroupSessionsQuery
	if err := c.Bind(&query); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Session().GetGroupSessions(ctx, groupID, query)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// GetSessionTab 课代表视角的场次总览（全部学生记录与标记数）
// GET /v1/sessions/:session_id/tab
func GetSessionTab(ctx context.Context, c *app.RequestContext) {
	a, ok := currentActor(ctx, c)
	if !ok {
		return
	}
	if a.Role != string(model.GroupRoleRep) {
		response.Error(ctx, c, errors.ForbiddenForRole)
		return
	}

	sessionID, ok := pathID(ctx, c, "session_id")
	if !ok {
		return
	}

	result, err := service.Session().GetSessionTab(ctx, sessionID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// FinalizeSession 课代表手动结算场次，返回汇总统计
// POST /v1/sessions/:session_id/finalize
func FinalizeSession(ctx context.Context, c *app.RequestContext) {
	a, ok := currentActor(ctx, c)
	if !ok {
		return
	}
	if a.Role != string(model.GroupRoleRep) {
		response.Error(ctx, c, errors.ForbiddenForRole)
		return
	}

	sessionID, ok := pathID(ctx, c, "session_id")
	if !ok {
		return
	}

	result, err := service.Session().FinalizeSession(ctx, a.ID, sessionID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// DeleteSession 删除场次（仅创建者）
// DELETE /v1/sessions/:session_id
func DeleteSession(ctx context.Context, c *app.RequestContext) {
	a, ok := currentActor(ctx, c)
	if !ok {
		return
	}

	sessionID, ok := pathID(ctx, c, "session_id")
	if !ok {
		return
	}

	if err := service.Session().DeleteSession(ctx, a.ID, sessionID); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.NoContent(ctx, c)
}
