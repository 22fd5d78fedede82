package handler

import (
	"context"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"

	"RollCall/internal/middleware"
	"RollCall/pkg/errors"
	"RollCall/pkg/response"
)

// actor 当前请求的操作者
type actor struct {
	ID   int64
	Role string
}

// currentActor 从认证上下文解析操作者，失败时已写入错误响应
func currentActor(ctx context.Context, c *app.RequestContext) (actor, bool) {
	uid, ok := middleware.GetUserID(ctx, c)
	if !ok {
		response.Error(ctx, c, errors.Unauthorized)
		return actor{}, false
	}

	id, err := strconv.ParseInt(uid, 10, 64)
	if err != nil {
		response.Error(ctx, c, errors.InvalidUserID)
		return actor{}, false
	}

	return actor{ID: id, Role: middleware.GetUserRole(ctx, c)}, true
}

// pathID 解析路径中的数字 ID，失败时已写入错误响应
func pathID(ctx context.Context, c *app.RequestContext, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		response.Error(ctx, c, errors.WithMessage(errors.InvalidRequest, "Invalid path parameter: "+name))
		return 0, false
	}
	return id, true
}
