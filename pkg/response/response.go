package response

import (
	"context"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"

	"RollCall/pkg/errors"
)

// ErrorResponse 统一的错误响应格式
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SuccessResponse 统一的成功响应格式
type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// statusByCode 业务错误码到 HTTP 状态码的映射，不在表里的码一律 500
var statusByCode = map[string]int{
	"MISSING_FIELDS":          http.StatusBadRequest,
	"INVALID_TIME_RANGE":      http.StatusBadRequest,
	"INVALID_ENTRY_WINDOW":    http.StatusBadRequest,
	"INVALID_LOCATION":        http.StatusBadRequest,
	"INVALID_MARK_MODE":       http.StatusBadRequest,
	"INVALID_REOPEN_DURATION": http.StatusBadRequest,
	"INVALID_PLEA_STATUS":     http.StatusBadRequest,
	"INVALID_USER_ID":         http.StatusBadRequest,
	"INVALID_REQUEST":         http.StatusBadRequest,

	"UNAUTHORIZED": http.StatusUnauthorized,

	"FORBIDDEN_FOR_ROLE":     http.StatusForbidden,
	"ATTENDANCE_CLOSED":      http.StatusForbidden,
	"ATTENDANCE_UPCOMING":    http.StatusForbidden,
	"NOT_ALLOWED_TO_MARK":    http.StatusForbidden,
	"CHECK_OUT_DISABLED":     http.StatusForbidden,
	"TOO_EARLY_CHECKIN":      http.StatusForbidden,
	"TOO_LATE_CHECKIN":       http.StatusForbidden,
	"TOO_EARLY_CHECKOUT":     http.StatusForbidden,
	"TOO_LATE_CHECKOUT":      http.StatusForbidden,
	"SHORT_DURATION":         http.StatusForbidden,
	"PROOF_REQUIRED":         http.StatusForbidden,
	"LATE_JOINER_DENIED":     http.StatusForbidden,
	"REOPEN_FORBIDDEN":       http.StatusForbidden,
	"REOPEN_EXPIRED":         http.StatusForbidden,
	"REOPEN_FRESH_DENIED":    http.StatusForbidden,
	"REOPEN_CHECKOUT_DENIED": http.StatusForbidden,
	"REOPEN_GEO_REJECTED":    http.StatusForbidden,
	"NOT_REOPENED":           http.StatusForbidden,

	"ATTENDANCE_NOT_FOUND": http.StatusNotFound,
	"GROUP_NOT_FOUND":      http.StatusNotFound,
	"SCHEDULE_NOT_FOUND":   http.StatusNotFound,
	"RECORD_NOT_FOUND":     http.StatusNotFound,
	"PLEA_NOT_SUBMITTED":   http.StatusNotFound,

	"ATTENDANCE_EXISTS":       http.StatusConflict,
	"ALREADY_CHECKED_IN":      http.StatusConflict,
	"ALREADY_CHECKED_OUT":     http.StatusConflict,
	"CHECK_IN_REQUIRED":       http.StatusConflict,
	"REOPEN_ALREADY_COMPLETE": http.StatusConflict,
	"PLEA_ALREADY_REVIEWED":   http.StatusConflict,
	"FINALIZE_IN_PROGRESS":    http.StatusConflict,

	"TOO_MANY_REQUESTS": http.StatusTooManyRequests,
}

func writeError(c *app.RequestContext, err error, details map[string]interface{}) {
	status := http.StatusInternalServerError
	code, message := "INTERNAL_ERROR", err.Error()

	if def, ok := err.(errors.Definition); ok {
		code, message = def.Code, def.Message
		if s, mapped := statusByCode[def.Code]; mapped {
			status = s
		}
	}

	c.JSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// Error 返回错误响应，状态码由业务错误码决定
func Error(ctx context.Context, c *app.RequestContext, err error) {
	writeError(c, err, nil)
}

// ErrorWithDetails 返回带附加字段的错误响应（如校验失败的字段列表）
func ErrorWithDetails(ctx context.Context, c *app.RequestContext, err error, details map[string]interface{}) {
	writeError(c, err, details)
}

// BindError 请求体解析或参数绑定失败时的 400 响应
func BindError(ctx context.Context, c *app.RequestContext, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: ErrorDetail{
			Code:    "INVALID_REQUEST",
			Message: err.Error(),
		},
	})
}

func Success(ctx context.Context, c *app.RequestContext, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{Data: data})
}

func Created(ctx context.Context, c *app.RequestContext, data interface{}) {
	c.JSON(http.StatusCreated, SuccessResponse{Data: data})
}

// NoContent 返回 204，用于 DELETE 等没有响应体的操作
func NoContent(ctx context.Context, c *app.RequestContext) {
	c.Status(http.StatusNoContent)
}
