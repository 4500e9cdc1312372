package util

import (
	"context"
	"errors"
	"net/http"

	"skillforge_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

const (
	CodeIdentityNotLinked        = "IDENTITY_NOT_LINKED"
	CodeMalformedUpstreamPayload = "MALFORMED_UPSTREAM_PAYLOAD"
	CodeInvalidTransition        = "INVALID_TRANSITION"
	CodeUpstreamUnavailable      = "UPSTREAM_UNAVAILABLE"
	CodeUpstreamTimeout          = "UPSTREAM_TIMEOUT"
	CodeValidation               = "VALIDATION_ERROR"
	CodeNotFound                 = "NOT_FOUND"
	CodeUnauthenticated          = "UNAUTHENTICATED"
)

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func errorWithCode(c *gin.Context, status int, code, message string) {
	c.JSON(status, Response{
		Code:    status,
		Message: message,
		Error:   code,
	})
}

func Unauthorized(c *gin.Context) {
	errorWithCode(c, http.StatusUnauthorized, CodeUnauthenticated, "Unauthorized")
}

func BadRequest(c *gin.Context, message string) {
	errorWithCode(c, http.StatusBadRequest, CodeValidation, message)
}

func NotFound(c *gin.Context) {
	errorWithCode(c, http.StatusNotFound, CodeNotFound, "Resource not found")
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error",
		zap.Error(err),
		zap.String("path", c.FullPath()),
		zap.String("request_id", c.GetString(RequestIDKey)),
	)
	InternalServerError(c)
}

// RespondError 将组件错误映射为响应，是错误分类到 HTTP 的唯一转换点
func RespondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		Unauthorized(c)
	case errors.Is(err, ErrValidation):
		errorWithCode(c, http.StatusBadRequest, CodeValidation, err.Error())
	case errors.Is(err, ErrIdentityNotLinked):
		errorWithCode(c, http.StatusConflict, CodeIdentityNotLinked, "Connect your GitHub account before submitting a repository")
	case errors.Is(err, ErrMalformedPayload):
		logger.Log.Warn("Malformed upstream payload", zap.Error(err))
		errorWithCode(c, http.StatusBadGateway, CodeMalformedUpstreamPayload, "The assistant returned an unexpected response, please try again")
	case errors.Is(err, ErrUpstreamUnavailable):
		logger.Log.Warn("Upstream unavailable", zap.Error(err))
		if errors.Is(err, context.DeadlineExceeded) {
			errorWithCode(c, http.StatusGatewayTimeout, CodeUpstreamTimeout, "Upstream service timed out")
			return
		}
		errorWithCode(c, http.StatusBadGateway, CodeUpstreamUnavailable, "Upstream service unavailable")
	case errors.Is(err, ErrNotFound):
		NotFound(c)
	case errors.Is(err, ErrInvalidTransition):
		errorWithCode(c, http.StatusConflict, CodeInvalidTransition, err.Error())
	default:
		LogInternalError(c, err)
	}
}
