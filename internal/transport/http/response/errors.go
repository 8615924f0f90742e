package response

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wedding-venues-api/internal/domain"
)

const HeaderRequestID = "X-Request-ID"

// RequestID 由 middleware.RequestID 写入；未挂中间件时为空
func RequestID(c *gin.Context) string { return c.GetString(HeaderRequestID) }

// Status 领域错误到 HTTP 状态；未知错误为 500
func Status(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, domain.ErrUnauthenticated),
		errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrPaymentRequired):
		return CodeUnauthorized
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrDuplicateEmail),
		errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrInvalidSignature):
		return CodeBadRequest
	default:
		return CodeServerError
	}
}

// Fail 统一错误出口；500 只回通用文案，细节进日志
func Fail(c *gin.Context, l *zap.Logger, err error) {
	code := Status(err)
	msg := domain.Message(err)
	if code == CodeServerError {
		if l != nil {
			l.Error("request failed",
				zap.String("rid", RequestID(c)),
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
				zap.Error(err),
			)
		}
		msg = ""
	}
	Abort(c, code, msg)
}
