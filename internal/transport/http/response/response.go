package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 错误码与 HTTP 状态一致，成功为 0
const (
	CodeOK           = 0
	CodeBadRequest   = http.StatusBadRequest
	CodeUnauthorized = http.StatusUnauthorized
	CodeForbidden    = http.StatusForbidden
	CodeNotFound     = http.StatusNotFound
	CodeTooLarge     = http.StatusRequestEntityTooLarge
	CodeTooMany      = http.StatusTooManyRequests
	CodeServerError  = http.StatusInternalServerError
	CodeUnavailable  = http.StatusServiceUnavailable
	CodeTimeout      = http.StatusGatewayTimeout
)

// Resp 所有 JSON 接口的统一外壳
type Resp struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data"`
}

func text(code int) string {
	if code == CodeOK {
		return "OK"
	}
	if t := http.StatusText(code); t != "" {
		return t
	}
	return "Error"
}

// OK data 为 nil 时输出 {}
func OK(data any) Resp {
	if data == nil {
		data = struct{}{}
	}
	return Resp{Code: CodeOK, Msg: text(CodeOK), Data: data}
}

// Error msg 为空时用状态码的默认文案
func Error(code int, msg string) Resp {
	if msg == "" {
		msg = text(code)
	}
	return Resp{Code: code, Msg: msg, Data: struct{}{}}
}

// Abort 以 code 作为 HTTP 状态写错误响应并终止后续 handler
func Abort(c *gin.Context, code int, msg string) {
	status := code
	if http.StatusText(status) == "" {
		status = http.StatusInternalServerError
	}
	c.AbortWithStatusJSON(status, Error(code, msg))
}
