package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	resp "wedding-venues-api/internal/transport/http/response"
)

const KeyRequestID = resp.HeaderRequestID

// RequestID 透传上游 id；缺失或含非法字符时重新生成，防止日志注入
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(KeyRequestID)
		if !validRequestID(rid) {
			rid = uuid.NewString()
		}
		c.Header(KeyRequestID, rid)
		c.Set(KeyRequestID, rid)
		c.Next()
	}
}

func validRequestID(s string) bool {
	if s == "" || len(s) > 128 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return false
		}
	}
	return true
}
