package middleware

import (
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// query 中需要打码的 key，小写比较
var sensitiveQueryKeys = map[string]struct{}{
	"password": {}, "repeatpassword": {}, "token": {}, "emailtoken": {},
	"x-auth-token": {}, "authorization": {}, "secret": {}, "access_token": {},
}

func maskQuery(q url.Values) map[string][]string {
	if len(q) == 0 {
		return nil
	}
	out := make(map[string][]string, len(q))
	for k, v := range q {
		if _, ok := sensitiveQueryKeys[strings.ToLower(k)]; ok {
			out[k] = []string{"****"}
			continue
		}
		out[k] = v
	}
	return out
}

// AccessLog 每个请求一行；skip 里的路由模板（探活、指标）不记
func AccessLog(l *zap.Logger, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if _, ok := skipped[path]; ok {
			return
		}
		if path == "" {
			path = c.Request.URL.Path
		}
		status := c.Writer.Status()
		lvl := zapcore.InfoLevel
		if status >= 500 {
			lvl = zapcore.WarnLevel
		}
		fields := []zap.Field{
			zap.String("rid", c.GetString(KeyRequestID)),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
			zap.Int("size", c.Writer.Size()),
		}
		if q := maskQuery(c.Request.URL.Query()); q != nil {
			fields = append(fields, zap.Any("query", q))
		}
		if u, ok := CurrentUser(c); ok {
			fields = append(fields, zap.String("uid", u.ID))
		}
		l.Log(lvl, "HTTP", fields...)
	}
}
