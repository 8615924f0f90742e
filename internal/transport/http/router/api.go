package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"wedding-venues-api/internal/core/config"
	"wedding-venues-api/internal/core/server"
	"wedding-venues-api/internal/service"
	"wedding-venues-api/internal/transport/http/handler"
	mdw "wedding-venues-api/internal/transport/http/middleware"
)

type Deps struct {
	Log    *zap.Logger
	HTTP   config.HTTP
	Env    string
	Tokens mdw.TokenParser
	Users  mdw.UserFinder

	UserSvc    *service.UserService
	VenueSvc   *service.VenueService
	BillingSvc *service.BillingService

	// UploadsDir 非空时以 UploadsURL 提供本地媒体文件
	UploadsDir string
	UploadsURL string
	// Ready 探测必需的下游（DB）；失败时 /health 返回 503。可为 nil
	Ready func(ctx context.Context) error
	// Degraded 探测可选的下游（缓存）；失败只记日志并在 /health 标注
	Degraded func(ctx context.Context) error
}

func NewAPIEngine(d Deps) *gin.Engine {
	l := d.Log
	if l == nil {
		l = zap.NewNop()
	}
	h := d.HTTP
	r := server.NewRouter(l, server.Options{Mode: server.GinMode(d.Env), AllowOrigins: h.AllowOrigins})

	// 中间件
	mws := []gin.HandlerFunc{mdw.RequestID()}
	if h.RateLimitRPS > 0 {
		mws = append(mws, mdw.RateLimit(rate.Limit(h.RateLimitRPS), h.RateLimitBurst))
	}
	if h.PerIPRPS > 0 {
		mws = append(mws, mdw.RateLimitPerIP(rate.Limit(h.PerIPRPS), h.PerIPBurst))
	}
	if h.MaxConcurrent > 0 {
		mws = append(mws, mdw.ConcurrencyLimit(h.MaxConcurrent))
	}
	if h.MaxBodyMB > 0 {
		mws = append(mws, mdw.MaxBodyBytes(h.MaxBodyMB<<20))
	}
	mws = append(mws,
		mdw.Timeout(time.Duration(h.RequestTimeoutSec)*time.Second),
		mdw.Metrics(),
		mdw.AccessLog(l, "/health", "/metrics"),
	)
	r.Use(mws...)

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Welcome to our wedding venues API...")
	})
	r.GET("/health", func(c *gin.Context) {
		if d.Ready != nil {
			if err := d.Ready(c.Request.Context()); err != nil {
				l.Warn("health check", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"ok": 0})
				return
			}
		}
		body := gin.H{"ok": 1}
		if d.Degraded != nil {
			if err := d.Degraded(c.Request.Context()); err != nil {
				l.Warn("health check degraded", zap.Error(err))
				body["degraded"] = true
			}
		}
		c.JSON(http.StatusOK, body)
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if d.UploadsDir != "" && d.UploadsURL != "" {
		r.Static(d.UploadsURL, d.UploadsDir)
	}

	gate := mdw.AuthGate(d.Tokens, d.Users, l)
	reg := &Registry{}
	if d.UserSvc != nil {
		reg.Register(handler.NewUserHandler(d.UserSvc, gate, l))
	}
	if d.VenueSvc != nil {
		reg.Register(handler.NewVenueHandler(d.VenueSvc, gate, l))
	}
	if d.BillingSvc != nil {
		reg.Register(handler.NewBillingHandler(d.BillingSvc, gate, l))
	}
	reg.MountAll(r.Group("/api"))

	return r
}
