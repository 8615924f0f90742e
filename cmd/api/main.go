package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"wedding-venues-api/internal/billing"
	"wedding-venues-api/internal/core/auth"
	"wedding-venues-api/internal/core/cache"
	"wedding-venues-api/internal/core/config"
	"wedding-venues-api/internal/core/database"
	"wedding-venues-api/internal/core/logger"
	"wedding-venues-api/internal/core/server"
	"wedding-venues-api/internal/domain"
	"wedding-venues-api/internal/media"
	"wedding-venues-api/internal/notify"
	"wedding-venues-api/internal/repo"
	"wedding-venues-api/internal/service"
	"wedding-venues-api/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, cleanup := logger.New(logger.Options{
		Level:     cfg.Log.Level,
		JSON:      cfg.Log.JSON,
		AddCaller: true,
		Rotate: logger.FileRotate{
			Filename:   cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
			Compress:   cfg.Log.Compress,
		},
	})
	defer cleanup()
	defer logger.RedirectStdLog(log, zapcore.InfoLevel)()

	ctx := context.Background()

	// 存储（失败会直接 Fatal）
	st := mustOpenStores(ctx, cfg, log)
	defer st.close()
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	// 缓存：未配置 redis 时为 nil，直接回源
	var vc *cache.Cache
	if cfg.Redis.Addr != "" {
		vc = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := vc.Ping(ctx); err != nil {
			log.Warn("redis unavailable, venue cache disabled", zap.Error(err))
			_ = vc.Close()
			vc = nil
		} else {
			defer vc.Close()
		}
	}

	store, uploadsDir := mustMediaStore(cfg, log)
	queue, closeQueue := mustMailQueue(cfg, log)
	defer closeQueue()
	notifier := notify.NewNotifier(queue, cfg.Client.URL, log)

	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.TokenTTL(),
	}
	provider := billing.NewStripe(billing.StripeOptions{
		SecretKey:     cfg.Billing.SecretKey,
		WebhookSecret: cfg.Billing.WebhookSecret,
		AllowUnsigned: cfg.Billing.AllowUnsignedWebhooks,
	})
	if cfg.Billing.WebhookSecret == "" && cfg.Billing.AllowUnsignedWebhooks {
		log.Warn("billing webhooks are accepted WITHOUT signature verification")
	}

	venueSvc := service.NewVenueService(st.venues, store, vc, cfg.VenueCacheTTL(), log)
	userSvc := service.NewUserService(st.users, venueSvc, jwter, notifier, log)
	billingSvc := service.NewBillingService(st.users, provider, notifier, cfg.Client.URL, cfg.Billing.PriceID, log)

	r := router.NewAPIEngine(router.Deps{
		Log:        log,
		HTTP:       cfg.App.HTTP,
		Env:        cfg.App.Env,
		Tokens:     jwter,
		Users:      st.users,
		UserSvc:    userSvc,
		VenueSvc:   venueSvc,
		BillingSvc: billingSvc,
		UploadsDir: uploadsDir,
		UploadsURL: cfg.Media.LocalBaseURL,
		Ready:      st.ping,
		Degraded:   vc.Ping,
	})

	// HTTP Server
	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	// 启动日志
	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("venues api starting",
		zap.String("addr", addr),
		zap.String("env", cfg.App.Env),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("api", baseURL+"/api"),
		zap.String("media", cfg.Media.Driver),
		zap.String("mail_queue", cfg.Mail.Queue),
	)

	// 异步启动
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("venues api start FAILED", zap.Error(err))
		}
	}()
	log.Info("venues api started SUCCESS")

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
	log.Info("venues api stopped gracefully")
}

type stores struct {
	users  domain.UserRepository
	venues domain.VenueRepository
	ping   func(ctx context.Context) error
	close  func()
}

func mustOpenStores(ctx context.Context, cfg *config.Config, l *zap.Logger) stores {
	if cfg.DB.Driver == "mongo" {
		db, disconnect, err := database.NewMongo(ctx, database.MongoOpts{
			URI:         cfg.DB.DSN,
			Database:    cfg.DB.Name,
			MaxPoolSize: uint64(max(0, cfg.DB.MaxOpenConns)),
		})
		if err != nil {
			l.Fatal("db open", zap.Error(err))
		}
		users, venues := repo.NewUserMongoRepo(db), repo.NewVenueMongoRepo(db)
		if cfg.DB.AutoMigrate {
			if err := users.EnsureIndexes(ctx); err != nil {
				l.Fatal("ensure indexes", zap.Error(err))
			}
			if err := venues.EnsureIndexes(ctx); err != nil {
				l.Fatal("ensure indexes", zap.Error(err))
			}
		}
		return stores{
			users:  users,
			venues: venues,
			ping:   func(ctx context.Context) error { return db.Client().Ping(ctx, nil) },
			close: func() {
				cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = disconnect(cctx)
			},
		}
	}

	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		Log:                l,
	})
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	// 自动迁移
	if cfg.DB.AutoMigrate {
		if err := database.Migrate(db, &domain.User{}, &domain.Venue{}); err != nil {
			l.Fatal("automigrate failed", zap.Error(err))
		}
		l.Info("automigrate done")
	}
	sqlDB, err := db.DB()
	if err != nil {
		l.Fatal("db handle", zap.Error(err))
	}
	return stores{
		users:  repo.NewUserRepo(db),
		venues: repo.NewVenueRepo(db),
		ping:   sqlDB.PingContext,
		close:  func() { _ = sqlDB.Close() },
	}
}

// mustMediaStore 第二个返回值是需要静态托管的本地目录（cloudinary 时为空）
func mustMediaStore(cfg *config.Config, l *zap.Logger) (media.Store, string) {
	switch cfg.Media.Driver {
	case "cloudinary":
		s, err := media.NewCloudinary(cfg.Media.CloudinaryURL, cfg.Media.UploadPreset)
		if err != nil {
			l.Fatal("media", zap.Error(err))
		}
		return s, ""
	case "local", "":
		s, err := media.NewLocal(cfg.Media.LocalDir, cfg.Media.LocalBaseURL)
		if err != nil {
			l.Fatal("media", zap.Error(err))
		}
		return s, cfg.Media.LocalDir
	default:
		l.Fatal("media: unsupported driver", zap.String("driver", cfg.Media.Driver))
		return nil, ""
	}
}

func mustMailQueue(cfg *config.Config, l *zap.Logger) (notify.Queue, func()) {
	if cfg.Mail.Queue == "amqp" {
		q, err := notify.NewAMQPQueue(cfg.AMQP.URL, cfg.AMQP.Exchange, l)
		if err != nil {
			l.Fatal("mail queue", zap.Error(err))
		}
		return q, func() { _ = q.Close() }
	}
	p := notify.NewPool(newMailer(cfg, l), cfg.Mail.Workers, cfg.Mail.Buffer, l)
	return p, func() {
		if err := p.Close(); err != nil {
			l.Warn("mail pool close", zap.Error(err))
		}
	}
}

func newMailer(cfg *config.Config, l *zap.Logger) notify.Mailer {
	if cfg.Mail.Transport == "smtp" {
		return notify.NewSMTPMailer(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.From)
	}
	return notify.NewLogMailer(l)
}
