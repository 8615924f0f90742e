package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"wedding-venues-api/internal/core/config"
	"wedding-venues-api/internal/core/logger"
	"wedding-venues-api/internal/notify"
)

// mailer 消费 API 投递到 AMQP 的事务邮件（mail.queue=amqp 时使用）
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
		Rotate:    logger.FileRotate{Filename: cfg.Log.File, MaxSizeMB: cfg.Log.MaxSizeMB, MaxBackups: cfg.Log.MaxBackups, MaxAgeDays: cfg.Log.MaxAgeDays, Compress: cfg.Log.Compress},
	})
	defer cleanup()
	log = log.Named("mailer")

	var m notify.Mailer = notify.NewLogMailer(log)
	if cfg.Mail.Transport == "smtp" {
		m = notify.NewSMTPMailer(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.From)
	}

	cons := notify.NewConsumer(notify.ConsumerConfig{
		URL:      cfg.AMQP.URL,
		Exchange: cfg.AMQP.Exchange,
		Queue:    cfg.AMQP.Queue,
		Prefetch: cfg.AMQP.Prefetch,
		Name:     cfg.App.Name + "-mailer",
	}, m, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// broker 可能比我们晚起
	for {
		err := cons.Connect()
		if err == nil {
			break
		}
		log.Warn("connect failed; retry in 2s", zap.Error(err))
		select {
		case <-ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}
	}
	defer cons.Close()

	log.Info("mailer started",
		zap.String("queue", cfg.AMQP.Queue),
		zap.String("exchange", cfg.AMQP.Exchange),
		zap.String("transport", cfg.Mail.Transport),
	)
	if err := cons.Run(ctx); err != nil {
		log.Error("mailer run", zap.Error(err))
	}
	log.Info("mailer stopped")
}
