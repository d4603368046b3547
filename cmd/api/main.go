package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codehut/internal/client"
	"codehut/internal/config"
	"codehut/internal/repository"
	"codehut/internal/server"
	"codehut/internal/service"
	"codehut/internal/token"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const sessionCleanupInterval = time.Hour

func setupLogger(cfg *config.Log) {
	if cfg.Format == "text" {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&log.JSONFormatter{})
	}
	log.SetOutput(os.Stdout)

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found (ok in prod)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to parse config")
	}
	setupLogger(&cfg.Log)

	defaults, err := cfg.Validate()
	if err != nil {
		log.WithError(err).Fatal("Invalid config")
	}
	for _, name := range defaults {
		log.WithField("setting", name).Warn("Using development default, do not run like this in production")
	}

	db, err := client.InitDatabase(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to open database")
	}

	demo := !cfg.PaymentsEnabled()
	if demo {
		log.Warn("Razorpay keys not configured, payments run in demo mode")
	}

	razorpayClient := client.NewRazorpayClient(&cfg.Razorpay)
	emailSender := client.NewEmailSender(&cfg.SMTP)
	publisher, err := client.NewEventPublisher(&cfg.Kafka)
	if err != nil {
		log.WithError(err).Fatal("Failed to create event publisher")
	}
	defer publisher.Close()

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	snippetRepo := repository.NewSnippetRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	if !cfg.DatabaseEnabled() && cfg.SeedSampleData {
		if err := service.SeedSampleData(context.Background(), userRepo, snippetRepo); err != nil {
			log.WithError(err).Fatal("Failed to seed sample data")
		}
	}

	tokens := token.NewManager(cfg.JWT.Secret, cfg.JWT.ExpiresIn, cfg.JWT.RefreshExpiresIn)
	notificationService := service.NewNotificationService(emailSender, publisher)
	accessService := service.NewAccessService(snippetRepo, purchaseRepo)
	authService := service.NewAuthService(tokens, userRepo, sessionRepo)

	services := &server.Services{
		Auth:     authService,
		Snippet:  service.NewSnippetService(db, cfg.Razorpay.Currency, snippetRepo, userRepo, accessService),
		User:     service.NewUserService(userRepo, snippetRepo),
		Purchase: service.NewPurchaseService(db, demo, userRepo, snippetRepo, purchaseRepo, notificationService),
		Access:   accessService,
		Payment: service.NewPaymentService(
			db,
			razorpayClient,
			cfg.Razorpay.Currency,
			demo,
			userRepo,
			snippetRepo,
			orderRepo,
			purchaseRepo,
			webhookEventRepo,
			accessService,
			notificationService,
		),
		Search: service.NewSearchService(snippetRepo, userRepo),
		Stats:  service.NewStatsService(userRepo, snippetRepo, purchaseRepo, orderRepo),
	}

	srv := server.NewServer(tokens, services, server.Options{
		PingMessage:    cfg.PingMessage,
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
	})

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	srv.StartCleanup(bgCtx)
	go purgeSessions(bgCtx, authService)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	log.WithFields(log.Fields{
		"addr":        serverAddr,
		"environment": cfg.Environment.Name,
		"database":    cfg.DatabaseEnabled(),
		"payments":    cfg.PaymentsEnabled(),
	}).Info("Starting HTTP server")
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Info("Signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown error")
	}
	notificationService.Wait()

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Info("Shutdown complete")
}

func purgeSessions(ctx context.Context, authService service.AuthService) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := authService.PurgeExpiredSessions(ctx)
			if err != nil {
				log.WithError(err).Warn("Failed to purge expired sessions")
				continue
			}
			if n > 0 {
				log.WithField("count", n).Info("Purged expired sessions")
			}
		}
	}
}
