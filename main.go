package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amaurycolochos7/shopp-kingice/config"
	"github.com/amaurycolochos7/shopp-kingice/events"
	"github.com/amaurycolochos7/shopp-kingice/routes"
	"github.com/amaurycolochos7/shopp-kingice/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	sessionPurgeSchedule = "@hourly"
	shutdownTimeout      = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server stopped with an error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting King Ice Gold API server...", zap.String("env", cfg.GoEnv))

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.ConnectDatabase(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = config.CloseDatabase(db) }()

	if err := config.Migrate(db); err != nil {
		return err
	}
	logger.Info("Database migration completed successfully")

	sequence, err := services.NewSequenceNumberGenerator(cfg.NodeID)
	if err != nil {
		return err
	}
	numbers := services.NewDatabaseNumberGenerator(sequence, logger)

	hub := events.NewHub(cfg.FrontendURL, logger)
	go hub.Run(ctx)
	publishers := events.MultiPublisher{hub}

	if cfg.KafkaEnabled() {
		kafka, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic, logger)
		if err != nil {
			// checkout must keep working without the broker
			logger.Warn("Kafka unavailable, order events stay local", zap.Error(err))
		} else {
			defer func() { _ = kafka.Close() }()
			publishers = append(publishers, kafka)
		}
	}

	var images services.ImageService
	if cfg.S3Enabled() {
		storage, err := services.NewS3Service(ctx, cfg)
		if err != nil {
			return err
		}
		images = services.NewImageService(storage, "products")
	} else {
		logger.Warn("AWS_S3_BUCKET not set, product image uploads are disabled")
	}

	orders := services.NewOrderService(db, numbers, publishers, logger)
	auth := services.NewAuthService(db, services.TokenSettings{
		Secret:    cfg.JWTSecret,
		Issuer:    cfg.JWTIssuer,
		Audience:  cfg.JWTAudience,
		ExpiresIn: cfg.JWTExpiresIn,
	}, logger)
	catalog := services.NewCatalogService(db, images, logger)
	dashboard := services.NewDashboardService(db)

	if err := auth.EnsureBootstrapAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return err
	}

	scheduler, err := services.NewScheduler(auth, sessionPurgeSchedule, logger)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := routes.Setup(routes.Dependencies{
		Config:    cfg,
		Logger:    logger,
		DB:        db,
		Orders:    orders,
		Auth:      auth,
		Catalog:   catalog,
		Dashboard: dashboard,
		Hub:       hub,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server is running", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}
