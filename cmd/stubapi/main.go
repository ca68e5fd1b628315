// Command stubapi serves the auth, OTP, vendor application and categories
// endpoints the onboarding client talks to, for local development.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/developia-II/vendora-onboarding/internal/adapters/repository/memory"
	"github.com/developia-II/vendora-onboarding/internal/adapters/repository/mongodb"
	"github.com/developia-II/vendora-onboarding/internal/config"
	"github.com/developia-II/vendora-onboarding/internal/core/domain"
	"github.com/developia-II/vendora-onboarding/internal/handlers"
	"github.com/developia-II/vendora-onboarding/internal/logging"
	"github.com/developia-II/vendora-onboarding/internal/services/account"
	"github.com/developia-II/vendora-onboarding/internal/services/vendor"
	"github.com/developia-II/vendora-onboarding/internal/vendorsetup"
	"github.com/developia-II/vendora-onboarding/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

const devJWTSecret = "vendora-dev-secret"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal(err)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	secret := cfg.JWTSecret
	if secret == "" {
		if cfg.IsProduction() {
			logrus.Fatal("JWT_SECRET must be set in production")
		}
		logrus.Warn("JWT_SECRET not set, using the development secret")
		secret = devJWTSecret
	}
	tokens := utils.NewTokenIssuer(secret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	var (
		users      domain.UserRepository
		apps       domain.ApplicationRepository
		categories domain.CategoryRepository
	)
	switch cfg.StubStorage {
	case config.BackendMongo:
		client, err := mongodb.Connect(ctx, cfg.MongoURI)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to connect to MongoDB")
		}
		defer client.Disconnect(context.Background())
		db := client.Database(cfg.MongoDatabase)
		users = mongodb.NewUserRepository(db)
		apps = mongodb.NewApplicationRepository(db)
		categoryRepo := mongodb.NewCategoryRepository(db)
		if err := categoryRepo.Seed(ctx, seedCategories()); err != nil {
			logrus.WithError(err).Fatal("Failed to seed categories")
		}
		categories = categoryRepo
		logrus.WithField("database", cfg.MongoDatabase).Info("Using MongoDB storage")
	default:
		users = memory.NewUserRepository()
		apps = memory.NewApplicationRepository()
		categories = memory.NewCategoryRepository(seedCategories())
		logrus.Info("Using in-memory storage")
	}

	var uploader vendor.Uploader = utils.DiscardUploader{}
	if cfg.CloudinaryEnabled() {
		cld, err := utils.NewCloudinaryUploader(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, "vendora/applications")
		if err != nil {
			logrus.WithError(err).Fatal("Failed to configure Cloudinary")
		}
		uploader = cld
	} else {
		logrus.Warn("Cloudinary credentials missing, documents are discarded after validation")
	}

	accounts := account.NewService(users, tokens, account.Config{
		OTPTTL:            cfg.OTPTTL,
		OTPResendInterval: cfg.OTPResendInterval,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handlers.SetupRoutes(router, handlers.Deps{
		Auth:       handlers.NewAuthHandler(accounts),
		Vendors:    handlers.NewVendorApplicationHandler(vendor.NewService(apps, uploader)),
		Categories: handlers.NewCategoryHandler(categories, config.GetEnvInt("CATEGORIES_LIMIT", 10)),
		Tokens:     tokens,
		Registry:   registry,
	})

	srv := &http.Server{
		Addr:              cfg.StubAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithField("addr", srv.Addr).Info("Stub API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server error")
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("graceful shutdown failed")
	}
}

// seedCategories builds the category list from the wizard's fixed keys.
func seedCategories() []domain.Category {
	now := time.Now()
	out := make([]domain.Category, 0, len(vendorsetup.Categories))
	for _, key := range vendorsetup.Categories {
		name := vendorsetup.EnglishLabels.Translate(key)
		out = append(out, domain.Category{
			ID:        key,
			Name:      name,
			Slug:      key,
			FullPath:  name,
			CreatedAt: now,
		})
	}
	return out
}
