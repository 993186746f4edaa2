package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"estate-api/internal/core/auth"
	"estate-api/internal/core/cache"
	"estate-api/internal/core/config"
	"estate-api/internal/core/database"
	"estate-api/internal/core/logger"
	"estate-api/internal/core/server"
	"estate-api/internal/domain"
	"estate-api/internal/repo"
	"estate-api/internal/service"
	"estate-api/internal/transport/http/handler"
	"estate-api/internal/transport/http/response"
	"estate-api/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.New(cfg.Log.Level, cfg.Log.JSON)
	defer cleanup()

	response.Debug = !cfg.Production()

	db := mustOpenDB(cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate {
		if err := db.AutoMigrate(&domain.User{}, &domain.Property{}); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	tokens, err := auth.New(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.Issuer,
		time.Duration(cfg.JWT.AccessTTLMin)*time.Minute,
		time.Duration(cfg.JWT.RefreshTTLDay)*24*time.Hour,
	)
	if err != nil {
		log.Fatal("token service", zap.Error(err))
	}

	// Without redis the rotation store degrades to process-local memory:
	// fine for a single instance, not for a fleet.
	var (
		c        *cache.Cache
		rotation cache.RotationStore
	)
	if cfg.Redis.Addr != "" {
		c = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		rotation = c.Rotation()
	} else {
		log.Warn("redis not configured, using in-memory rotation store")
		rotation = cache.NewMemoryRotation()
	}

	users := repo.NewUserRepo(db)
	props := repo.NewPropertyRepo(db)
	authSvc := service.NewAuthService(users, tokens, rotation, log)
	adminSvc := service.NewUserAdminService(users)
	propSvc := service.NewPropertyService(props, c)

	r := router.NewAPIEngine(log, router.APIDeps{
		DB:     db,
		Tokens: tokens,
		Users:  users,
		Auth:   handler.NewAuthHandler(authSvc, log),
		Admin:  handler.NewUserAdminHandler(adminSvc, log),
		Props:  handler.NewPropertyHandler(propSvc, log),
	})

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("api start failed", zap.Error(err))
		}
	}()
	log.Info("api started", zap.String("addr", addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info("api stopped gracefully")
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}
