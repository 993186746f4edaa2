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

	var c *cache.Cache
	if cfg.Redis.Addr != "" {
		c = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	}

	users := repo.NewUserRepo(db)
	props := repo.NewPropertyRepo(db)
	adminSvc := service.NewUserAdminService(users)
	propSvc := service.NewPropertyService(props, c)

	r := router.NewAdminEngine(log, router.AdminDeps{
		Tokens: tokens,
		Users:  users,
		Admin:  handler.NewUserAdminHandler(adminSvc, log),
		Props:  handler.NewPropertyHandler(propSvc, log),
	})

	addr := server.Addr(cfg.App.Admin.Host, cfg.App.Admin.Port)
	srv := server.BuildServer(addr, r, 5*time.Second, 10*time.Second, 60*time.Second)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("admin start failed", zap.Error(err))
		}
	}()
	log.Info("admin started", zap.String("addr", addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info("admin stopped gracefully")
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
