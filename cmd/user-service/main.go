package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ms-users/internal/config"
	"ms-users/internal/logger"
	"ms-users/internal/users/db"
	"ms-users/internal/users/service"
	"ms-users/internal/users/user_api"
)

func openDatabase(cfg *config.Config, log *logger.Logger) *bun.DB {
	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.Database.Path)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open sqlite database: %v", err))
	}
	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to sqlite database: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("sqlite connection successful (%s)", cfg.Database.Path))

	return bun.NewDB(sqldb, sqlitedialect.New())
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()

	ctx := context.Background()
	bunDB := openDatabase(cfg, log)
	defer bunDB.Close()

	store := &db.DB{Bun: bunDB}
	if err := store.CreateSchema(ctx); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to create users table: %v", err))
	}
	log.LogDatabase("SCHEMA", "users", "table ready")

	userService := service.NewUserService(store)
	handler := user_api.NewHandler(userService, log)

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      user_api.NewRouter(handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("User service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server shutdown failed: %v", err))
	} else {
		log.Info("HTTP", "User service shutdown complete")
	}
}
