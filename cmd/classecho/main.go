package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/classecho/classecho/internal/backup"
	"github.com/classecho/classecho/internal/database"
	"github.com/classecho/classecho/internal/logging"
	"github.com/classecho/classecho/internal/server"
	"github.com/classecho/classecho/internal/storage"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	godotenv.Load()

	logger := logging.Setup(os.Getenv("CLASSECHO_LOG_LEVEL"), os.Getenv("CLASSECHO_LOG_FORMAT"))

	port := os.Getenv("CLASSECHO_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("CLASSECHO_DB_PATH")
	if dbPath == "" {
		dbPath = "classecho.db"
	}

	jwtSecret := os.Getenv("CLASSECHO_JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("CLASSECHO_JWT_SECRET is required")
		os.Exit(1)
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	backupCfg := backup.Config{
		S3: backup.S3Config{
			Endpoint:  os.Getenv("CLASSECHO_S3_ENDPOINT"),
			Bucket:    os.Getenv("CLASSECHO_S3_BUCKET"),
			Region:    os.Getenv("CLASSECHO_S3_REGION"),
			AccessKey: os.Getenv("CLASSECHO_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("CLASSECHO_S3_SECRET_KEY"),
		},
		DBPath:        dbPath,
		Passphrase:    os.Getenv("CLASSECHO_BACKUP_PASSPHRASE"),
		ScheduleHour:  envInt("CLASSECHO_BACKUP_HOUR", 3),
		RetentionDays: envInt("CLASSECHO_BACKUP_RETENTION_DAYS", 30),
	}

	// Course material files share the backup bucket under their own
	// key prefix.
	storageCfg := storage.Config{
		Endpoint:  os.Getenv("CLASSECHO_S3_ENDPOINT"),
		Bucket:    os.Getenv("CLASSECHO_S3_BUCKET"),
		Region:    os.Getenv("CLASSECHO_S3_REGION"),
		AccessKey: os.Getenv("CLASSECHO_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("CLASSECHO_S3_SECRET_KEY"),
		Prefix:    "materials",
	}

	srv := server.New(db, []byte(jwtSecret), backupCfg, storageCfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv.Sweeper().Start(ctx)
	srv.BackupManager().Start(ctx)

	// Drop lapsed rate-limit windows so the table does not grow with
	// every client IP ever seen.
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("ClassEcho running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	cancel()
	srv.Sweeper().Stop()
	srv.BackupManager().Stop()
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
