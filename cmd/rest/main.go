package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paperchat-be/internal/bootstrap"
	"paperchat-be/internal/config"
	"paperchat-be/internal/model"
	"paperchat-be/internal/pkg/logger"
	"paperchat-be/internal/server"
	"paperchat-be/internal/tracer"
	"paperchat-be/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	defer sysLogger.Sync()

	if cfg.App.JwtSecret == "" {
		sysLogger.Error("Main", "JWT_SECRET is not set", nil)
		os.Exit(1)
	}

	// 2. Tracing
	shutdownTracer := tracer.InitTracer(sysLogger)
	defer shutdownTracer(context.Background())

	// 3. Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection, database.Options{
		Debug: cfg.App.Environment != "production",
	})
	if err != nil {
		sysLogger.Error("Main", "Unable to connect to database", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	if err := database.Migrate(gormDB, model.All()...); err != nil {
		sysLogger.Error("Main", "Migration failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	// 4. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg, sysLogger)
	defer container.Close()

	// 5. Background Services
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go container.WebSocketHub.Run(ctx)

	if err := container.ArchiveConsumer.Consume(ctx); err != nil {
		sysLogger.Error("Main", "Archive consumer failed to start", map[string]interface{}{"error": err.Error()})
	}
	if container.FaultMonitor != nil {
		if err := container.FaultMonitor.Start(ctx); err != nil {
			sysLogger.Warn("Main", "Fault monitor failed to start", map[string]interface{}{"error": err.Error()})
		}
	}

	// 6. Server
	srv := server.New(cfg, container)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Run(); err != nil {
		sysLogger.Error("Main", "Server stopped", map[string]interface{}{"error": err.Error()})
	}
}
