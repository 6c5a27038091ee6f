package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/joho/godotenv"

	"github.com/gurkanbulca/dailytasks/internal/config"
	"github.com/gurkanbulca/dailytasks/internal/database"
	"github.com/gurkanbulca/dailytasks/internal/handler"
	"github.com/gurkanbulca/dailytasks/internal/health"
	"github.com/gurkanbulca/dailytasks/internal/middleware"
	"github.com/gurkanbulca/dailytasks/internal/repository"
	"github.com/gurkanbulca/dailytasks/internal/service"
	"github.com/gurkanbulca/dailytasks/pkg/auth"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Validate configuration
	if err := cfg.ValidateConfig(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, err := database.Open(database.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if cfg.Server.AutoMigrate {
		if err := db.Migrate(context.Background()); err != nil {
			log.Fatalf("Failed to run auto migration: %v", err)
		}
	}

	// Initialize services
	securityLogger := service.NewSecurityLogger(nil)
	passwordManager := auth.NewPasswordManager(auth.PasswordPolicy{
		MinLength:     cfg.Auth.MinPasswordLength,
		RequireUpper:  cfg.Auth.RequirePasswordUpper,
		RequireLower:  cfg.Auth.RequirePasswordLower,
		RequireNumber: cfg.Auth.RequirePasswordDigit,
		Cost:          cfg.Auth.BcryptCost,
	})

	var (
		tokenManager *auth.TokenManager
		opts         = handler.AppOptions{AccessLog: cfg.IsDevelopment()}
	)
	if cfg.Auth.SessionMode == config.SessionModeToken {
		tokenManager = auth.NewTokenManager(cfg.Auth.SessionSecret, cfg.Auth.SessionTokenDuration)
		opts.SessionAuth = middleware.NewSessionAuth(tokenManager).Handler()
		log.Println("Session mode: signed bearer tokens")
	} else {
		log.Println("Session mode: caller-asserted user id")
	}

	taskService := service.NewTaskService(repository.NewTaskRepository(db), securityLogger)
	authService := service.NewAuthService(repository.NewUserRepository(db), passwordManager, tokenManager, securityLogger)

	app := handler.NewApp(handler.NewHandlers(taskService, authService, db), opts)

	healthServer := health.NewServer(db, health.Options{
		Interval:         cfg.Health.CheckInterval,
		EnableReflection: cfg.Server.EnableReflection,
	})

	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.Server.GRPCPort))
	if err != nil {
		log.Fatalf("Failed to listen: %v", err)
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	go healthServer.Watch(watchCtx)

	go func() {
		log.Printf("gRPC health server listening on port %s", cfg.Server.GRPCPort)
		if err := healthServer.GRPC.Serve(listener); err != nil {
			log.Fatalf("Failed to serve gRPC: %v", err)
		}
	}()

	go func() {
		log.Printf("HTTP API listening on port %s", cfg.Server.HTTPPort)
		if err := app.Listen(":" + cfg.Server.HTTPPort); err != nil {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.Server.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http": func(ctx context.Context) error {
				return app.ShutdownWithContext(ctx)
			},
			"grpc": func(ctx context.Context) error {
				stopWatch()
				healthServer.Stop()
				return nil
			},
			"database": func(ctx context.Context) error {
				return db.Close()
			},
		},
	)

	exitCode := <-wait
	log.Printf("Server exited with code: %d", exitCode)
	os.Exit(exitCode)
}
