package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bizmatters/reasoning-console/internal/auth"
	"github.com/bizmatters/reasoning-console/internal/config"
	"github.com/bizmatters/reasoning-console/internal/gateway"
	"github.com/bizmatters/reasoning-console/internal/metrics"
	"github.com/bizmatters/reasoning-console/internal/orchestration"
	"github.com/bizmatters/reasoning-console/internal/session"
	"github.com/bizmatters/reasoning-console/internal/transcript"
	"github.com/bizmatters/reasoning-console/pkg/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/trace"

	_ "github.com/bizmatters/reasoning-console/docs" // swagger docs
)

// @title Reasoning Console API
// @version 1.0
// @description Operator console for a pattern-based reasoning inference service.
// @description
// @description Submits prompts, replays the service's reasoning steps one at a time and
// @description forwards training and model management calls.

// @contact.name API Support
// @contact.email support@bizmatters.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.

const (
	serviceSubject = "reasoning-console"
	tokenIssuer    = "reasoning-console"
	dbAttempts     = 10
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		logger.Fatalf("Failed to initialize logger: %v", err)
	}

	// Initialize OpenTelemetry
	shutdownTracer, err := initTracer(cfg.Telemetry)
	if err != nil {
		logger.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer shutdownTracer()

	sessionMetrics, err := metrics.NewSessionMetrics()
	if err != nil {
		logger.Fatalf("Failed to initialize metrics: %v", err)
	}

	store, err := openStore(cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to open transcript store: %v", err)
	}
	defer store.Close()

	// Outbound calls are signed only when the service expects a token
	var tokens orchestration.TokenSource
	if cfg.Service.JWTSecret != "" {
		serviceJWT, err := auth.NewJWTManager(cfg.Service.JWTSecret, tokenIssuer)
		if err != nil {
			logger.Fatalf("Failed to initialize service token signer: %v", err)
		}
		tokens = auth.NewServiceTokenSource(serviceJWT, serviceSubject, cfg.Service.TokenTTL)
	}

	requestGateway := orchestration.NewRequestGateway(cfg.Service, tokens, sessionMetrics)
	client := orchestration.NewInferenceClient(requestGateway, cfg.Service)

	controller := session.NewController(client, cfg, store, sessionMetrics)
	defer controller.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessionHandle, err := controller.Start(ctx)
	if err != nil {
		logger.Fatalf("Failed to start session: %v", err)
	}

	var consoleJWT *auth.JWTManager
	if cfg.Console.JWTSecret != "" {
		consoleJWT, err = auth.NewJWTManager(cfg.Console.JWTSecret, tokenIssuer)
		if err != nil {
			logger.Fatalf("Failed to initialize console JWT manager: %v", err)
		}
	} else {
		logger.Warnf("console.jwt_secret is empty; the console API is unauthenticated")
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(structuredLoggingMiddleware())
	if len(cfg.Console.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.Console.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	gateway.NewHandler(controller, client, cfg.Console.AllowedOrigins).RegisterRoutes(router, consoleJWT)

	// Swagger documentation (public)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Console.Port),
		Handler:      router,
		ReadTimeout:  cfg.Console.ReadTimeout,
		WriteTimeout: cfg.Console.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port":        cfg.Console.Port,
			"service_url": requestGateway.BaseURL(),
			"session_id":  controller.ID(),
		}).Info("Starting reasoning console")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	// stops probing and polling and drains a running playback
	sessionHandle.Release()

	logger.Info("Server exited")
}

// initTracer installs a stdout span exporter when traces are enabled. The returned
// function flushes pending spans.
func initTracer(cfg config.TelemetryConfig) (func(), error) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	if !cfg.Traces {
		return func() {}, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warnf("Failed to flush traces: %v", err)
		}
	}, nil
}

// openStore returns the configured transcript store, retrying the initial database
// connection while postgres starts up
func openStore(cfg config.StorageConfig) (transcript.Store, error) {
	if cfg.Type != "postgres" {
		return transcript.NewMemoryStore(), nil
	}

	logger.Info("Connecting to PostgreSQL database...")
	var (
		store *transcript.PostgresStore
		err   error
	)
	for i := 0; i < dbAttempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		store, err = transcript.NewPostgresStore(ctx, cfg.DatabaseURL)
		cancel()
		if err == nil {
			break
		}
		logger.Warnf("Waiting for database... (attempt %d/%d): %v", i+1, dbAttempts, err)
		time.Sleep(3 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after retries: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, err
	}

	logger.Info("Connected to PostgreSQL database")
	return store, nil
}

// structuredLoggingMiddleware logs one structured entry per request
func structuredLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
		}
		if subject, ok := c.Get(auth.SubjectKey); ok {
			fields["subject"] = subject
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		entry := logger.WithFields(fields)
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request completed")
			return
		}
		entry.Info("request completed")
	}
}

func init() {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
}
