package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/bizmatters/reasoning-console/internal/auth"
	"github.com/bizmatters/reasoning-console/internal/config"
	"github.com/bizmatters/reasoning-console/internal/orchestration"
	"github.com/bizmatters/reasoning-console/internal/session"
	"github.com/bizmatters/reasoning-console/internal/transcript"
	"github.com/bizmatters/reasoning-console/internal/tui"
	"github.com/bizmatters/reasoning-console/pkg/logger"
	tea "github.com/charmbracelet/bubbletea"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/trace"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	logPath := flag.String("log", "reasoning-console.log", "file receiving log output")
	maxLength := flag.Int("max-length", session.DefaultMaxLength, "maximum generated length")
	temperature := flag.Float64("temperature", session.DefaultTemperature, "sampling temperature")
	depth := flag.Int("depth", session.DefaultReasoningDepth, "reasoning depth")
	style := flag.String("style", session.DefaultResponseStyle, "response style")
	flag.Parse()

	if err := run(*configPath, *logPath, session.PromptRequest{
		MaxLength:      *maxLength,
		Temperature:    *temperature,
		ReasoningDepth: *depth,
		ResponseStyle:  *style,
	}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, logPath string, params session.PromptRequest) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// the screen belongs to the UI; logs go to a file
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	logger.SetOutput(logFile)
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if cfg.Telemetry.Traces {
		// spans share the log file; stdout belongs to the UI
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(logFile))
		if err != nil {
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}
		tp := trace.NewTracerProvider(trace.WithBatcher(exporter))
		otel.SetTracerProvider(tp)
		defer tp.Shutdown(context.Background())
	}

	var tokens orchestration.TokenSource
	if cfg.Service.JWTSecret != "" {
		manager, err := auth.NewJWTManager(cfg.Service.JWTSecret, "reasoning-console")
		if err != nil {
			return fmt.Errorf("failed to initialize service token signer: %w", err)
		}
		tokens = auth.NewServiceTokenSource(manager, "reasoning-console-tui", cfg.Service.TokenTTL)
	}

	client := orchestration.NewInferenceClient(orchestration.NewRequestGateway(cfg.Service, tokens, nil), cfg.Service)
	controller := session.NewController(client, cfg, transcript.NewMemoryStore(), nil)
	defer controller.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handle, err := controller.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer handle.Release()

	program := tea.NewProgram(tui.New(controller, params), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("terminal UI failed: %w", err)
	}
	return nil
}
