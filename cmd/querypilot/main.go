package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/querypilot/querypilot/internal/agent"
	"github.com/querypilot/querypilot/internal/audit"
	"github.com/querypilot/querypilot/internal/config"
	"github.com/querypilot/querypilot/internal/nl2sql"
	"github.com/querypilot/querypilot/internal/observability"
	"github.com/querypilot/querypilot/internal/query"
	"github.com/querypilot/querypilot/internal/routing"
	"github.com/querypilot/querypilot/internal/schema"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv("querypilot")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := query.Open(ctx, query.DBConfig{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	catalog := schema.NewCatalog()
	if err := catalog.Load(ctx, db); err != nil {
		logger.Error("failed to introspect schema", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("schema loaded", slog.Int("tables", catalog.TableCount()))

	auditLog, err := audit.Open(cfg.Audit.Path)
	if err != nil {
		logger.Error("failed to open audit log", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = auditLog.Close() }()

	generator, err := nl2sql.NewOllamaClient(nl2sql.OllamaConfig{
		BaseURL: cfg.Generation.BaseURL,
		Timeout: cfg.Generation.Timeout,
	})
	if err != nil {
		logger.Error("failed to initialize generation client", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.Observability.MetricsAddr != "" {
		go serveMetrics(logger, cfg.Observability.MetricsAddr)
	}

	engine := &agent.Engine{
		Generator: generator,
		Executor:  query.NewExecutor(db),
		Schema:    catalog,
		Audit:     auditLog,
		Models: routing.Models{
			Simple: cfg.Generation.SimpleModel,
			Medium: cfg.Generation.MediumModel,
			Hard:   cfg.Generation.HardModel,
		},
		MaxAttempts: cfg.Agent.MaxAttempts,
		Logger:      logger,
	}

	runREPL(ctx, engine, os.Stdin, os.Stdout)
}

func runREPL(ctx context.Context, engine *agent.Engine, in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprint(out, "\nAsk a question (or 'exit'): ")
		if !scanner.Scan() {
			return
		}
		question := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(question, "exit") {
			return
		}
		if !agent.ValidQuestion(question) {
			fmt.Fprintln(out, "Invalid input.")
			continue
		}

		outcome, err := engine.Answer(ctx, question)
		if err != nil {
			reportFailure(out, err)
			continue
		}

		fmt.Fprintf(out, "\nQuery succeeded on attempt %d (model %s):\n%s\n\n", outcome.Attempts, outcome.Model, outcome.SQL)
		printRows(out, outcome.Columns, outcome.Rows)
	}
}

func reportFailure(out io.Writer, err error) {
	var exhausted *agent.ExhaustedError
	switch {
	case errors.As(err, &exhausted):
		fmt.Fprintf(out, "Failed after %d attempts.\nLast error: %s\n", exhausted.Attempts, exhausted.LastError)
	case errors.Is(err, agent.ErrGenerationFailed):
		fmt.Fprintf(out, "Generation backend failed: %v\n", err)
	case errors.Is(err, agent.ErrNoSQL):
		fmt.Fprintln(out, "The model produced no usable SQL.")
	default:
		fmt.Fprintf(out, "Error: %v\n", err)
	}
}

func printRows(out io.Writer, columns []string, rows [][]any) {
	if len(columns) > 0 {
		fmt.Fprintln(out, strings.Join(columns, "\t"))
	}
	for _, row := range rows {
		parts := make([]string, len(row))
		for i, value := range row {
			if value == nil {
				parts[i] = "NULL"
				continue
			}
			parts[i] = fmt.Sprintf("%v", value)
		}
		fmt.Fprintln(out, strings.Join(parts, "\t"))
	}
	fmt.Fprintf(out, "(%d rows)\n", len(rows))
}

func serveMetrics(logger *slog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	logger.Info("serving metrics", slog.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server failed", slog.Any("error", err))
	}
}
