// Package agent drives the generate-validate-repair loop: classify the
// question, invoke a generation model, extract and sanitize the candidate
// SQL, execute it, and retry with the database's error feedback until the
// attempt budget runs out.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/querypilot/querypilot/internal/audit"
	"github.com/querypilot/querypilot/internal/nl2sql"
	"github.com/querypilot/querypilot/internal/observability"
	"github.com/querypilot/querypilot/internal/query"
	"github.com/querypilot/querypilot/internal/routing"
	"github.com/querypilot/querypilot/internal/sqltext"
)

const defaultMaxAttempts = 3

var (
	// ErrInvalidQuestion rejects input before any attempt is made.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrGenerationFailed means the backend invocation itself failed; the
	// session is aborted without retries.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrNoSQL means the backend produced text but no usable statement
	// could be recovered; treated like a generation failure.
	ErrNoSQL = errors.New("no SQL produced")
)

// ExhaustedError reports that every attempt failed at the database, carrying
// the most recent error text.
type ExhaustedError struct {
	Attempts  int
	LastError string
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("no working query after %d attempts, last error: %s", e.Attempts, e.LastError)
}

type StatementExecutor interface {
	Execute(ctx context.Context, statement string) (query.Result, error)
}

type AttemptRecorder interface {
	Record(attempt audit.Attempt) error
}

type SchemaSource interface {
	SchemaText() string
	RelationshipText() string
}

// Outcome is the terminal result of a successful session.
type Outcome struct {
	Question string
	SQL      string
	Model    string
	Tier     routing.Tier
	Attempts int
	Columns  []string
	Rows     [][]any
}

type Engine struct {
	Generator   nl2sql.Generator
	Executor    StatementExecutor
	Schema      SchemaSource
	Audit       AttemptRecorder
	Models      routing.Models
	MaxAttempts int
	Logger      *slog.Logger
}

// ValidQuestion reports whether raw input may enter the loop: non-empty
// after trimming, at least one letter, trimmed length of three or more.
func ValidQuestion(question string) bool {
	trimmed := strings.TrimSpace(question)
	if len(trimmed) < 3 {
		return false
	}
	for _, r := range trimmed {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// Answer runs one bounded session for a question. The returned error is
// ErrInvalidQuestion, ErrGenerationFailed, ErrNoSQL, or *ExhaustedError;
// only a nil error carries rows.
func (e *Engine) Answer(ctx context.Context, question string) (Outcome, error) {
	logger := e.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if !ValidQuestion(question) {
		observability.ObserveSession("rejected")
		return Outcome{}, ErrInvalidQuestion
	}

	maxAttempts := e.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	question = strings.TrimSpace(question)
	previousError := ""

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		// Tier and model are recomputed each attempt; the question text is
		// invariant, so the routing is stable across retries.
		tier := routing.Classify(question)
		model := e.Models.For(tier)
		if attempt == 1 {
			observability.ObserveTier(tier.String())
			logger.Info("question classified",
				slog.String("tier", tier.String()),
				slog.String("model", model),
			)
		}

		prompt := nl2sql.BuildPrompt(nl2sql.PromptInput{
			SchemaText:       e.Schema.SchemaText(),
			RelationshipText: e.Schema.RelationshipText(),
			Question:         question,
			PreviousError:    previousError,
		})

		output, err := e.Generator.Generate(ctx, model, prompt)
		observability.ObserveGenerationLatency(model, output.Latency)
		if err != nil {
			observability.ObserveAttempt("generation_failure")
			observability.ObserveSession("aborted")
			e.recordAttempt(logger, audit.Attempt{
				Question: question,
				Error:    err.Error(),
				Model:    model,
				Latency:  output.Latency,
			})
			return Outcome{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
		}

		candidate := sqltext.Sanitize(sqltext.Extract(output.Text))
		if candidate == "" {
			observability.ObserveAttempt("extraction_failure")
			observability.ObserveSession("aborted")
			e.recordAttempt(logger, audit.Attempt{
				Question: question,
				Error:    ErrNoSQL.Error(),
				Model:    model,
				Latency:  output.Latency,
			})
			return Outcome{}, ErrNoSQL
		}

		logger.Debug("executing candidate",
			slog.Int("attempt", attempt),
			slog.String("model", model),
			slog.String("sql", candidate),
		)

		result, execErr := e.Executor.Execute(ctx, candidate)

		record := audit.Attempt{
			Question: question,
			SQL:      candidate,
			RowCount: len(result.Rows),
			Model:    model,
			Latency:  output.Latency,
		}
		if execErr != nil {
			record.Error = execErr.Error()
		}
		e.recordAttempt(logger, record)

		if execErr != nil {
			observability.ObserveAttempt("execution_failure")
			// Single-slot feedback: only the most recent error reaches the
			// next prompt.
			previousError = execErr.Error()
			logger.Warn("statement rejected by database",
				slog.Int("attempt", attempt),
				slog.Any("error", execErr),
			)
			if attempt < maxAttempts {
				observability.IncrementRepairs()
				continue
			}
			observability.ObserveSession("exhausted")
			return Outcome{}, &ExhaustedError{Attempts: maxAttempts, LastError: previousError}
		}

		observability.ObserveAttempt("success")
		observability.ObserveSession("success")
		logger.Info("query succeeded",
			slog.Int("attempt", attempt),
			slog.Int("rows", len(result.Rows)),
		)
		return Outcome{
			Question: question,
			SQL:      candidate,
			Model:    model,
			Tier:     tier,
			Attempts: attempt,
			Columns:  result.Columns,
			Rows:     result.Rows,
		}, nil
	}

	// Unreachable: the loop always returns.
	return Outcome{}, &ExhaustedError{Attempts: maxAttempts, LastError: previousError}
}

func (e *Engine) recordAttempt(logger *slog.Logger, attempt audit.Attempt) {
	if e.Audit == nil {
		return
	}
	attempt.Timestamp = time.Now()
	if err := e.Audit.Record(attempt); err != nil {
		logger.Warn("failed to append audit record", slog.Any("error", err))
	}
}
