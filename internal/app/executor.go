package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quid-pro-quote/internal/platform/logging"
	"github.com/jsamuelsen/quid-pro-quote/internal/platform/telemetry"
)

// Imports run through five steps so nothing reaches the quote library
// until the fetched data has been checked:
//
//	validate -> perform -> verify -> archive -> respond
//
// Validate inspects the request, Perform does the network I/O, Verify
// filters what came back, Archive writes to the library and Respond shapes
// the result. Each step is traced and logged. A failing step stops the run;
// up to archive it is reported as an ExecutionError naming the step.

// ExecutionStep names one step of an Operation.
type ExecutionStep string

const (
	StepValidate ExecutionStep = "validate"
	StepPerform  ExecutionStep = "perform"
	StepVerify   ExecutionStep = "verify"
	StepArchive  ExecutionStep = "archive"
	StepRespond  ExecutionStep = "respond"
)

// ExecutionError wraps errors with the step where they occurred.
type ExecutionError struct {
	Step    ExecutionStep
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Step, e.Message, e.Cause)
	}

	return fmt.Sprintf("%s failed: %s", e.Step, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// failure describes how a failing step is reported. An empty message
// passes the cause through unwrapped.
type failure struct {
	message string
	level   slog.Level
}

var stepFailures = map[ExecutionStep]failure{
	StepValidate: {"input validation failed", slog.LevelWarn},
	StepPerform:  {"fetching failed", slog.LevelError},
	StepVerify:   {"verification failed", slog.LevelError},
	StepArchive:  {"applying to library failed", slog.LevelError},
	StepRespond:  {"", slog.LevelWarn},
}

// Executor runs operations step by step.
type Executor struct {
	logger *slog.Logger
}

// NewExecutor creates a new executor with the given logger.
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{logger: logger}
}

// Operation defines the functions for each step. A nil step is skipped and
// passes the zero value on.
type Operation[I, P, V, O any] struct {
	// Name identifies this operation for logging.
	Name string

	// Validate checks inputs and preconditions.
	// Return an error to abort before any state changes.
	Validate func(ctx context.Context, input I) error

	// Perform executes the main operation, typically remote fetches.
	Perform func(ctx context.Context, input I) (P, error)

	// Verify checks and filters what Perform produced.
	Verify func(ctx context.Context, input I, performed P) (V, error)

	// Archive applies the verified result to the quote library.
	Archive func(ctx context.Context, input I, verified V) error

	// Respond transforms the result for the caller.
	// Called only after successful completion of all steps.
	Respond func(ctx context.Context, input I, verified V) (O, error)
}

type step struct {
	name ExecutionStep
	run  func(ctx context.Context) error
}

// Execute runs an operation through all five steps.
func Execute[I, P, V, O any](ctx context.Context, exec *Executor, op Operation[I, P, V, O], input I) (O, error) {
	var (
		performed P
		verified  V
		result    O
	)

	steps := []step{
		{StepValidate, func(ctx context.Context) error {
			if op.Validate == nil {
				return nil
			}

			return op.Validate(ctx, input)
		}},
		{StepPerform, func(ctx context.Context) (err error) {
			if op.Perform != nil {
				performed, err = op.Perform(ctx, input)
			}

			return err
		}},
		{StepVerify, func(ctx context.Context) (err error) {
			if op.Verify != nil {
				verified, err = op.Verify(ctx, input, performed)
			}

			return err
		}},
		{StepArchive, func(ctx context.Context) error {
			if op.Archive == nil {
				return nil
			}

			return op.Archive(ctx, input, verified)
		}},
		{StepRespond, func(ctx context.Context) (err error) {
			if op.Respond != nil {
				result, err = op.Respond(ctx, input, verified)
			}

			return err
		}},
	}

	logger := logging.FromContextOr(ctx, exec.logger).With(slog.String("operation", op.Name))
	start := time.Now()

	ctx, span := telemetry.Tracer().Start(ctx, "execute "+op.Name)
	defer span.End()

	for _, s := range steps {
		err := runStep(ctx, logger, span, s)
		if err != nil {
			var zero O
			return zero, err
		}
	}

	logger.InfoContext(ctx, "operation completed",
		slog.Duration("duration", time.Since(start)),
	)

	return result, nil
}

// runStep runs s, records it on span and wraps its error.
func runStep(ctx context.Context, logger *slog.Logger, span trace.Span, s step) error {
	logger.DebugContext(ctx, "step started", slog.String("step", string(s.name)))

	err := s.run(ctx)
	span.AddEvent(string(s.name), trace.WithAttributes(attribute.Bool("failed", err != nil)))

	if err == nil {
		return nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, string(s.name)+" failed")

	f := stepFailures[s.name]
	logger.Log(ctx, f.level, "step failed",
		slog.String("step", string(s.name)),
		slog.Any("error", err),
	)

	if f.message == "" {
		return err
	}

	return &ExecutionError{Step: s.name, Message: f.message, Cause: err}
}

// IsExecutionError checks if an error occurred during execution.
func IsExecutionError(err error) bool {
	var execErr *ExecutionError

	return errors.As(err, &execErr)
}

// GetExecutionStep extracts the step from an execution error.
func GetExecutionStep(err error) (ExecutionStep, bool) {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Step, true
	}

	return "", false
}
