// Command boundq moves a list of integers from a producer to a consumer
// through a bounded blocking queue and reports what arrived.
package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/kbukum/boundq/bootstrap"
	"github.com/kbukum/boundq/errors"
	"github.com/kbukum/boundq/logger"
	"github.com/kbukum/boundq/observability"
	"github.com/kbukum/boundq/pipeline"
	"github.com/kbukum/boundq/queue"
	"github.com/kbukum/boundq/version"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	f := newFlags()
	f.fs.SetOutput(stderr)
	if err := f.fs.Parse(args); err != nil {
		if stderrors.Is(err, pflag.ErrHelp) {
			return errors.ExitOK
		}
		return fail(stderr, errors.Configuration("flags", err.Error()))
	}
	if f.showVersion {
		fmt.Fprintln(stdout, version.Get().String())
		return errors.ExitOK
	}

	cfg, err := loadConfig(f)
	if err != nil {
		return fail(stderr, err)
	}
	if cfg.Version == "" {
		cfg.Version = version.Get().Short()
	}
	cfg.ApplyDefaults()

	log := logger.NewWithWriter(&cfg.Logging, cfg.Name, logWriter(cfg.Logging.Output, stdout, stderr))
	logger.SetGlobalLogger(log)
	logger.RegisterDefaults("pipeline.producer", "pipeline.consumer", "pipeline.run")

	summaryOut := stdout
	if f.jsonOutput {
		summaryOut = nil
	}
	app, err := bootstrap.NewApp(cfg,
		bootstrap.WithLogger(log),
		bootstrap.WithSummaryOutput(summaryOut),
	)
	if err != nil {
		return fail(stderr, err)
	}
	if err := app.RegisterComponent(observability.NewComponent(cfg.Telemetry)); err != nil {
		return fail(stderr, errors.Internal(err))
	}

	runID := uuid.NewString()
	app.OnStart(func(context.Context) error {
		log.Info("pipeline run scheduled", logger.Fields(
			logger.FieldRunID, runID,
			logger.FieldCapacity, cfg.Pipeline.Capacity,
			logger.FieldItems, len(cfg.Source.Items),
		))
		return nil
	})
	app.OnStop(func(context.Context) error {
		log.Info("pipeline run closed", logger.Fields(
			logger.FieldRunID, runID,
			"status", app.Summary.Status(),
		))
		return nil
	})

	var res *pipeline.Result[int]
	runErr := app.RunTask(ctx, func(ctx context.Context) error {
		var err error
		res, err = runPipeline(ctx, cfg, app.Summary, runID)
		return err
	})

	if f.jsonOutput {
		if err := writeReport(stdout, cfg, res, runErr); err != nil {
			return fail(stderr, errors.Internal(err))
		}
	} else if runErr != nil {
		fmt.Fprintf(stderr, "boundq: %v\n", runErr)
	}
	return exitCode(runErr)
}

// runPipeline parses the configured items in a Map stage and moves them
// through the queue, recording the outcome on summary.
func runPipeline(ctx context.Context, cfg *AppConfig, summary *bootstrap.Summary, runID string) (*pipeline.Result[int], error) {
	metrics, err := observability.NewPipelineMetrics(observability.Meter(observability.InstrumentationName))
	if err != nil {
		return nil, errors.Internal(err)
	}

	src := pipeline.Map(pipeline.FromSlice(cfg.Source.Items), parseItem)
	res, err := pipeline.Run(ctx, src, cfg.Pipeline,
		pipeline.WithMetrics(metrics),
		pipeline.WithRunID(runID),
	)

	summary.Add("Source Data", cfg.Source.Items)
	if res != nil {
		summary.Add("Destination Data", res.Items)
		summary.Add("Items in", res.Produced)
		summary.Add("Items out", res.Consumed)
		summary.Add("Queue high water", fmt.Sprintf("%d/%d (incl. end marker)", res.QueueStats.HighWater, res.QueueStats.Capacity))
		summary.Add("Run ID", res.RunID)
	}
	return res, err
}

func parseItem(_ context.Context, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("item %q is not an integer: %w", s, err)
	}
	return n, nil
}

// report is the --json output.
type report struct {
	RunID       string            `json:"run_id,omitempty"`
	Status      string            `json:"status"`
	Version     string            `json:"version"`
	Source      []string          `json:"source"`
	Destination []int             `json:"destination"`
	Produced    int               `json:"produced"`
	Consumed    int               `json:"consumed"`
	DurationMS  int64             `json:"duration_ms"`
	Queue       *queue.Stats      `json:"queue,omitempty"`
	Error       *errors.ErrorBody `json:"error,omitempty"`
}

func writeReport(w io.Writer, cfg *AppConfig, res *pipeline.Result[int], runErr error) error {
	r := report{
		Status:      "ok",
		Version:     cfg.Version,
		Source:      cfg.Source.Items,
		Destination: []int{},
	}
	if res != nil {
		r.RunID = res.RunID
		r.Destination = res.Items
		r.Produced = res.Produced
		r.Consumed = res.Consumed
		r.DurationMS = res.Duration.Milliseconds()
		r.Queue = &res.QueueStats
	}
	if runErr != nil {
		appErr := errors.Wrap(runErr)
		body := appErr.ToResponse().Error
		r.Status = string(appErr.Code)
		r.Error = &body
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func exitCode(err error) int {
	if err == nil {
		return errors.ExitOK
	}
	if appErr, ok := errors.AsAppError(err); ok {
		return errors.ExitCodeFor(appErr.Code)
	}
	return errors.ExitFailure
}

func fail(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "boundq: %v\n", err)
	return exitCode(err)
}

func logWriter(output string, stdout, stderr io.Writer) io.Writer {
	switch strings.ToLower(output) {
	case "stdout":
		return stdout
	case "discard":
		return io.Discard
	default:
		return stderr
	}
}
