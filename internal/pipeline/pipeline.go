// Package pipeline stages, compiles, runs and formats submitted snippets.
//
// An invocation walks a linear state machine with early exits:
//
//	Staging -> Compiling -> Running -> Formatting -> Done
//
// Any non-success transition goes straight to Done carrying the events
// accumulated so far. The workspace is released on every exit path.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"gleam-playground/internal/monitor"
	"gleam-playground/internal/shell"
	"gleam-playground/internal/toolchain"
	"gleam-playground/internal/workspace"
)

// Timeouts bound each subprocess stage. Zero disables the deadline for
// that stage.
type Timeouts struct {
	Compile time.Duration
	Run     time.Duration
	Format  time.Duration
}

// Result is what one pipeline invocation produces.
type Result struct {
	// Events is the ordered log across stages: compile events, then run
	// events, then format events. Order within a stage follows capture
	// order.
	Events []Event
	// Formatted holds the source file contents after the format stage
	// ran. Nil when no format stage was reached. Populated best-effort:
	// a formatter non-zero exit still yields whatever is on disk.
	Formatted *string
}

// Pipeline executes snippets in ephemeral workspaces via the toolchain.
type Pipeline struct {
	workspaces *workspace.Manager
	tools      toolchain.Toolchain
	timeouts   Timeouts
	metrics    *monitor.Metrics
	tracer     *monitor.Tracer

	// run is swapped out in tests so no real toolchain is needed.
	run func(context.Context, shell.Command) (*shell.Result, error)
}

// New creates a pipeline over the given workspace manager and toolchain.
func New(workspaces *workspace.Manager, tools toolchain.Toolchain, timeouts Timeouts, metrics *monitor.Metrics) *Pipeline {
	return &Pipeline{
		workspaces: workspaces,
		tools:      tools,
		timeouts:   timeouts,
		metrics:    metrics,
		tracer:     monitor.NewTracer(),
		run:        shell.Run,
	}
}

// Execute compiles and runs code, optionally formatting it afterwards.
// A compile or run failure is not an error: it ends the stage sequence
// early and the diagnostics come back as events. The error return is
// reserved for infrastructure faults (staging, subprocess spawn).
func (p *Pipeline) Execute(ctx context.Context, code string, format bool) (*Result, error) {
	runID := uuid.New().String()
	logger := log.With().Str("run_id", runID).Logger()

	p.metrics.ActiveRuns.Inc()
	defer p.metrics.ActiveRuns.Dec()

	ctx, span := p.tracer.StartSpan(ctx, "execute", monitor.AttrRunID.String(runID))
	defer span.End()

	ws, err := p.stage(runID, logger, code)
	if err != nil {
		p.metrics.RecordRun("setup_error")
		return nil, err
	}
	defer ws.Release()

	var events []Event

	compile := p.tools.Compile(ws.Root)
	compile.Dir = ws.ProjectDir()
	res, err := p.runStage(ctx, logger, runID, StageCompiling, compile, p.timeouts.Compile)
	if err != nil {
		p.metrics.RecordRun("error")
		return nil, err
	}
	events = appendEvents(events, res)
	if !res.OK {
		logger.Info().Msg("compile failed, skipping run")
		p.metrics.RecordRun("compile_failed")
		return &Result{Events: events}, nil
	}

	runCmd := p.tools.Run()
	runCmd.Dir = ws.ProjectDir()
	res, err = p.runStage(ctx, logger, runID, StageRunning, runCmd, p.timeouts.Run)
	if err != nil {
		p.metrics.RecordRun("error")
		return nil, err
	}
	events = appendEvents(events, res)
	if !res.OK {
		logger.Info().Msg("run failed, skipping format")
		p.metrics.RecordRun("run_failed")
		return &Result{Events: events}, nil
	}

	result := &Result{Events: events}
	if format {
		result.Events, result.Formatted = p.formatStage(ctx, logger, runID, ws, events)
	}

	p.metrics.RecordRun("success")
	return result, nil
}

// Format stages code and runs only the formatter over it.
func (p *Pipeline) Format(ctx context.Context, code string) (*Result, error) {
	runID := uuid.New().String()
	logger := log.With().Str("run_id", runID).Logger()

	p.metrics.ActiveRuns.Inc()
	defer p.metrics.ActiveRuns.Dec()

	ctx, span := p.tracer.StartSpan(ctx, "format", monitor.AttrRunID.String(runID))
	defer span.End()

	ws, err := p.stage(runID, logger, code)
	if err != nil {
		p.metrics.RecordRun("setup_error")
		return nil, err
	}
	defer ws.Release()

	events, formatted := p.formatStage(ctx, logger, runID, ws, nil)
	p.metrics.RecordRun("success")
	return &Result{Events: events, Formatted: formatted}, nil
}

// stage acquires a workspace and injects the submitted code.
func (p *Pipeline) stage(runID string, logger zerolog.Logger, code string) (*workspace.Workspace, error) {
	start := time.Now()

	ws, err := p.workspaces.Acquire()
	if err != nil {
		logger.Error().Err(err).Msg("workspace staging failed")
		return nil, &PipelineError{RunID: runID, Stage: StageStaging, Err: err}
	}

	if err := ws.Inject(p.tools.SourceFile, code); err != nil {
		ws.Release()
		logger.Error().Err(err).Msg("source injection failed")
		return nil, &PipelineError{RunID: runID, Stage: StageStaging, Err: err}
	}

	p.metrics.RecordStage(StageStaging, time.Since(start).Seconds(), true)
	logger.Debug().Str("root", ws.Root).Msg("workspace staged")
	return ws, nil
}

// runStage executes one subprocess stage. Non-zero exit and timeout come
// back as a Result; only spawn failure becomes an error.
func (p *Pipeline) runStage(ctx context.Context, logger zerolog.Logger, runID, stage string, cmd shell.Command, timeout time.Duration) (*shell.Result, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ctx, span := p.tracer.StartSpan(ctx, stage, monitor.AttrStage.String(stage))
	defer span.End()

	start := time.Now()
	res, err := p.run(ctx, cmd)
	elapsed := time.Since(start)

	switch {
	case errors.Is(err, shell.ErrTimeout):
		// The partial output is kept; the cut-off is surfaced to the
		// user as one more stderr line.
		note := fmt.Sprintf("%s stage timed out after %s", stage, timeout)
		if emptyCapture(res.Stderr) {
			res.Stderr = []string{note}
		} else {
			res.Stderr = append(res.Stderr, note)
		}
	case err != nil:
		logger.Error().Err(err).Str("stage", stage).Msg("subprocess spawn failed")
		p.metrics.RecordStage(stage, elapsed.Seconds(), false)
		return nil, &PipelineError{RunID: runID, Stage: stage, Err: err}
	}

	span.SetAttributes(monitor.AttrStageOK.Bool(res.OK))
	p.metrics.RecordStage(stage, elapsed.Seconds(), res.OK)
	logger.Info().
		Str("stage", stage).
		Bool("ok", res.OK).
		Dur("duration", elapsed).
		Msg("stage completed")

	return res, nil
}

// formatStage runs the formatter and reads the (possibly rewritten)
// source back as the canonical formatted result. Best-effort throughout:
// a formatter failure never invalidates the result already established
// by earlier stages, and the formatted field reflects whatever is on
// disk afterwards.
func (p *Pipeline) formatStage(ctx context.Context, logger zerolog.Logger, runID string, ws *workspace.Workspace, events []Event) ([]Event, *string) {
	cmd := p.tools.Format()
	cmd.Dir = ws.ProjectDir()

	res, err := p.runStage(ctx, logger, runID, StageFormatting, cmd, p.timeouts.Format)
	if err != nil {
		logger.Warn().Err(err).Msg("formatter could not be started")
	} else {
		events = appendEvents(events, res)
	}

	formatted, err := ws.ReadFile(p.tools.SourceFile)
	if err != nil {
		logger.Warn().Err(err).Msg("formatted source unreadable")
		return events, nil
	}
	return events, &formatted
}
