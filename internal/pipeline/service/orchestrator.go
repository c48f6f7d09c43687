package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/GoSim-25-26J-441/dgbp-backend/internal/ledger"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/logging"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/metrics"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/ownership"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/pipeline/domain"
)

type Outcome string

const (
	OutcomeAdvanced  Outcome = "advanced"
	OutcomeHalted    Outcome = "halted"
	OutcomeCompleted Outcome = "completed"
)

type AdvanceRequest struct {
	// Stage re-runs an earlier stage. Empty means the version's pointer.
	Stage domain.Stage
	// Hints are merged into the stage context under the persisted payloads.
	Hints map[string]any
}

type AdvanceResult struct {
	Stage      domain.Stage             `json:"stage"`
	Outcome    Outcome                  `json:"outcome"`
	Payload    map[string]any           `json:"payload"`
	Validation *domain.ValidationResult `json:"validation,omitempty"`
	Model      string                   `json:"model"`
	Attempts   int                      `json:"attempts"`
	Version    *domain.Version          `json:"version"`
}

type RunResult struct {
	Steps   []*AdvanceResult `json:"steps"`
	Version *domain.Version  `json:"version,omitempty"`
}

type Orchestrator struct {
	guard      *ownership.Guard
	versions   VersionStore
	projects   ProjectStore
	executor   StageExecutor
	accountant UsageRecorder
	recorder   metrics.Recorder
	tracer     trace.Tracer
	now        func() time.Time
}

func NewOrchestrator(guard *ownership.Guard, versions VersionStore, projects ProjectStore, executor StageExecutor, accountant UsageRecorder, recorder metrics.Recorder) *Orchestrator {
	return &Orchestrator{
		guard:      guard,
		versions:   versions,
		projects:   projects,
		executor:   executor,
		accountant: accountant,
		recorder:   metrics.OrNoop(recorder),
		tracer:     otel.Tracer("github.com/GoSim-25-26J-441/dgbp-backend/internal/pipeline"),
		now:        time.Now,
	}
}

// Advance runs one stage of the version and persists its payload together
// with the moved pointer. A failed stage writes nothing.
func (o *Orchestrator) Advance(ctx context.Context, versionID, callerID string, req AdvanceRequest) (*AdvanceResult, error) {
	ctx = logging.WithFields(ctx, logging.Fields{VersionID: versionID, Component: "pipeline"})

	version, err := ownership.AuthorizeAs[*domain.Version](ctx, o.guard, callerID, ownership.KindVersion, versionID)
	if err != nil {
		return nil, err
	}
	stage, err := resolveStage(version, req.Stage)
	if err != nil {
		return nil, err
	}
	project, err := ownership.AuthorizeAs[*domain.Project](ctx, o.guard, callerID, ownership.KindProject, version.ProjectID)
	if err != nil {
		return nil, err
	}

	spec, _ := domain.Spec(stage)
	stageCtx := BuildStageContext(project.Idea, version, stage, req.Hints)

	ctx, span := o.tracer.Start(ctx, "pipeline.stage", trace.WithAttributes(
		attribute.String("stage", string(stage)),
		attribute.String("version_id", versionID),
		attribute.String("tier", string(spec.Tier)),
	))
	defer span.End()

	start := o.now()
	res, err := o.executor.Execute(ctx, stage, stageCtx, spec.Tier)
	if err != nil {
		o.recorder.ObserveStage(string(stage), "failure", o.now().Sub(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "stage execution failed")
		slog.WarnContext(ctx, "stage failed", "stage", stage, "error", err)
		return nil, &domain.StageError{Stage: stage, Err: err}
	}

	payload := res.Payload
	var validation *domain.ValidationResult
	if stage == domain.StageValidate {
		v, adjusted := domain.EvaluateValidation(payload)
		validation, payload = &v, adjusted
	}

	var halted bool
	updated, err := o.versions.UpdateVersion(ctx, versionID, func(cur *domain.Version) error {
		halted = cur.ApplyStageResult(stage, payload, o.now().UTC())
		return nil
	})
	if err != nil {
		o.recorder.ObserveStage(string(stage), "failure", o.now().Sub(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist stage result")
		return nil, &domain.StageError{Stage: stage, Err: fmt.Errorf("persist result: %w", err)}
	}

	o.recordUsage(ctx, callerID, project.ID, res.Model, res.InputTokens, res.OutputTokens)

	outcome := OutcomeAdvanced
	switch {
	case halted:
		outcome = OutcomeHalted
	case stage == domain.StageValidate:
		outcome = OutcomeCompleted
	}
	o.recorder.ObserveStage(string(stage), string(outcome), o.now().Sub(start))
	span.SetAttributes(attribute.String("outcome", string(outcome)), attribute.Int("attempts", res.Attempts))

	slog.InfoContext(ctx, "stage finished",
		"stage", stage,
		"outcome", outcome,
		"next_stage", updated.Stage,
		"attempts", res.Attempts,
		"model", res.Model)

	return &AdvanceResult{
		Stage:      stage,
		Outcome:    outcome,
		Payload:    payload,
		Validation: validation,
		Model:      res.Model,
		Attempts:   res.Attempts,
		Version:    updated,
	}, nil
}

// Run advances from the pointer until the pipeline completes, halts on
// validation, or a stage fails. Completed steps stay persisted on failure.
func (o *Orchestrator) Run(ctx context.Context, versionID, callerID string) (*RunResult, error) {
	out := &RunResult{}
	for range domain.Stages() {
		res, err := o.Advance(ctx, versionID, callerID, AdvanceRequest{})
		if err != nil {
			return out, err
		}
		out.Steps = append(out.Steps, res)
		out.Version = res.Version
		if res.Outcome != OutcomeAdvanced || res.Version.Stage == domain.StageComplete {
			break
		}
	}
	return out, nil
}

func (o *Orchestrator) recordUsage(ctx context.Context, callerID, projectID, model string, in, out int) {
	if o.accountant == nil {
		return
	}
	_, err := o.accountant.Record(ctx, ledger.Usage{
		CallerID:     callerID,
		ProjectID:    projectID,
		ModelID:      model,
		InputTokens:  in,
		OutputTokens: out,
	})
	if err != nil {
		o.recorder.IncLedgerFailure()
		slog.ErrorContext(ctx, "usage not recorded", "model", model, "tokens", in+out, "error", err)
	}
}

// resolveStage picks the stage to run. Only the pointer stage or an
// earlier one may run.
func resolveStage(v *domain.Version, requested domain.Stage) (domain.Stage, error) {
	if requested == "" {
		if v.Stage == domain.StageComplete {
			return "", domain.ErrPipelineComplete
		}
		requested = v.Stage
	}
	if !requested.Valid() {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidStage, requested)
	}
	if !requested.Runnable() {
		return "", fmt.Errorf("%w: %s cannot be executed", domain.ErrStageOutOfOrder, requested)
	}
	if requested.Index() > v.Stage.Index() {
		return "", fmt.Errorf("%w: %s requested while version is at %s", domain.ErrStageOutOfOrder, requested, v.Stage)
	}
	return requested, nil
}

// BuildStageContext merges the idea, caller hints and the payloads of every
// stage before this one. Persisted payloads override hints of the same key.
func BuildStageContext(idea string, v *domain.Version, stage domain.Stage, hints map[string]any) map[string]any {
	ctx := make(map[string]any, len(hints)+8)
	for k, val := range hints {
		ctx[k] = val
	}
	for _, spec := range domain.Stages() {
		if spec.Stage.Index() >= stage.Index() {
			break
		}
		if payload, ok := v.Result(spec.Stage); ok {
			ctx[spec.Field] = payload
		}
	}
	ctx["idea"] = idea
	return ctx
}
