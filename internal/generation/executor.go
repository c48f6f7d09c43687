package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoSim-25-26J-441/dgbp-backend/internal/metrics"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/pipeline/domain"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/retry"
)

// Models maps a tier to the provider model id used for it.
type Models map[domain.Tier]string

// Usage estimates charged when the provider reports no token counts.
var estimatedUsage = map[domain.Tier][2]int{
	domain.TierReasoning: {600, 1200},
	domain.TierStandard:  {300, 400},
}

type Result struct {
	Stage        domain.Stage
	Payload      map[string]any
	Model        string
	InputTokens  int
	OutputTokens int
	Attempts     int
}

type Executor struct {
	provider Provider
	models   Models
	policy   retry.Policy
	recorder metrics.Recorder
	sleep    func(ctx context.Context, d time.Duration) error
}

type Option func(*Executor)

func WithPolicy(p retry.Policy) Option { return func(e *Executor) { e.policy = p } }

func WithRecorder(r metrics.Recorder) Option {
	return func(e *Executor) { e.recorder = metrics.OrNoop(r) }
}

func NewExecutor(p Provider, models Models, opts ...Option) *Executor {
	e := &Executor{
		provider: p,
		models:   models,
		policy:   retry.DefaultPolicy(),
		recorder: metrics.NoopRecorder{},
		sleep:    retry.Sleep,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.policy.MaxAttempts < 1 {
		e.policy.MaxAttempts = 1
	}
	return e
}

// Execute runs one stage against the provider and returns a payload that
// passed the stage's required-field check. Nothing is persisted here.
func (e *Executor) Execute(ctx context.Context, stage domain.Stage, stageCtx map[string]any, tier domain.Tier) (*Result, error) {
	spec, ok := domain.Spec(stage)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidStage, stage)
	}
	model := e.models[tier]
	if model == "" {
		return nil, fmt.Errorf("no model configured for tier %q", tier)
	}
	prompt, err := BuildPrompt(spec, stageCtx)
	if err != nil {
		return nil, err
	}
	c := contracts[stage]
	req := Request{Model: model, Prompt: prompt, SchemaName: c.name, Schema: c.schema}

	var lastErr error
	for attempt := 1; attempt <= e.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			e.recorder.IncGenerationRetry(string(stage))
			if err := e.sleep(ctx, e.policy.Delay(attempt-1)); err != nil {
				return nil, fmt.Errorf("stage %s: %w", stage, err)
			}
		}

		resp, err := e.provider.Generate(ctx, req)
		if err == nil {
			var payload map[string]any
			payload, err = decodePayload(spec, resp.Payload)
			if err == nil {
				in, out := resp.InputTokens, resp.OutputTokens
				if in == 0 && out == 0 {
					est := estimatedUsage[tier]
					in, out = est[0], est[1]
				}
				return &Result{
					Stage:        stage,
					Payload:      payload,
					Model:        model,
					InputTokens:  in,
					OutputTokens: out,
					Attempts:     attempt,
				}, nil
			}
		}

		lastErr = err
		slog.WarnContext(ctx, "generation attempt failed",
			"stage", stage,
			"attempt", attempt,
			"max_attempts", e.policy.MaxAttempts,
			"error", err)
	}

	e.recorder.IncGenerationExhausted(string(stage))
	return nil, fmt.Errorf("%w: stage %s after %d attempts: %w", ErrGenerationExhausted, stage, e.policy.MaxAttempts, lastErr)
}

// BuildPrompt renders the prompt for a stage. The same inputs always give
// the same text since encoding/json sorts map keys.
func BuildPrompt(spec domain.StageSpec, stageCtx map[string]any) (string, error) {
	idea, _ := stageCtx["idea"].(string)
	ctxJSON, err := json.Marshal(stageCtx)
	if err != nil {
		return "", fmt.Errorf("encode stage context: %w", err)
	}
	return fmt.Sprintf("You are an AI Architect. Stage: %s. Idea: %s. Context: %s.", spec.Label, idea, ctxJSON), nil
}
