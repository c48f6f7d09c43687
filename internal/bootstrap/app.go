package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/GoSim-25-26J-441/dgbp-backend/config"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/artifacts"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/auth"
	authservice "github.com/GoSim-25-26J-441/dgbp-backend/internal/auth/service"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/deployment/provider"
	deployservice "github.com/GoSim-25-26J-441/dgbp-backend/internal/deployment/service"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/generation"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/ledger"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/metrics"
	pipelinedomain "github.com/GoSim-25-26J-441/dgbp-backend/internal/pipeline/domain"
	pipelineservice "github.com/GoSim-25-26J-441/dgbp-backend/internal/pipeline/service"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/retry"
)

// App holds the provider clients and services built once at startup.
type App struct {
	Config   *config.Config
	Store    Store
	Registry *prometheus.Registry
	Recorder *metrics.PrometheusRecorder

	Verifier     auth.TokenVerifier
	Users        *authservice.AuthService
	Accountant   *ledger.Accountant
	Projects     *pipelineservice.ProjectService
	Orchestrator *pipelineservice.Orchestrator
	Files        *artifacts.Service
	Tracker      *deployservice.Tracker
	Reconciler   *deployservice.Reconciler
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.ResolveProjectID(ctx); err != nil {
		return nil, err
	}

	fbApp, err := auth.InitializeFirebase(ctx, &cfg.Firebase, &cfg.GCP)
	if err != nil {
		return nil, err
	}
	authClient, err := fbApp.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firebase auth client: %w", err)
	}

	store, err := OpenStore(ctx, cfg, fbApp)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Store: store}
	ok := false
	defer func() {
		if !ok {
			_ = store.Close()
		}
	}()

	app.Registry = prometheus.NewRegistry()
	app.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.Recorder = metrics.NewPrometheusRecorder(app.Registry)

	rates := ledger.NewRateTable(
		map[pipelinedomain.Tier]float64{
			pipelinedomain.TierReasoning: cfg.Ledger.ReasoningRate,
			pipelinedomain.TierStandard:  cfg.Ledger.StandardRate,
		},
		map[string]pipelinedomain.Tier{
			cfg.Gemini.ReasoningModel: pipelinedomain.TierReasoning,
			cfg.Gemini.DefaultModel:   pipelinedomain.TierStandard,
		},
	)
	app.Accountant = ledger.NewAccountant(store, rates)
	app.Verifier = auth.NewFirebaseVerifier(authClient)
	app.Users = authservice.NewAuthService(store, cfg.Admin.Emails)

	executor, err := newExecutor(cfg, app.Recorder)
	if err != nil {
		return nil, err
	}

	guard := NewGuard(store)
	app.Projects = pipelineservice.NewProjectService(guard, store, store)
	app.Orchestrator = pipelineservice.NewOrchestrator(guard, store, store, executor, app.Accountant, app.Recorder)

	var bucket artifacts.Bucket
	if cfg.GCP.Bucket != "" {
		sc, err := fbApp.Storage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		handle, err := sc.Bucket(cfg.GCP.Bucket)
		if err != nil {
			return nil, fmt.Errorf("failed to open bucket %s: %w", cfg.GCP.Bucket, err)
		}
		bucket = artifacts.NewGCSBucket(handle)
	} else {
		slog.Warn("GCS_BUCKET_NAME not set, file uploads are disabled")
	}
	app.Files = artifacts.NewService(guard, store, bucket, cfg.Deploy.UploadConcurrency)

	builds, err := provider.NewCloudBuild(ctx, provider.Config{
		ProjectID:         cfg.GCP.ProjectID,
		CredentialsFile:   cfg.Firebase.CredentialsPath,
		RequestsPerSecond: cfg.GCP.BuildRPS,
	})
	if err != nil {
		return nil, err
	}
	app.Tracker = deployservice.NewTracker(guard, store, store, builds, deployservice.SpecConfig{
		ProjectID:  cfg.GCP.ProjectID,
		Region:     cfg.GCP.Region,
		Bucket:     cfg.GCP.Bucket,
		Repository: cfg.GCP.Repository,
		Timeout:    cfg.Deploy.BuildTimeout,
	}, app.Recorder)
	app.Reconciler = deployservice.NewReconciler(app.Tracker, store, cfg.Deploy.ReconcileBatch)

	ok = true
	return app, nil
}

func newExecutor(cfg *config.Config, rec metrics.Recorder) (*generation.Executor, error) {
	temperature := cfg.Gemini.Temperature
	llm, err := generation.NewOpenAIProvider(generation.OpenAIConfig{
		APIKey:      cfg.Gemini.APIKey,
		BaseURL:     cfg.Gemini.BaseURL,
		MaxTokens:   cfg.Gemini.MaxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generation provider: %w", err)
	}

	mode, err := retry.ParseMode(cfg.Pipeline.RetryBackoff)
	if err != nil {
		return nil, err
	}
	policy := retry.NewPolicy(mode, cfg.Pipeline.RetryInitial, cfg.Pipeline.RetryMax, cfg.Pipeline.MaxAttempts)
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	return generation.NewExecutor(llm, generation.Models{
		pipelinedomain.TierReasoning: cfg.Gemini.ReasoningModel,
		pipelinedomain.TierStandard:  cfg.Gemini.DefaultModel,
	}, generation.WithPolicy(policy), generation.WithRecorder(rec)), nil
}

func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}
