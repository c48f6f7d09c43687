package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/GoSim-25-26J-441/dgbp-backend/internal/deployment/domain"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/logging"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/metrics"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/ownership"
	pipelinedomain "github.com/GoSim-25-26J-441/dgbp-backend/internal/pipeline/domain"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/storage"
)

type DeploymentStore interface {
	CreateDeployment(ctx context.Context, d *domain.Deployment) error
	GetDeployment(ctx context.Context, buildID string) (*domain.Deployment, error)
	UpdateDeployment(ctx context.Context, buildID string, fn func(*domain.Deployment) error) (*domain.Deployment, error)
	ListActiveDeployments(ctx context.Context, limit int) ([]domain.Deployment, error)
}

type VersionStore interface {
	UpdateVersion(ctx context.Context, id string, fn func(*pipelinedomain.Version) error) (*pipelinedomain.Version, error)
}

// BuildProvider submits builds and reports their progress.
type BuildProvider interface {
	Submit(ctx context.Context, spec domain.BuildSpec) (string, error)
	GetStatus(ctx context.Context, buildID, serviceName string) (*domain.ProviderStatus, error)
}

// StatusResult is what RefreshStatus returns. Stale is set when the
// provider could not be reached and Record is the last persisted state.
type StatusResult struct {
	Record *domain.Deployment `json:"deployment"`
	Stale  bool               `json:"stale"`
}

type Tracker struct {
	guard       *ownership.Guard
	deployments DeploymentStore
	versions    VersionStore
	provider    BuildProvider
	spec        SpecConfig
	recorder    metrics.Recorder
	tracer      trace.Tracer
	now         func() time.Time
}

func NewTracker(guard *ownership.Guard, deployments DeploymentStore, versions VersionStore, provider BuildProvider, spec SpecConfig, recorder metrics.Recorder) *Tracker {
	return &Tracker{
		guard:       guard,
		deployments: deployments,
		versions:    versions,
		provider:    provider,
		spec:        spec,
		recorder:    metrics.OrNoop(recorder),
		tracer:      otel.Tracer("github.com/GoSim-25-26J-441/dgbp-backend/internal/deployment"),
		now:         time.Now,
	}
}

// Submit starts a build for a validated version whose files are stored.
func (t *Tracker) Submit(ctx context.Context, versionID, callerID string) (*domain.Deployment, error) {
	ctx = logging.WithFields(ctx, logging.Fields{VersionID: versionID, Component: "deployment"})

	version, err := ownership.AuthorizeAs[*pipelinedomain.Version](ctx, t.guard, callerID, ownership.KindVersion, versionID)
	if err != nil {
		return nil, err
	}
	if !version.IsValidated {
		return nil, domain.ErrNotValidated
	}
	if !version.FilesStored {
		return nil, domain.ErrFilesNotStored
	}

	spec := ComposeBuildSpec(t.spec, versionID)

	ctx, span := t.tracer.Start(ctx, "deployment.submit", trace.WithAttributes(
		attribute.String("version_id", versionID),
		attribute.String("service", spec.ServiceName),
	))
	defer span.End()

	buildID, err := t.provider.Submit(ctx, spec)
	if err != nil {
		t.recorder.IncBuildSubmission("failure")
		span.RecordError(err)
		span.SetStatus(codes.Error, "build submission failed")
		return nil, fmt.Errorf("%w: %w", domain.ErrBuildSubmission, err)
	}
	t.recorder.IncBuildSubmission("success")
	ctx = logging.WithFields(ctx, logging.Fields{BuildID: buildID})
	span.SetAttributes(attribute.String("build_id", buildID))

	now := t.now().UTC()
	record := &domain.Deployment{
		BuildID:     buildID,
		VersionID:   versionID,
		UserID:      version.UserID,
		ServiceName: spec.ServiceName,
		Region:      spec.Region,
		Image:       spec.Image,
		Status:      domain.StatusWorking,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := t.deployments.CreateDeployment(ctx, record); err != nil {
		slog.ErrorContext(ctx, "build submitted but record not saved", "error", err)
		return nil, fmt.Errorf("save deployment: %w", err)
	}

	_, err = t.versions.UpdateVersion(ctx, versionID, func(v *pipelinedomain.Version) error {
		v.LastBuild = record.Ref()
		v.UpdatedAt = now
		return nil
	})
	if err != nil {
		slog.WarnContext(ctx, "lastBuild not mirrored", "error", err)
	}

	slog.InfoContext(ctx, "build submitted", "service", spec.ServiceName, "image", spec.Image)
	return record, nil
}

// RefreshStatus returns the deployment with the provider's latest status
// applied. Terminal records are returned without asking the provider.
func (t *Tracker) RefreshStatus(ctx context.Context, buildID, callerID string) (*StatusResult, error) {
	ctx = logging.WithFields(ctx, logging.Fields{BuildID: buildID, Component: "deployment"})

	record, err := ownership.AuthorizeAs[*domain.Deployment](ctx, t.guard, callerID, ownership.KindDeployment, buildID)
	if err != nil {
		return nil, err
	}
	if _, err := t.guard.Authorize(ctx, callerID, ownership.KindVersion, record.VersionID); err != nil {
		return nil, err
	}
	if record.Status.IsTerminal() {
		return &StatusResult{Record: record}, nil
	}

	ps, err := t.provider.GetStatus(ctx, record.BuildID, record.ServiceName)
	if err != nil {
		slog.WarnContext(ctx, "build status unavailable", "error", err)
		return &StatusResult{Record: record, Stale: true}, nil
	}
	if !ps.Known {
		slog.WarnContext(ctx, "unmapped build status", "raw", ps.Raw)
		return &StatusResult{Record: record}, nil
	}

	var from domain.Status
	changed := false
	updated, err := t.deployments.UpdateDeployment(ctx, buildID, func(cur *domain.Deployment) error {
		// the callback reruns on every optimistic retry
		from, changed = "", false
		// a concurrent refresh may have reached a terminal state first
		if cur.Status.IsTerminal() {
			return storage.ErrNoChange
		}
		if cur.Status == ps.Status && (ps.ServiceURL == "" || cur.ServiceURL == ps.ServiceURL) {
			return storage.ErrNoChange
		}
		from, changed = cur.Status, true
		cur.Status = ps.Status
		if ps.ServiceURL != "" {
			cur.ServiceURL = ps.ServiceURL
		}
		cur.UpdatedAt = t.now().UTC()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update deployment: %w", err)
	}
	if !changed {
		return &StatusResult{Record: updated}, nil
	}

	if from != updated.Status {
		t.recorder.IncDeploymentTransition(string(from), string(updated.Status))
		slog.InfoContext(ctx, "deployment status changed", "from", from, "to", updated.Status, "service_url", updated.ServiceURL)
	}
	t.mirror(ctx, updated)
	return &StatusResult{Record: updated}, nil
}

// mirror copies the record onto the version unless a newer build replaced it.
func (t *Tracker) mirror(ctx context.Context, d *domain.Deployment) {
	_, err := t.versions.UpdateVersion(ctx, d.VersionID, func(v *pipelinedomain.Version) error {
		if v.LastBuild != nil && v.LastBuild.ID != d.BuildID {
			return storage.ErrNoChange
		}
		v.LastBuild = d.Ref()
		v.UpdatedAt = t.now().UTC()
		return nil
	})
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		slog.WarnContext(ctx, "lastBuild not mirrored", "error", err)
	}
}
