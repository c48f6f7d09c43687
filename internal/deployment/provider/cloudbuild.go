package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/cloudbuild/v1"
	"google.golang.org/api/option"
	run "google.golang.org/api/run/v2"

	"github.com/GoSim-25-26J-441/dgbp-backend/internal/deployment/domain"
)

const (
	defaultCallTimeout = 15 * time.Second
	defaultRPS         = 5
	defaultBurst       = 10
)

type Config struct {
	ProjectID       string
	CredentialsFile string
	CallTimeout     time.Duration
	// RequestsPerSecond bounds calls against the Cloud Build and Cloud Run APIs.
	RequestsPerSecond float64
	Burst             int
}

// CloudBuild submits builds to Cloud Build and resolves Cloud Run URLs.
type CloudBuild struct {
	projectID string
	builds    *cloudbuild.Service
	run       *run.Service
	limiter   *rate.Limiter
	timeout   time.Duration
}

// NewCloudBuild creates both API clients. Without explicit client options
// it loads credentials from CredentialsFile or the environment defaults.
func NewCloudBuild(ctx context.Context, cfg Config, opts ...option.ClientOption) (*CloudBuild, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("cloud build: project id is required")
	}
	if len(opts) == 0 {
		credOpt, err := credentials(ctx, cfg.CredentialsFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, credOpt)
	}

	builds, err := cloudbuild.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud build client: %w", err)
	}
	runSvc, err := run.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud run client: %w", err)
	}

	rps, burst := cfg.RequestsPerSecond, cfg.Burst
	if rps <= 0 {
		rps = defaultRPS
	}
	if burst <= 0 {
		burst = defaultBurst
	}
	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}

	return &CloudBuild{
		projectID: cfg.ProjectID,
		builds:    builds,
		run:       runSvc,
		limiter:   rate.NewLimiter(rate.Limit(rps), burst),
		timeout:   timeout,
	}, nil
}

func credentials(ctx context.Context, file string) (option.ClientOption, error) {
	if file != "" {
		return option.WithCredentialsFile(file), nil
	}
	creds, err := google.FindDefaultCredentials(ctx, cloudbuild.CloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("failed to find default credentials: %w", err)
	}
	return option.WithCredentials(creds), nil
}

func (c *CloudBuild) call(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	return ctx, cancel, nil
}

// Submit creates the build and returns the id Cloud Build assigned.
func (c *CloudBuild) Submit(ctx context.Context, spec domain.BuildSpec) (string, error) {
	ctx, cancel, err := c.call(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()

	project := spec.ProjectID
	if project == "" {
		project = c.projectID
	}
	op, err := c.builds.Projects.Builds.Create(project, toBuild(spec)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create build: %w", err)
	}

	var meta cloudbuild.BuildOperationMetadata
	if err := json.Unmarshal(op.Metadata, &meta); err != nil {
		return "", fmt.Errorf("decode build operation: %w", err)
	}
	if meta.Build == nil || meta.Build.Id == "" {
		return "", errors.New("build operation carries no build id")
	}
	return meta.Build.Id, nil
}

// GetStatus reports the build status. On SUCCESS it also resolves the
// service URL; a failed lookup leaves ServiceURL empty.
func (c *CloudBuild) GetStatus(ctx context.Context, buildID, serviceName string) (*domain.ProviderStatus, error) {
	cctx, cancel, err := c.call(ctx)
	if err != nil {
		return nil, err
	}
	build, err := c.builds.Projects.Builds.Get(c.projectID, buildID).Context(cctx).Do()
	cancel()
	if err != nil {
		return nil, fmt.Errorf("get build %s: %w", buildID, err)
	}

	ps := MapStatus(build.Status)
	if ps.Status == domain.StatusSuccess && serviceName != "" {
		region := buildRegion(build)
		if url, err := c.serviceURL(ctx, region, serviceName); err == nil {
			ps.ServiceURL = url
		}
	}
	return ps, nil
}

func (c *CloudBuild) serviceURL(ctx context.Context, region, serviceName string) (string, error) {
	ctx, cancel, err := c.call(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()

	name := fmt.Sprintf("projects/%s/locations/%s/services/%s", c.projectID, region, serviceName)
	svc, err := c.run.Projects.Locations.Services.Get(name).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get service %s: %w", name, err)
	}
	return svc.Uri, nil
}

// MapStatus converts a Cloud Build status string.
func MapStatus(raw string) *domain.ProviderStatus {
	ps := &domain.ProviderStatus{Raw: raw, Known: true}
	switch strings.ToUpper(raw) {
	case "QUEUED", "PENDING":
		ps.Status = domain.StatusQueued
	case "WORKING":
		ps.Status = domain.StatusWorking
	case "SUCCESS":
		ps.Status = domain.StatusSuccess
	case "FAILURE", "INTERNAL_ERROR", "TIMEOUT", "CANCELLED", "EXPIRED":
		ps.Status = domain.StatusFailure
	default:
		ps.Known = false
	}
	return ps
}

const regionSubstitution = "_REGION"

func toBuild(spec domain.BuildSpec) *cloudbuild.Build {
	steps := make([]*cloudbuild.BuildStep, 0, len(spec.Steps))
	for _, s := range spec.Steps {
		steps = append(steps, &cloudbuild.BuildStep{
			Id:         s.ID,
			Name:       s.Name,
			Entrypoint: s.Entrypoint,
			Args:       s.Args,
		})
	}
	b := &cloudbuild.Build{
		Steps:         steps,
		Substitutions: map[string]string{regionSubstitution: spec.Region},
		Options: &cloudbuild.BuildOptions{
			Logging:            "CLOUD_LOGGING_ONLY",
			SubstitutionOption: "ALLOW_LOOSE",
		},
	}
	if spec.Timeout > 0 {
		b.Timeout = strconv.Itoa(int(spec.Timeout.Seconds())) + "s"
	}
	return b
}

// buildRegion recovers the deploy region recorded at submission.
func buildRegion(b *cloudbuild.Build) string {
	if r := b.Substitutions[regionSubstitution]; r != "" {
		return r
	}
	return "us-central1"
}
