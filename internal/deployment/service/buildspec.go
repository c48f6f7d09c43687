package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/GoSim-25-26J-441/dgbp-backend/internal/deployment/domain"
)

const (
	DefaultRepository   = "dgbp-apps"
	defaultBuildTimeout = 20 * time.Minute
	serviceNamePrefix   = "biz-"
	serviceNameIDChars  = 10
)

// SpecConfig carries the project-level values every build spec is derived from.
type SpecConfig struct {
	ProjectID  string
	Region     string
	Bucket     string
	Repository string
	Timeout    time.Duration
}

// ServiceName derives the Cloud Run service name from the version id.
func ServiceName(versionID string) string {
	id := strings.ToLower(versionID)
	if len(id) > serviceNameIDChars {
		id = id[:serviceNameIDChars]
	}
	return serviceNamePrefix + id
}

// ComposeBuildSpec produces the same spec for the same version and config.
func ComposeBuildSpec(cfg SpecConfig, versionID string) domain.BuildSpec {
	repo := cfg.Repository
	if repo == "" {
		repo = DefaultRepository
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultBuildTimeout
	}

	service := ServiceName(versionID)
	image := fmt.Sprintf("%s-docker.pkg.dev/%s/%s/%s:latest", cfg.Region, cfg.ProjectID, repo, service)
	source := fmt.Sprintf("gs://%s/versions/%s/source", cfg.Bucket, versionID)

	return domain.BuildSpec{
		ProjectID:   cfg.ProjectID,
		Region:      cfg.Region,
		ServiceName: service,
		Image:       image,
		SourceURI:   source,
		Timeout:     timeout,
		Steps: []domain.BuildStep{
			{ID: "fetch-source", Name: "gcr.io/cloud-builders/gsutil", Args: []string{"rsync", "-r", source, "."}},
			{ID: "install", Name: "gcr.io/cloud-builders/npm", Args: []string{"install"}},
			{ID: "build", Name: "gcr.io/cloud-builders/npm", Args: []string{"run", "build"}},
			{ID: "image", Name: "gcr.io/cloud-builders/docker", Args: []string{"build", "-t", image, "."}},
			{ID: "push", Name: "gcr.io/cloud-builders/docker", Args: []string{"push", image}},
			{ID: "deploy", Name: "gcr.io/google.com/cloudsdktool/cloud-sdk", Entrypoint: "gcloud", Args: []string{
				"run", "deploy", service,
				"--image", image,
				"--platform", "managed",
				"--region", cfg.Region,
				"--allow-unauthenticated",
			}},
		},
	}
}
