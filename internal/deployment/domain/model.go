package domain

import (
	"time"

	pipelinedomain "github.com/GoSim-25-26J-441/dgbp-backend/internal/pipeline/domain"
)

// Status is the deployment lifecycle state.
type Status string

const (
	StatusQueued  Status = "QUEUED"
	StatusWorking Status = "WORKING"
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
)

// IsTerminal reports whether s can no longer change.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailure
}

func (s Status) Valid() bool {
	switch s {
	case StatusQueued, StatusWorking, StatusSuccess, StatusFailure:
		return true
	}
	return false
}

// Deployment is keyed by the build id the provider assigned.
type Deployment struct {
	BuildID     string    `json:"buildId" firestore:"buildId"`
	VersionID   string    `json:"versionId" firestore:"versionId"`
	UserID      string    `json:"userId" firestore:"userId"`
	ServiceName string    `json:"serviceName" firestore:"serviceName"`
	Region      string    `json:"region" firestore:"region"`
	Image       string    `json:"image" firestore:"image"`
	Status      Status    `json:"status" firestore:"status"`
	ServiceURL  string    `json:"serviceUrl,omitempty" firestore:"serviceUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" firestore:"updatedAt"`
}

func (d *Deployment) OwnerID() string { return d.UserID }

// Ref is the summary mirrored onto the version.
func (d *Deployment) Ref() *pipelinedomain.BuildRef {
	return &pipelinedomain.BuildRef{
		ID:          d.BuildID,
		Status:      string(d.Status),
		ServiceName: d.ServiceName,
		ServiceURL:  d.ServiceURL,
		Region:      d.Region,
		CreatedAt:   d.CreatedAt,
	}
}

// BuildSpec is the provider-neutral description of one build.
type BuildSpec struct {
	ProjectID   string
	Region      string
	ServiceName string
	Image       string
	SourceURI   string
	Steps       []BuildStep
	Timeout     time.Duration
}

type BuildStep struct {
	ID         string
	Name       string
	Entrypoint string
	Args       []string
}

// ProviderStatus is what the build provider reports. Known is false when
// the provider returned a status with no mapping.
type ProviderStatus struct {
	Status     Status
	Known      bool
	Raw        string
	ServiceURL string
}
