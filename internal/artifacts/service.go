package artifacts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/GoSim-25-26J-441/dgbp-backend/internal/logging"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/ownership"
	pipelinedomain "github.com/GoSim-25-26J-441/dgbp-backend/internal/pipeline/domain"
)

const DefaultUploadConcurrency = 8

var ErrBucketNotConfigured = errors.New("artifact bucket not configured")

type VersionStore interface {
	UpdateVersion(ctx context.Context, id string, fn func(*pipelinedomain.Version) error) (*pipelinedomain.Version, error)
}

type Service struct {
	guard       *ownership.Guard
	versions    VersionStore
	bucket      Bucket
	concurrency int
	now         func() time.Time
}

func NewService(guard *ownership.Guard, versions VersionStore, bucket Bucket, concurrency int) *Service {
	if concurrency <= 0 {
		concurrency = DefaultUploadConcurrency
	}
	return &Service{guard: guard, versions: versions, bucket: bucket, concurrency: concurrency, now: time.Now}
}

// putTree uploads objects concurrently. The first failure cancels the rest.
func putTree(ctx context.Context, bucket Bucket, objects []object, limit int) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, o := range objects {
		g.Go(func() error {
			return bucket.Put(ctx, o.path, o.contentType, o.data)
		})
	}
	return g.Wait()
}

// PersistFiles stores the source and dist trees under the version prefix
// and marks the version's files as stored.
func (s *Service) PersistFiles(ctx context.Context, versionID, callerID string, source, dist *Tree) (int, error) {
	ctx = logging.WithFields(ctx, logging.Fields{VersionID: versionID, Component: "artifacts"})

	if _, err := s.guard.Authorize(ctx, callerID, ownership.KindVersion, versionID); err != nil {
		return 0, err
	}
	if s.bucket == nil {
		return 0, ErrBucketNotConfigured
	}
	if source.empty() && dist.empty() {
		return 0, fmt.Errorf("%w: no files", ErrInvalidTree)
	}

	prefix := "versions/" + versionID
	src, err := decode(prefix+"/source", source)
	if err != nil {
		return 0, err
	}
	out, err := decode(prefix+"/dist", dist)
	if err != nil {
		return 0, err
	}
	objects := append(src, out...)

	start := s.now()
	if err := putTree(ctx, s.bucket, objects, s.concurrency); err != nil {
		return 0, fmt.Errorf("upload files: %w", err)
	}

	_, err = s.versions.UpdateVersion(ctx, versionID, func(v *pipelinedomain.Version) error {
		v.FilesStored = true
		v.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("mark files stored: %w", err)
	}

	slog.InfoContext(ctx, "files stored",
		"source", len(src),
		"dist", len(out),
		"duration_ms", s.now().Sub(start).Milliseconds())
	return len(objects), nil
}
