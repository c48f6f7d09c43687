package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/dgbp-backend/internal/deployment/domain"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/metrics"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/ownership"
	pipelinedomain "github.com/GoSim-25-26J-441/dgbp-backend/internal/pipeline/domain"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/storage/redisdb"
)

type statusReply struct {
	status *domain.ProviderStatus
	err    error
}

type fakeProvider struct {
	mu        sync.Mutex
	submitErr error
	submitted []domain.BuildSpec
	replies   []statusReply
	calls     int
	onStatus  func()
}

func (p *fakeProvider) Submit(_ context.Context, spec domain.BuildSpec) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.submitErr != nil {
		return "", p.submitErr
	}
	p.submitted = append(p.submitted, spec)
	return "build-" + string(rune('0'+len(p.submitted))), nil
}

func (p *fakeProvider) GetStatus(_ context.Context, _, _ string) (*domain.ProviderStatus, error) {
	p.mu.Lock()
	p.calls++
	var r statusReply
	if len(p.replies) > 0 {
		r = p.replies[0]
		if len(p.replies) > 1 {
			p.replies = p.replies[1:]
		}
	}
	hook := p.onStatus
	p.mu.Unlock()
	if hook != nil {
		hook()
	}
	return r.status, r.err
}

func (p *fakeProvider) statusCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func known(s domain.Status) statusReply {
	return statusReply{status: &domain.ProviderStatus{Status: s, Known: true, Raw: string(s)}}
}

var testSpec = SpecConfig{ProjectID: "dgbp-prod", Region: "us-central1", Bucket: "dgbp-files"}

func setupTracker(t *testing.T) (*Tracker, *redisdb.Store, *fakeProvider) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	store := redisdb.New(client)
	guard := ownership.NewGuard().
		Register(ownership.KindVersion, ownership.LookupOf(store.GetVersion)).
		Register(ownership.KindDeployment, ownership.LookupOf(store.GetDeployment))

	provider := &fakeProvider{}
	return NewTracker(guard, store, store, provider, testSpec, nil), store, provider
}

func seedVersion(t *testing.T, store *redisdb.Store, id, owner string, validated, files bool) {
	t.Helper()
	now := time.Now().UTC()
	p := &pipelinedomain.Project{ID: "p-" + id, UserID: owner, WorkspaceID: "w1", Idea: "coffee subscription", CurrentVersionID: id, CreatedAt: now}
	v := pipelinedomain.NewVersion(id, p.ID, owner, now)
	v.IsValidated = validated
	v.FilesStored = files
	require.NoError(t, store.CreateProject(context.Background(), p, v))
}

func TestSubmitPreconditions(t *testing.T) {
	tracker, store, provider := setupTracker(t)
	ctx := context.Background()

	seedVersion(t, store, "v-unvalidated", "u1", false, true)
	_, err := tracker.Submit(ctx, "v-unvalidated", "u1")
	assert.ErrorIs(t, err, domain.ErrNotValidated)
	assert.ErrorIs(t, err, domain.ErrPrecondition)

	seedVersion(t, store, "v-nofiles", "u1", true, false)
	_, err = tracker.Submit(ctx, "v-nofiles", "u1")
	assert.ErrorIs(t, err, domain.ErrFilesNotStored)

	_, err = tracker.Submit(ctx, "v-nofiles", "u2")
	assert.ErrorIs(t, err, ownership.ErrForbidden)

	assert.Empty(t, provider.submitted)
}

func TestSubmitPersistsWorkingRecord(t *testing.T) {
	tracker, store, provider := setupTracker(t)
	ctx := context.Background()
	seedVersion(t, store, "0123456789abcdef", "u1", true, true)

	d, err := tracker.Submit(ctx, "0123456789abcdef", "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusWorking, d.Status)
	assert.Equal(t, "biz-0123456789", d.ServiceName)
	require.Len(t, provider.submitted, 1)
	assert.Equal(t, "gs://dgbp-files/versions/0123456789abcdef/source", provider.submitted[0].SourceURI)

	saved, err := store.GetDeployment(ctx, d.BuildID)
	require.NoError(t, err)
	assert.Equal(t, "u1", saved.UserID)

	v, err := store.GetVersion(ctx, "0123456789abcdef")
	require.NoError(t, err)
	require.NotNil(t, v.LastBuild)
	assert.Equal(t, d.BuildID, v.LastBuild.ID)
	assert.Equal(t, "WORKING", v.LastBuild.Status)
}

func TestSubmitProviderFailure(t *testing.T) {
	tracker, store, provider := setupTracker(t)
	seedVersion(t, store, "v1", "u1", true, true)
	provider.submitErr = errors.New("quota exceeded")

	_, err := tracker.Submit(context.Background(), "v1", "u1")
	assert.ErrorIs(t, err, domain.ErrBuildSubmission)

	active, err := store.ListActiveDeployments(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestRefreshTerminalIsSticky(t *testing.T) {
	tracker, store, provider := setupTracker(t)
	ctx := context.Background()
	seedVersion(t, store, "v1", "u1", true, true)
	d, err := tracker.Submit(ctx, "v1", "u1")
	require.NoError(t, err)

	success := known(domain.StatusSuccess)
	success.status.ServiceURL = "https://biz-v1.a.run.app"
	provider.replies = []statusReply{
		known(domain.StatusQueued),
		success,
		known(domain.StatusFailure),
		{err: errors.New("flaky")},
	}

	res, err := tracker.RefreshStatus(ctx, d.BuildID, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusQueued, res.Record.Status)

	res, err = tracker.RefreshStatus(ctx, d.BuildID, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, res.Record.Status)
	assert.Equal(t, "https://biz-v1.a.run.app", res.Record.ServiceURL)

	for range 3 {
		res, err = tracker.RefreshStatus(ctx, d.BuildID, "u1")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusSuccess, res.Record.Status)
		assert.False(t, res.Stale)
	}
	assert.Equal(t, 2, provider.statusCalls())

	v, err := store.GetVersion(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS", v.LastBuild.Status)
	assert.Equal(t, "https://biz-v1.a.run.app", v.LastBuild.ServiceURL)
}

func TestRefreshDoesNotOverwriteConcurrentTerminal(t *testing.T) {
	tracker, store, provider := setupTracker(t)
	ctx := context.Background()
	seedVersion(t, store, "v1", "u1", true, true)
	d, err := tracker.Submit(ctx, "v1", "u1")
	require.NoError(t, err)

	// another refresh lands SUCCESS while this one is waiting on the provider
	provider.onStatus = func() {
		_, err := store.UpdateDeployment(ctx, d.BuildID, func(cur *domain.Deployment) error {
			cur.Status = domain.StatusSuccess
			return nil
		})
		require.NoError(t, err)
	}
	provider.replies = []statusReply{known(domain.StatusFailure)}

	res, err := tracker.RefreshStatus(ctx, d.BuildID, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, res.Record.Status)
}

func TestRefreshStaleOnProviderError(t *testing.T) {
	tracker, store, provider := setupTracker(t)
	ctx := context.Background()
	seedVersion(t, store, "v1", "u1", true, true)
	d, err := tracker.Submit(ctx, "v1", "u1")
	require.NoError(t, err)
	provider.replies = []statusReply{{err: errors.New("unavailable")}}

	res, err := tracker.RefreshStatus(ctx, d.BuildID, "u1")
	require.NoError(t, err)
	assert.True(t, res.Stale)
	assert.Equal(t, domain.StatusWorking, res.Record.Status)
}

func TestRefreshUnknownStatusKeepsRecord(t *testing.T) {
	tracker, store, provider := setupTracker(t)
	ctx := context.Background()
	seedVersion(t, store, "v1", "u1", true, true)
	d, err := tracker.Submit(ctx, "v1", "u1")
	require.NoError(t, err)
	provider.replies = []statusReply{{status: &domain.ProviderStatus{Raw: "STATUS_UNKNOWN"}}}

	res, err := tracker.RefreshStatus(ctx, d.BuildID, "u1")
	require.NoError(t, err)
	assert.False(t, res.Stale)
	assert.Equal(t, domain.StatusWorking, res.Record.Status)
}

func TestRefreshOwnership(t *testing.T) {
	tracker, store, _ := setupTracker(t)
	ctx := context.Background()
	seedVersion(t, store, "v1", "u1", true, true)
	d, err := tracker.Submit(ctx, "v1", "u1")
	require.NoError(t, err)

	_, err = tracker.RefreshStatus(ctx, d.BuildID, "u2")
	assert.ErrorIs(t, err, ownership.ErrForbidden)

	_, err = tracker.RefreshStatus(ctx, "missing", "u1")
	assert.ErrorIs(t, err, ownership.ErrNotFound)

	_, err = tracker.RefreshStatus(ctx, d.BuildID, "")
	assert.ErrorIs(t, err, ownership.ErrUnauthorized)
}

func TestComposeBuildSpecIsDeterministic(t *testing.T) {
	a := ComposeBuildSpec(testSpec, "ABCDEFGHIJKLMN")
	b := ComposeBuildSpec(testSpec, "ABCDEFGHIJKLMN")
	assert.Equal(t, a, b)
	assert.Equal(t, "biz-abcdefghij", a.ServiceName)
	assert.Equal(t, "us-central1-docker.pkg.dev/dgbp-prod/dgbp-apps/biz-abcdefghij:latest", a.Image)

	require.Len(t, a.Steps, 6)
	assert.Equal(t, []string{"rsync", "-r", "gs://dgbp-files/versions/ABCDEFGHIJKLMN/source", "."}, a.Steps[0].Args)
	assert.Equal(t, "gcloud", a.Steps[5].Entrypoint)
	assert.Contains(t, a.Steps[5].Args, "--allow-unauthenticated")
	assert.Equal(t, "biz-short", ServiceName("short"))
}

// retryingDeployments runs the update callback once against a snapshot that
// then loses the race, the way a WATCH retry would, before the real update.
type retryingDeployments struct {
	*redisdb.Store
	race func(buildID string)
}

func (r *retryingDeployments) UpdateDeployment(ctx context.Context, buildID string, fn func(*domain.Deployment) error) (*domain.Deployment, error) {
	if r.race != nil {
		snapshot, err := r.GetDeployment(ctx, buildID)
		if err != nil {
			return nil, err
		}
		_ = fn(snapshot)
		r.race(buildID)
		r.race = nil
	}
	return r.Store.UpdateDeployment(ctx, buildID, fn)
}

type transitionCounter struct {
	metrics.NoopRecorder
	mu          sync.Mutex
	transitions []string
}

func (c *transitionCounter) IncDeploymentTransition(from, to string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transitions = append(c.transitions, from+"->"+to)
}

func TestRefreshIgnoresLostRetryAttempt(t *testing.T) {
	_, store, provider := setupTracker(t)
	ctx := context.Background()
	seedVersion(t, store, "v1", "u1", true, true)

	guard := ownership.NewGuard().
		Register(ownership.KindVersion, ownership.LookupOf(store.GetVersion)).
		Register(ownership.KindDeployment, ownership.LookupOf(store.GetDeployment))
	deployments := &retryingDeployments{Store: store}
	counter := &transitionCounter{}
	tracker := NewTracker(guard, deployments, store, provider, testSpec, counter)

	d, err := tracker.Submit(ctx, "v1", "u1")
	require.NoError(t, err)

	deployments.race = func(buildID string) {
		_, err := store.UpdateDeployment(ctx, buildID, func(cur *domain.Deployment) error {
			cur.Status = domain.StatusFailure
			return nil
		})
		require.NoError(t, err)
	}
	provider.replies = []statusReply{known(domain.StatusSuccess)}

	res, err := tracker.RefreshStatus(ctx, d.BuildID, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailure, res.Record.Status)
	assert.Empty(t, counter.transitions)

	v, err := store.GetVersion(ctx, "v1")
	require.NoError(t, err)
	require.NotNil(t, v.LastBuild)
	assert.Equal(t, string(domain.StatusWorking), v.LastBuild.Status)
}
