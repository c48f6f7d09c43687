package bootstrap

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"

	"github.com/GoSim-25-26J-441/dgbp-backend/config"
	authservice "github.com/GoSim-25-26J-441/dgbp-backend/internal/auth/service"
	deployservice "github.com/GoSim-25-26J-441/dgbp-backend/internal/deployment/service"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/ledger"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/ownership"
	pipelineservice "github.com/GoSim-25-26J-441/dgbp-backend/internal/pipeline/service"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/storage/firestoredb"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/storage/redisdb"
)

// Store is everything the services need from a backend.
type Store interface {
	pipelineservice.ProjectStore
	pipelineservice.VersionStore
	pipelineservice.WorkspaceStore
	deployservice.DeploymentStore
	ledger.Store
	authservice.UserStore

	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*redisdb.Store)(nil)
	_ Store = (*firestoredb.Store)(nil)
)

// OpenStore opens the backend named by STORE_BACKEND.
func OpenStore(ctx context.Context, cfg *config.Config, app *firebase.App) (Store, error) {
	switch cfg.Store.Backend {
	case config.StoreRedis:
		client, err := OpenRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return redisdb.New(client), nil
	case config.StoreFirestore:
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create Firestore client: %w", err)
		}
		return firestoredb.New(client), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

// NewGuard registers an owner lookup for every owned kind.
func NewGuard(s Store) *ownership.Guard {
	return ownership.NewGuard().
		Register(ownership.KindWorkspace, ownership.LookupOf(s.GetWorkspace)).
		Register(ownership.KindProject, ownership.LookupOf(s.GetProject)).
		Register(ownership.KindVersion, ownership.LookupOf(s.GetVersion)).
		Register(ownership.KindDeployment, ownership.LookupOf(s.GetDeployment))
}
