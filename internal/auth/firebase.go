package auth

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"github.com/GoSim-25-26J-441/dgbp-backend/config"
)

// InitializeFirebase creates the Firebase app shared by the auth, Firestore
// and Cloud Storage clients. Without a credentials file the Application
// Default Credentials are used.
func InitializeFirebase(ctx context.Context, cfg *config.FirebaseConfig, gcp *config.GCPConfig) (*firebase.App, error) {
	var opts []option.ClientOption
	if cfg.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}

	fbCfg := &firebase.Config{
		ProjectID:     cfg.ProjectID,
		StorageBucket: gcp.Bucket,
	}
	if fbCfg.ProjectID == "" {
		fbCfg.ProjectID = gcp.ProjectID
	}

	app, err := firebase.NewApp(ctx, fbCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}
	return app, nil
}
