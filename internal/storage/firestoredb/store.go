package firestoredb

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GoSim-25-26J-441/dgbp-backend/internal/storage"
)

// Collection names match the ones the web client already reads.
const (
	colUsers       = "users"
	colWorkspaces  = "workspaces"
	colProjects    = "businesses"
	colVersions    = "versions"
	colDeployments = "deployments"
	colLedger      = "token_ledger"
)

type Store struct {
	client *firestore.Client
}

func New(client *firestore.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.Collection(colUsers).Limit(1).Documents(ctx).Next()
	if err != nil && !errors.Is(err, iterator.Done) {
		return err
	}
	return nil
}

func (s *Store) Close() error { return s.client.Close() }

// mapErr translates gRPC status codes into storage errors.
func mapErr(err error, what string) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%w: %s", storage.ErrNotFound, what)
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %s", storage.ErrAlreadyExists, what)
	case codes.Aborted:
		return fmt.Errorf("%w: %s", storage.ErrConflict, what)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func get[T any](ctx context.Context, ref *firestore.DocumentRef) (*T, error) {
	snap, err := ref.Get(ctx)
	if err != nil {
		return nil, mapErr(err, ref.Path)
	}
	var v T
	if err := snap.DataTo(&v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", ref.Path, err)
	}
	return &v, nil
}

func all[T any](ctx context.Context, q firestore.Query) ([]T, error) {
	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, mapErr(err, "query")
	}
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := d.DataTo(&v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", d.Ref.Path, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// update reads the document and writes fn's result inside one transaction.
// Returning storage.ErrNoChange from fn skips the write.
func update[T any](ctx context.Context, s *Store, ref *firestore.DocumentRef, fn func(*T) error) (*T, error) {
	var result *T
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return mapErr(err, ref.Path)
		}
		var v T
		if err := snap.DataTo(&v); err != nil {
			return fmt.Errorf("decode %s: %w", ref.Path, err)
		}
		if err := fn(&v); err != nil {
			if errors.Is(err, storage.ErrNoChange) {
				result = &v
				return nil
			}
			return err
		}
		result = &v
		return tx.Set(ref, &v)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
