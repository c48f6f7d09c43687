package ownership

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/GoSim-25-26J-441/dgbp-backend/internal/storage"
)

// Kind names a class of owned resource.
type Kind string

const (
	KindWorkspace  Kind = "workspace"
	KindProject    Kind = "project"
	KindVersion    Kind = "version"
	KindDeployment Kind = "deployment"
)

var (
	ErrUnauthorized = errors.New("caller identity missing")
	ErrForbidden    = errors.New("resource belongs to another user")
	ErrNotFound     = errors.New("resource not found")
)

// Resource is anything that records the user that owns it.
type Resource interface {
	OwnerID() string
}

// Lookup fetches a resource by id. It should return an error wrapping
// storage.ErrNotFound when the id does not exist.
type Lookup func(ctx context.Context, id string) (Resource, error)

// LookupOf adapts a typed store getter into a Lookup.
func LookupOf[T Resource](get func(ctx context.Context, id string) (T, error)) Lookup {
	return func(ctx context.Context, id string) (Resource, error) {
		res, err := get(ctx, id)
		if err != nil {
			return nil, err
		}
		return res, nil
	}
}

// Guard is the single check every caller-scoped read or write passes through.
type Guard struct {
	lookups map[Kind]Lookup
}

func NewGuard() *Guard {
	return &Guard{lookups: make(map[Kind]Lookup)}
}

// Register installs the lookup for kind, replacing any earlier one.
func (g *Guard) Register(kind Kind, fn Lookup) *Guard {
	g.lookups[kind] = fn
	return g
}

// Authorize loads the resource and confirms callerID owns it. The loaded
// resource is returned so callers never fetch it twice.
func (g *Guard) Authorize(ctx context.Context, callerID string, kind Kind, id string) (Resource, error) {
	if strings.TrimSpace(callerID) == "" {
		return nil, ErrUnauthorized
	}
	lookup, ok := g.lookups[kind]
	if !ok {
		return nil, fmt.Errorf("ownership: no lookup registered for %s", kind)
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: %s id is empty", ErrNotFound, kind)
	}

	res, err := lookup(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
		}
		return nil, fmt.Errorf("load %s %s: %w", kind, id, err)
	}
	if res == nil {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
	}
	if res.OwnerID() != callerID {
		return nil, fmt.Errorf("%w: %s %s", ErrForbidden, kind, id)
	}
	return res, nil
}

// AuthorizeAs is Authorize with the result asserted to the concrete type.
func AuthorizeAs[T Resource](ctx context.Context, g *Guard, callerID string, kind Kind, id string) (T, error) {
	var zero T
	res, err := g.Authorize(ctx, callerID, kind, id)
	if err != nil {
		return zero, err
	}
	typed, ok := res.(T)
	if !ok {
		return zero, fmt.Errorf("ownership: %s %s has unexpected type %T", kind, id, res)
	}
	return typed, nil
}
