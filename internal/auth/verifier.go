package auth

import (
	"context"
	"errors"
	"fmt"

	fbauth "firebase.google.com/go/v4/auth"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is what a verified token says about the caller.
type Identity struct {
	CallerID string
	Email    string
	Name     string
	Picture  string
}

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

type FirebaseVerifier struct {
	client *fbauth.Client
}

func NewFirebaseVerifier(client *fbauth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	tok, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	id := &Identity{CallerID: tok.UID}
	id.Email, _ = tok.Claims["email"].(string)
	id.Name, _ = tok.Claims["name"].(string)
	id.Picture, _ = tok.Claims["picture"].(string)
	return id, nil
}
