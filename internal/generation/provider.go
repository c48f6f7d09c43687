package generation

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrSchemaViolation     = errors.New("output does not match stage schema")
	ErrGenerationExhausted = errors.New("generation attempts exhausted")
)

// Request is one structured generation call.
type Request struct {
	Model      string
	Prompt     string
	SchemaName string
	Schema     any
}

// Response carries the raw JSON payload and the token usage the provider
// reported for the call.
type Response struct {
	Payload      json.RawMessage
	InputTokens  int
	OutputTokens int
}

type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}
