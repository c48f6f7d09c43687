package generation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/GoSim-25-26J-441/dgbp-backend/internal/pipeline/domain"
)

// decodePayload parses raw and checks the stage's required fields.
func decodePayload(spec domain.StageSpec, raw json.RawMessage) (map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSchemaViolation, spec.Stage, err)
	}
	if payload == nil {
		return nil, fmt.Errorf("%w: %s: empty payload", ErrSchemaViolation, spec.Stage)
	}

	var bad []string
	for _, f := range spec.Required {
		if !f.Kind.Matches(payload[f.Name]) {
			bad = append(bad, fmt.Sprintf("%s (%s)", f.Name, f.Kind))
		}
	}
	if len(bad) > 0 {
		return nil, fmt.Errorf("%w: %s: missing or invalid %s", ErrSchemaViolation, spec.Stage, strings.Join(bad, ", "))
	}
	return payload, nil
}
