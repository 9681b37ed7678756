package tools

import (
	"context"
	"encoding/json"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Definition declares a function tool to the assistant backend.
type Definition struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters"`
}

// NewDefinition reflects the parameter schema of a tool from its input type.
func NewDefinition[In any](name, description string) Definition {
	reflector := jsonschema.Reflector{
		// Expand definitions inline instead of using $refs
		DoNotReference: true,
	}
	var zero In
	schema := reflector.Reflect(zero)

	// the backend wants a bare object schema
	schema.Version = ""
	schema.ID = ""
	if schema.Type == "" && schema.Ref == "" {
		schema.Type = "object"
	}

	return Definition{
		Name:        name,
		Description: description,
		Parameters:  schema,
	}
}

// Handler answers one tool call. args is the raw JSON argument object sent
// by the model. The returned value must be JSON serializable.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// NewHandler adapts a typed function into a Handler, decoding args into In.
// Arguments that parse but do not match In are logged and fn still runs with
// whatever fields decoded, so an off-schema call resolves instead of failing
// the run.
func NewHandler[In any](fn func(ctx context.Context, in In) any) Handler {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		var in In
		if len(args) > 0 {
			if !json.Valid(args) {
				return nil, errors.New("arguments are not valid JSON")
			}
			if err := json.Unmarshal(args, &in); err != nil {
				log.Warn().Err(err).Msg("tool arguments do not match the declared schema")
			}
		}
		return fn(ctx, in), nil
	}
}
