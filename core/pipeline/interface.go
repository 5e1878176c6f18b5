// Package pipeline drives a description completion run: load the catalog,
// plan which entities need generation, generate with retry, merge, persist.
package pipeline

import (
	"context"

	"github.com/siherrmann/describer/model"
)

// EmbedFunc is a function that generates embeddings for text
type EmbedFunc func(text string) ([]float32, error)

// ValidateFunc checks a generated description before it is merged into the
// catalog. Returning an error records the entity as failed.
type ValidateFunc func(entity *model.Entity, description string) error

// SeedFunc is applied to a loaded catalog before planning, e.g. to fill in
// cached descriptions from an earlier run. It returns the number of entities
// it updated so the runner knows the catalog needs persisting.
type SeedFunc func(ctx context.Context, catalog *model.Catalog) (int, error)
