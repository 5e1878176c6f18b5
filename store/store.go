// Package store provides durable catalog storage. A store loads the full
// entity catalog from a structured document and writes it back with only the
// description fields changed, keeping unrelated fields and ordering intact.
package store

import (
	"context"
	"errors"

	"github.com/siherrmann/describer/model"
)

// ErrMalformedDocument is returned when the backing document cannot be
// parsed as a catalog.
var ErrMalformedDocument = errors.New("malformed catalog document")

// Store defines the interface for catalog persistence.
// Save must be atomic with respect to the previous version of the document:
// on failure mid-write the previous document stays readable.
type Store interface {
	Load(ctx context.Context) (*model.Catalog, error)
	Save(ctx context.Context, catalog *model.Catalog) error
}

// Schema maps document sections and record fields to the entity model.
// The exact field names of a catalog document are a deployment detail,
// so they are configurable here.
type Schema struct {
	// Sections maps top-level document keys to entity kinds. Keys of the
	// document that are not listed here are left untouched.
	Sections map[string]model.EntityKind

	IDField          string
	TitleField       string
	DescriptionField string
}

// DefaultSchema returns the section and field mapping of the default
// analytics catalog layout.
func DefaultSchema() Schema {
	return Schema{
		Sections: map[string]model.EntityKind{
			"datasets":       model.KindDataset,
			"date_instances": model.KindDateInstance,
			"metrics":        model.KindMetric,
			"visualizations": model.KindVisualization,
			"dashboards":     model.KindDashboard,
		},
		IDField:          "id",
		TitleField:       "title",
		DescriptionField: "description",
	}
}
