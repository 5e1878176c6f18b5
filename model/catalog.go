package model

import (
	"errors"
	"fmt"

	"github.com/siherrmann/describer/helper"
)

// ErrDuplicateIdentifier is returned when two entities in one catalog share
// the same (kind, id) identity.
var ErrDuplicateIdentifier = errors.New("duplicate entity identifier")

// Catalog is the full ordered collection of entities as read from a store.
// The order of Entities is the order of the source document and is kept
// through save so diffs against the stored document stay reviewable.
type Catalog struct {
	Entities []*Entity

	// Document carries the parsed source document so the store that loaded
	// the catalog can write it back with all unrelated fields intact.
	// Opaque to everything but the owning store.
	Document interface{}

	index map[Identity]*Entity
}

// NewCatalog builds a catalog from an ordered entity list. Duplicate
// identities are a load-time error.
func NewCatalog(entities []*Entity) (*Catalog, error) {
	index := make(map[Identity]*Entity, len(entities))
	for _, entity := range entities {
		identity := entity.Identity()
		if _, ok := index[identity]; ok {
			return nil, helper.NewError("build catalog", fmt.Errorf("%w: %s", ErrDuplicateIdentifier, identity))
		}
		index[identity] = entity
	}

	return &Catalog{
		Entities: entities,
		index:    index,
	}, nil
}

// Get returns the entity with the given identity
func (c *Catalog) Get(identity Identity) (*Entity, bool) {
	entity, ok := c.index[identity]
	return entity, ok
}

// Len returns the number of entities in the catalog
func (c *Catalog) Len() int {
	return len(c.Entities)
}

// Descriptions returns the known descriptions of the catalog, keyed both by
// "kind/id" (as referenced from MAQL) and by bare id (as referenced from
// visualization and dashboard records). Used as prompt context for related
// entities during generation.
func (c *Catalog) Descriptions() map[string]string {
	descriptions := map[string]string{}
	for _, entity := range c.Entities {
		if !entity.NeedsDescription() {
			descriptions[entity.Identity().String()] = entity.Description
			descriptions[entity.ID] = entity.Description
		}
	}
	return descriptions
}
