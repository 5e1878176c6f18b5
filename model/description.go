package model

import (
	"time"

	"github.com/google/uuid"
)

// Description is a cached generated description of one catalog entity.
// The cache makes generated text durable across catalog documents and,
// through the optional embedding, searchable by similarity.
type Description struct {
	ID        int64      `json:"id"`
	RID       uuid.UUID  `json:"rid"`
	Kind      EntityKind `json:"kind"`
	EntityID  string     `json:"entity_id"`
	Title     string     `json:"title,omitempty"`
	Text      string     `json:"text"`
	Embedding []float32  `json:"embedding,omitempty"`
	Metadata  Metadata   `json:"metadata,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	// Result fields
	Similarity float64 `json:"similarity,omitempty"`
}

// Identity returns the (kind, id) key of the described entity
func (d *Description) Identity() Identity {
	return Identity{Kind: d.Kind, ID: d.EntityID}
}

// SearchResult represents a description retrieved by similarity search
type SearchResult struct {
	Description *Description `json:"description"`
	Score       float64      `json:"score"`
}
