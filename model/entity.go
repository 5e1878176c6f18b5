package model

import "strings"

// EntityKind is the category of a describable catalog item
type EntityKind string

const (
	KindDataset       EntityKind = "dataset"
	KindDateInstance  EntityKind = "date_instance"
	KindAttribute     EntityKind = "attribute"
	KindFact          EntityKind = "fact"
	KindLabel         EntityKind = "label"
	KindMetric        EntityKind = "metric"
	KindVisualization EntityKind = "visualization"
	KindDashboard     EntityKind = "dashboard"
)

// Identity is the unique key of an entity within a catalog
type Identity struct {
	Kind EntityKind `json:"kind"`
	ID   string     `json:"id"`
}

// String returns the identity in "kind/id" form, as used in logs and prompts
func (i Identity) String() string {
	return string(i.Kind) + "/" + i.ID
}

// Entity represents one describable catalog item (dataset, metric, dashboard, ...)
type Entity struct {
	Kind        EntityKind `json:"kind"`
	ID          string     `json:"id"`
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	// Extra holds all fields of the source record that are not mapped to
	// Kind/ID/Title/Description. They survive load and save untouched.
	Extra Metadata `json:"extra,omitempty"`
}

// Identity returns the (kind, id) key of the entity
func (e *Entity) Identity() Identity {
	return Identity{Kind: e.Kind, ID: e.ID}
}

// NeedsDescription reports whether the entity still needs a generated
// description. Empty and whitespace-only descriptions count as missing.
func (e *Entity) NeedsDescription() bool {
	return strings.TrimSpace(e.Description) == ""
}
