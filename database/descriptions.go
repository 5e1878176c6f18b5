package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/describer/helper"
	"github.com/siherrmann/describer/model"
	loadSql "github.com/siherrmann/describer/sql"
)

// DescriptionsDBHandlerFunctions defines the interface for Descriptions database operations.
type DescriptionsDBHandlerFunctions interface {
	UpsertDescription(description *model.Description) error
	DeleteDescription(kind model.EntityKind, entityID string) error
	SelectDescription(kind model.EntityKind, entityID string) (*model.Description, error)
	SelectAllDescriptions(lastCreatedAt *time.Time, limit int) ([]*model.Description, error)
	SelectDescriptionsBySimilarity(embedding []float32, limit int, threshold float64) ([]*model.Description, error)
}

// DescriptionsDBHandler handles description-related database operations
type DescriptionsDBHandler struct {
	db *helper.Database
}

// NewDescriptionsDBHandler creates a new descriptions database handler.
// It initializes the database connection and loads description-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewDescriptionsDBHandler(db *helper.Database, embeddingDim int, force bool) (*DescriptionsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	descriptionsDbHandler := &DescriptionsDBHandler{
		db: db,
	}

	err := loadSql.LoadDescriptionsSql(descriptionsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load descriptions sql", err)
	}

	err = descriptionsDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized DescriptionsDBHandler")

	return descriptionsDbHandler, nil
}

// CreateTable creates the 'descriptions' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes.
func (h *DescriptionsDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Use the SQL init() function to create all tables and indexes
	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_descriptions($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing descriptions table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table descriptions")

	return nil
}

// UpsertDescription inserts a description (or updates if one exists for the same entity)
func (h *DescriptionsDBHandler) UpsertDescription(description *model.Description) error {
	var embedding interface{}
	if len(description.Embedding) > 0 {
		embedding = pgvector.NewVector(description.Embedding)
	}

	row := h.db.Instance.QueryRow(
		`SELECT * FROM upsert_description($1, $2, $3, $4, $5, $6)`,
		description.Kind,
		description.EntityID,
		description.Title,
		description.Text,
		embedding,
		description.Metadata,
	)

	err := row.Scan(
		&description.ID,
		&description.RID,
		&description.Kind,
		&description.EntityID,
		&description.Title,
		&description.Text,
		pq.Array(&description.Embedding),
		&description.Metadata,
		&description.CreatedAt,
		&description.UpdatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// DeleteDescription deletes the cached description for an entity
func (h *DescriptionsDBHandler) DeleteDescription(kind model.EntityKind, entityID string) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_description($1, $2)`,
		kind,
		entityID,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// SelectDescription retrieves the cached description for an entity.
// Returns nil without error when no description is cached.
func (h *DescriptionsDBHandler) SelectDescription(kind model.EntityKind, entityID string) (*model.Description, error) {
	description := &model.Description{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_description($1, $2)`,
		kind,
		entityID,
	)

	err := row.Scan(
		&description.ID,
		&description.RID,
		&description.Kind,
		&description.EntityID,
		&description.Title,
		&description.Text,
		pq.Array(&description.Embedding),
		&description.Metadata,
		&description.CreatedAt,
		&description.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return description, nil
}

// SelectAllDescriptions retrieves cached descriptions ordered by creation time.
// Pass a non-nil lastCreatedAt to page through results.
func (h *DescriptionsDBHandler) SelectAllDescriptions(lastCreatedAt *time.Time, limit int) ([]*model.Description, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_all_descriptions($1, $2)`,
		lastCreatedAt,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var descriptions []*model.Description
	for rows.Next() {
		description := &model.Description{}
		err := rows.Scan(
			&description.ID,
			&description.RID,
			&description.Kind,
			&description.EntityID,
			&description.Title,
			&description.Text,
			pq.Array(&description.Embedding),
			&description.Metadata,
			&description.CreatedAt,
			&description.UpdatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		descriptions = append(descriptions, description)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return descriptions, nil
}

// SelectDescriptionsBySimilarity retrieves cached descriptions by embedding similarity
func (h *DescriptionsDBHandler) SelectDescriptionsBySimilarity(embedding []float32, limit int, threshold float64) ([]*model.Description, error) {
	embeddingVector := pgvector.NewVector(embedding)

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_descriptions_by_similarity($1, $2, $3)`,
		embeddingVector,
		limit,
		threshold,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var descriptions []*model.Description
	for rows.Next() {
		description := &model.Description{}
		err := rows.Scan(
			&description.ID,
			&description.RID,
			&description.Kind,
			&description.EntityID,
			&description.Title,
			&description.Text,
			pq.Array(&description.Embedding),
			&description.Metadata,
			&description.CreatedAt,
			&description.UpdatedAt,
			&description.Similarity,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		descriptions = append(descriptions, description)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return descriptions, nil
}
