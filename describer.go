package describer

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/siherrmann/describer/core/generate"
	"github.com/siherrmann/describer/core/pipeline"
	"github.com/siherrmann/describer/core/retrieval"
	"github.com/siherrmann/describer/database"
	"github.com/siherrmann/describer/helper"
	"github.com/siherrmann/describer/model"
	loadSql "github.com/siherrmann/describer/sql"
	"github.com/siherrmann/describer/store"
)

// Describer provides a unified interface to the completion pipeline,
// the description cache and similarity search
type Describer struct {
	DB           *helper.Database
	Descriptions *database.DescriptionsDBHandler
	Runs         *database.RunsDBHandler
	Store        store.Store
	Generator    generate.Generator
	Embedder     pipeline.EmbedFunc // Optional embedder for caching and search
	Engine       *retrieval.Engine  // Similarity search over cached descriptions
	config       model.RunConfig
	// Logging
	log *slog.Logger
}

// NewDescriber creates a new Describer instance for a catalog store and generator
func NewDescriber(catalogStore store.Store, generator generate.Generator, config model.RunConfig) *Describer {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	return &Describer{
		Store:     catalogStore,
		Generator: generator,
		config:    config,
		log:       logger,
	}
}

// UseDatabase connects the description cache and run history.
// All handlers are created with force=false to not reload SQL functions
// if they already exist.
func (d *Describer) UseDatabase(config *helper.DatabaseConfiguration, embeddingDim int) error {
	// Initialize database
	db := helper.NewDatabase("describer", config, d.log)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return helper.NewError("initialize database extensions", err)
	}

	descriptions, err := database.NewDescriptionsDBHandler(db, embeddingDim, false)
	if err != nil {
		return helper.NewError("create descriptions handler", err)
	}

	runs, err := database.NewRunsDBHandler(db, false)
	if err != nil {
		return helper.NewError("create runs handler", err)
	}

	d.DB = db
	d.Descriptions = descriptions
	d.Runs = runs
	d.Engine = retrieval.NewEngine(descriptions)

	return nil
}

// UseDefaultEmbedder sets up the default embedder with the
// all-MiniLM-L6-v2 model (384 dimensions)
func (d *Describer) UseDefaultEmbedder() error {
	embedder, err := pipeline.DefaultEmbedder()
	if err != nil {
		return helper.NewError("create default embedder", err)
	}

	d.Embedder = embedder
	return nil
}

// Close closes the database connection
func (d *Describer) Close() error {
	if d.DB != nil && d.DB.Instance != nil {
		return d.DB.Instance.Close()
	}
	return nil
}

// Run loads the catalog, fills every missing description and persists the result.
// With a database connected it seeds missing descriptions from the cache first,
// caches newly generated descriptions afterwards and records the run report.
func (d *Describer) Run(ctx context.Context) (*model.RunReport, error) {
	runner := pipeline.NewRunner(d.Store, d.Generator, d.config, d.log)
	runner.SetValidator(generate.ValidateMetricDescription)
	if d.Descriptions != nil {
		runner.SetSeeder(d.seedFromCache)
	}

	report, runErr := runner.Run(ctx)

	if d.Descriptions != nil && report != nil {
		err := d.cacheDescriptions(ctx, runner.Catalog())
		if err != nil {
			d.log.Warn("Failed to cache descriptions", slog.String("error", err.Error()))
		}
	}
	if d.Runs != nil && report != nil {
		err := d.Runs.InsertRun(report)
		if err != nil {
			d.log.Warn("Failed to record run report", slog.String("error", err.Error()))
		}
	}

	return report, runErr
}

// Search performs vector similarity search over cached descriptions
func (d *Describer) Search(ctx context.Context, query string, limit int, threshold float64) ([]*model.SearchResult, error) {
	if d.Engine == nil {
		return nil, helper.NewError("vector search", fmt.Errorf("retrieval engine not initialized, use UseDatabase() first"))
	}
	if d.Embedder == nil {
		return nil, helper.NewError("vector search", fmt.Errorf("embedder not set, use UseDefaultEmbedder() first"))
	}

	// Generate embedding from query
	embedding, err := d.Embedder(query)
	if err != nil {
		return nil, helper.NewError("generate embedding", err)
	}

	return d.Engine.VectorRetrieve(ctx, embedding, limit, threshold)
}

// seedFromCache fills missing catalog descriptions from the description cache
func (d *Describer) seedFromCache(ctx context.Context, catalog *model.Catalog) (int, error) {
	seeded := 0
	for _, entity := range catalog.Entities {
		if !entity.NeedsDescription() {
			continue
		}

		cached, err := d.Descriptions.SelectDescription(entity.Kind, entity.ID)
		if err != nil {
			return seeded, helper.NewError("select cached description", err)
		}
		if cached == nil || cached.Text == "" {
			continue
		}

		entity.Description = cached.Text
		seeded++
	}

	if seeded > 0 {
		d.log.Info("Seeded descriptions from cache", slog.Int("seeded", seeded))
	}

	return seeded, nil
}

// cacheDescriptions upserts every described catalog entity whose description
// is missing from or stale in the cache
func (d *Describer) cacheDescriptions(ctx context.Context, catalog *model.Catalog) error {
	if catalog == nil {
		return nil
	}

	cached := 0
	for _, entity := range catalog.Entities {
		if entity.NeedsDescription() {
			continue
		}

		existing, err := d.Descriptions.SelectDescription(entity.Kind, entity.ID)
		if err != nil {
			return helper.NewError("select cached description", err)
		}
		if existing != nil && existing.Text == entity.Description {
			continue
		}

		description := &model.Description{
			Kind:     entity.Kind,
			EntityID: entity.ID,
			Title:    entity.Title,
			Text:     entity.Description,
			Metadata: entity.Extra,
		}
		if d.Embedder != nil {
			embedding, err := d.Embedder(entity.Description)
			if err != nil {
				return helper.NewError("generate embedding", err)
			}
			description.Embedding = embedding
		}

		err = d.Descriptions.UpsertDescription(description)
		if err != nil {
			return helper.NewError("upsert description", err)
		}
		cached++
	}

	if cached > 0 {
		d.log.Info("Cached descriptions", slog.Int("cached", cached))
	}

	return nil
}
