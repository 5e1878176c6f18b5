package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/siherrmann/describer/core/generate"
	"github.com/siherrmann/describer/helper"
	"github.com/siherrmann/describer/model"
	"github.com/siherrmann/describer/store"
	"golang.org/x/sync/errgroup"
)

// errNoCatalog is returned by Persist when no run has loaded a catalog yet
var errNoCatalog = errors.New("no catalog loaded")

// Runner drives one description completion run. It guarantees at most one
// generation call per entity needing a description and never loses text
// that was generated before a later failure.
type Runner struct {
	store     store.Store
	generator generate.Generator
	validator ValidateFunc
	seeder    SeedFunc
	config    model.RunConfig
	logger    *slog.Logger

	// mu serializes merges into the catalog and the report when generation
	// runs with more than one worker
	mu      sync.Mutex
	catalog *model.Catalog
}

// NewRunner creates a runner over the given store and generator
func NewRunner(catalogStore store.Store, generator generate.Generator, config model.RunConfig, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		store:     catalogStore,
		generator: generator,
		config:    config,
		logger:    logger,
	}
}

// SetValidator sets the check applied to generated text before merging
func (r *Runner) SetValidator(validator ValidateFunc) {
	r.validator = validator
}

// SetSeeder sets the seed step applied to the catalog before planning
func (r *Runner) SetSeeder(seeder SeedFunc) {
	r.seeder = seeder
}

// Catalog returns the catalog of the last run. After a persist failure the
// caller can retry Persist without regenerating anything.
func (r *Runner) Catalog() *model.Catalog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.catalog
}

// Run performs one full load, plan, generate, merge, persist cycle.
// Per-entity generation failures are recorded in the report and do not abort
// the run. An authentication failure aborts the remaining entities but the
// descriptions generated up to that point are still persisted.
func (r *Runner) Run(ctx context.Context) (*model.RunReport, error) {
	report := &model.RunReport{
		RunID:     uuid.New(),
		StartedAt: time.Now().UTC(),
	}

	catalog, err := r.store.Load(ctx)
	if err != nil {
		return nil, helper.NewError("load catalog", err)
	}
	r.mu.Lock()
	r.catalog = catalog
	r.mu.Unlock()

	if r.seeder != nil {
		seeded, err := r.seeder(ctx, catalog)
		if err != nil {
			// Seed failures do not abort the run
			r.logger.Warn("Seeding cached descriptions failed", slog.Any("error", err))
		}
		report.Seeded = seeded
	}

	toGenerate, alreadyDone := Plan(catalog)
	report.Skipped = len(alreadyDone)

	r.logger.Info("Planned catalog run",
		slog.String("run_id", report.RunID.String()),
		slog.Int("to_generate", len(toGenerate)),
		slog.Int("already_described", len(alreadyDone)),
	)

	if len(toGenerate) == 0 && report.Seeded == 0 {
		// Nothing to generate and nothing seeded, the run performs no write.
		report.FinishedAt = time.Now().UTC()
		return report, nil
	}

	descriptions := catalog.Descriptions()

	genCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var authErr error

	workers := r.config.Workers
	if workers < 1 {
		workers = 1
	}
	group := new(errgroup.Group)
	group.SetLimit(workers)

	for _, entity := range toGenerate {
		group.Go(func() error {
			if genCtx.Err() != nil {
				// Run aborted, leave the entity unattempted.
				return nil
			}

			r.mu.Lock()
			promptCtx := generate.PromptContext{Descriptions: copyDescriptions(descriptions)}
			r.mu.Unlock()

			text, err := r.generateWithRetry(genCtx, entity, promptCtx)
			if err == nil && strings.TrimSpace(text) == "" {
				// Empty text stays out of the catalog and the count.
				err = generate.NewGenerationError(generate.FailureRejected, errors.New("generator returned empty text"))
			}
			if err == nil && r.validator != nil {
				err = r.validator(entity, text)
			}

			r.mu.Lock()
			defer r.mu.Unlock()

			if err != nil {
				report.Failed++
				report.Failures = append(report.Failures, model.GenerationFailure{
					Identity: entity.Identity(),
					Reason:   err.Error(),
				})
				r.logger.Error("Failed to generate description",
					slog.String("entity", entity.Identity().String()),
					slog.Any("error", err),
				)
				if generate.IsAuthFailure(err) && authErr == nil {
					authErr = err
					cancel()
				}
				return nil
			}

			entity.Description = text
			descriptions[entity.Identity().String()] = text
			descriptions[entity.ID] = text
			report.Generated++
			r.logger.Info("Generated description",
				slog.String("entity", entity.Identity().String()),
				slog.String("description", text),
			)
			return nil
		})
	}

	// Tasks record their own failures and always return nil.
	_ = group.Wait()
	report.FinishedAt = time.Now().UTC()

	if report.Generated > 0 || report.Seeded > 0 {
		// Persist successes even when the run aborted on an auth failure.
		// The outer context may already be canceled at this point.
		if err := r.store.Save(context.WithoutCancel(ctx), catalog); err != nil {
			return report, helper.NewError("persist catalog", err)
		}
		report.Persisted = true
	}

	r.logger.Info("Run finished",
		slog.String("run_id", report.RunID.String()),
		slog.Int("generated", report.Generated),
		slog.Int("seeded", report.Seeded),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", report.Failed),
		slog.Bool("persisted", report.Persisted),
	)

	if authErr != nil {
		return report, authErr
	}
	return report, nil
}

// Persist writes the catalog of the last run again. Recovery path for a
// failed final save, nothing is regenerated.
func (r *Runner) Persist(ctx context.Context) error {
	catalog := r.Catalog()
	if catalog == nil {
		return helper.NewError("persist catalog", errNoCatalog)
	}
	return r.store.Save(ctx, catalog)
}

// generateWithRetry calls the generator with bounded exponential backoff.
// Only transient failures are retried, everything else fails immediately.
func (r *Runner) generateWithRetry(ctx context.Context, entity *model.Entity, promptCtx generate.PromptContext) (string, error) {
	exponential := backoff.NewExponentialBackOff()
	if r.config.InitialBackoff > 0 {
		exponential.InitialInterval = r.config.InitialBackoff
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(exponential, r.config.MaxRetries), ctx)

	var text string
	operation := func() error {
		generated, err := r.generator.Generate(ctx, entity, promptCtx)
		if err != nil {
			if generate.IsTransient(err) {
				r.logger.Warn("Transient generation failure, retrying",
					slog.String("entity", entity.Identity().String()),
					slog.Any("error", err),
				)
				return err
			}
			return backoff.Permanent(err)
		}
		text = generated
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		return "", err
	}
	return text, nil
}

func copyDescriptions(descriptions map[string]string) map[string]string {
	copied := make(map[string]string, len(descriptions))
	for key, value := range descriptions {
		copied[key] = value
	}
	return copied
}
