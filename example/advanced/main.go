package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/siherrmann/describer"
	"github.com/siherrmann/describer/core/generate"
	"github.com/siherrmann/describer/helper"
	"github.com/siherrmann/describer/model"
	"github.com/siherrmann/describer/store"
)

const sampleCatalog = `datasets:
  - id: products
    title: Products
    description: ""
metrics:
  - id: gross_margin
    title: Gross Margin
    description: ""
    content:
      maql: SELECT SUM({fact/revenue} - {fact/cost})
visualizations:
  - id: margin_by_category
    title: Margin by Category
    description: ""
    content:
      buckets:
        - items:
            - measure:
                definition:
                  measureDefinition:
                    item:
                      identifier:
                        id: gross_margin
dashboards:
  - id: finance_overview
    title: Finance Overview
    description: ""
    content:
      layout:
        sections:
          - items:
              - widget:
                  insight:
                    identifier:
                      id: margin_by_category
`

func main() {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("OPENAI_API_KEY is required for this example")
	}

	dir, err := os.MkdirTemp("", "describer-advanced")
	if err != nil {
		log.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	catalogPath := filepath.Join(dir, "catalog.yaml")
	if err := os.WriteFile(catalogPath, []byte(sampleCatalog), 0o644); err != nil {
		log.Fatalf("Failed to write catalog: %v", err)
	}

	// Start a test PostgreSQL container for the description cache
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	generator, err := generate.NewOpenAIClient(generate.OpenAIConfig{
		APIKey: apiKey,
	})
	if err != nil {
		log.Fatalf("Failed to create OpenAI client: %v", err)
	}

	catalogStore := store.NewFileStore(catalogPath, store.DefaultSchema(), slog.Default())

	config := model.DefaultRunConfig()
	config.Workers = 4

	d := describer.NewDescriber(catalogStore, generator, config)
	if err := d.UseDatabase(dbConfig, 384); err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	defer d.Close()

	// Embeddings enable the description cache search below
	if err := d.UseDefaultEmbedder(); err != nil {
		log.Fatalf("Failed to set up embedder: %v", err)
	}

	report, err := d.Run(context.Background())
	if err != nil {
		log.Fatalf("Run failed: %v", err)
	}
	fmt.Printf("Run %s: generated=%d seeded=%d skipped=%d failed=%d\n",
		report.RunID, report.Generated, report.Seeded, report.Skipped, report.Failed)
	for _, failure := range report.Failures {
		fmt.Printf("  failed %s: %s\n", failure.Identity, failure.Reason)
	}

	// A second run performs no generation, everything is described already
	second, err := d.Run(context.Background())
	if err != nil {
		log.Fatalf("Second run failed: %v", err)
	}
	fmt.Printf("Second run: generated=%d skipped=%d\n", second.Generated, second.Skipped)

	// Search the description cache
	results, err := d.Search(context.Background(), "profitability of product categories", 3, 0.3)
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}
	for _, result := range results {
		fmt.Printf("%.3f %s: %s\n", result.Score, result.Description.Identity(), result.Description.Text)
	}
}
