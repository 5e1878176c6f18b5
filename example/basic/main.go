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
	"github.com/siherrmann/describer/model"
	"github.com/siherrmann/describer/store"
)

const sampleCatalog = `datasets:
  - id: customers
    title: Customers
    description: All customers with their billing addresses.
  - id: orders
    title: Orders
    description: ""
metrics:
  - id: revenue
    title: Revenue
    description: ""
    content:
      maql: SELECT SUM({fact/price} * {fact/quantity})
`

// staticGenerator fills descriptions from a fixed table, useful for trying
// the pipeline without an LLM endpoint.
type staticGenerator struct {
	texts map[string]string
}

func (g *staticGenerator) Generate(ctx context.Context, entity *model.Entity, promptCtx generate.PromptContext) (string, error) {
	text, ok := g.texts[entity.Identity().String()]
	if !ok {
		return "", generate.NewGenerationError(generate.FailureRejected, fmt.Errorf("no text for %s", entity.Identity()))
	}
	return text, nil
}

func main() {
	dir, err := os.MkdirTemp("", "describer-basic")
	if err != nil {
		log.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	catalogPath := filepath.Join(dir, "catalog.yaml")
	if err := os.WriteFile(catalogPath, []byte(sampleCatalog), 0o644); err != nil {
		log.Fatalf("Failed to write catalog: %v", err)
	}

	catalogStore := store.NewFileStore(catalogPath, store.DefaultSchema(), slog.Default())
	generator := &staticGenerator{texts: map[string]string{
		"dataset/orders": "All orders placed by customers, one row per order.",
		"metric/revenue": "Total revenue as the sum of price times quantity.",
	}}

	d := describer.NewDescriber(catalogStore, generator, model.DefaultRunConfig())

	report, err := d.Run(context.Background())
	if err != nil {
		log.Fatalf("Run failed: %v", err)
	}

	fmt.Printf("Run %s: generated=%d skipped=%d failed=%d persisted=%v\n",
		report.RunID, report.Generated, report.Skipped, report.Failed, report.Persisted)

	updated, err := os.ReadFile(catalogPath)
	if err != nil {
		log.Fatalf("Failed to read catalog: %v", err)
	}
	fmt.Println("Updated catalog:")
	fmt.Println(string(updated))
}
