package retrieval

import (
	"context"

	"github.com/siherrmann/describer/database"
	"github.com/siherrmann/describer/model"
)

// Engine provides similarity search over cached descriptions
type Engine struct {
	descriptions *database.DescriptionsDBHandler
}

// NewEngine creates a new retrieval engine
func NewEngine(descriptions *database.DescriptionsDBHandler) *Engine {
	return &Engine{
		descriptions: descriptions,
	}
}

// VectorRetrieve performs pure vector similarity search over cached descriptions
func (e *Engine) VectorRetrieve(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*model.SearchResult, error) {
	descriptions, err := e.descriptions.SelectDescriptionsBySimilarity(embedding, limit, threshold)
	if err != nil {
		return nil, err
	}

	results := make([]*model.SearchResult, len(descriptions))
	for i, description := range descriptions {
		results[i] = &model.SearchResult{
			Description: description,
			Score:       description.Similarity,
		}
	}

	return results, nil
}

// KindRetrieve performs vector similarity search restricted to one entity kind
func (e *Engine) KindRetrieve(ctx context.Context, embedding []float32, kind model.EntityKind, limit int, threshold float64) ([]*model.SearchResult, error) {
	// Overfetch, then filter by kind
	descriptions, err := e.descriptions.SelectDescriptionsBySimilarity(embedding, limit*4, threshold)
	if err != nil {
		return nil, err
	}

	var results []*model.SearchResult
	for _, description := range descriptions {
		if description.Kind != kind {
			continue
		}
		results = append(results, &model.SearchResult{
			Description: description,
			Score:       description.Similarity,
		})
		if len(results) == limit {
			break
		}
	}

	return results, nil
}
