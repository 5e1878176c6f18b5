package generate

import (
	"fmt"
	"strings"

	"github.com/siherrmann/describer/model"
)

// BuildPrompt renders the generation prompt for one entity. Metrics get a
// MAQL focused prompt, visualizations and dashboards get a prompt with a
// context block of their referenced entities' descriptions, everything else
// gets the generic form.
func BuildPrompt(entity *model.Entity, promptCtx PromptContext) string {
	switch entity.Kind {
	case model.KindMetric:
		return fmt.Sprintf(
			"Generate a concise business-relevant description for a metric. This is a metric, "+
				"not a dataset. The description should focus on what the metric measures or calculates "+
				"based on the MAQL (Metric Aggregation Query Language) provided. Do not describe it as a dataset. "+
				"It might be composed of a dataset, but it is operating on top of it. "+
				"Ensure the description highlights the key insights or value this metric provides, "+
				"without technical jargon or irrelevant details. The description should fit within 128 characters.\n"+
				"Title: %s\nID: %s\nMAQL: %s\n",
			entity.Title, entity.ID, maqlOf(entity),
		)

	case model.KindVisualization:
		visualizationURL, _ := entity.Extra["visualizationUrl"].(string)
		return fmt.Sprintf(
			"Generate a descriptive text for a visualization with a business meaning "+
				"so I can find it with various similarity search algorithms. "+
				"Do not describe the fields themselves. "+
				"Without any single or double quotes in the beginning and at the end. "+
				"Do not mention the visualization id. "+
				"The documentation must fit into 128 characters based on the following details:\n"+
				"Title: %s\nID: %s\nVisualization URL: %s\nContext:\n%s\n",
			entity.Title, entity.ID, visualizationURL, contextBlock(entity, promptCtx),
		)

	case model.KindDashboard:
		return fmt.Sprintf(
			"Generate a descriptive text for a dashboard with a business meaning "+
				"so I can find it with various similarity search algorithms. "+
				"Do not describe the fields themselves. "+
				"Without any single or double quotes in the beginning and at the end. "+
				"The description must fit within 256 characters based on the following details:\n"+
				"Title: %s\nID: %s\nContext:\n%s\n",
			entity.Title, entity.ID, contextBlock(entity, promptCtx),
		)

	default:
		return fmt.Sprintf(
			"Generate a descriptive text with business meaning for a %s. "+
				"Do not describe the fields themselves. "+
				"Without any single or double quotes in the beginning and at the end. "+
				"The documentation must fit into 128 characters based on the following details:\n"+
				"Title: %s\nID: %s\n",
			strings.ReplaceAll(string(entity.Kind), "_", " "), entity.Title, entity.ID,
		)
	}
}

// contextBlock lists the entity's references together with their known
// descriptions, one per line
func contextBlock(entity *model.Entity, promptCtx PromptContext) string {
	references := EntityReferences(entity)
	lines := make([]string, 0, len(references))
	for _, reference := range references {
		description, ok := promptCtx.Descriptions[reference]
		if !ok {
			description = "No description available"
		}
		lines = append(lines, reference+": "+description)
	}
	return strings.Join(lines, "\n")
}

// ValidateMetricDescription rejects metric descriptions that talk about the
// metric as if it were a dataset. Other kinds are accepted as is.
func ValidateMetricDescription(entity *model.Entity, description string) error {
	if entity.Kind != model.KindMetric {
		return nil
	}
	if strings.Contains(strings.ToLower(description), "dataset") {
		return NewGenerationError(FailureRejected, fmt.Errorf("metric description describes a dataset: %q", description))
	}
	return nil
}
