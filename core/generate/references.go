package generate

import (
	"regexp"

	"github.com/siherrmann/describer/model"
)

// maqlReferencePattern matches typed identifier references inside a MAQL
// expression, e.g. "fact/order_amount" or "dataset/customers".
var maqlReferencePattern = regexp.MustCompile(`\b(fact|attribute|metric|label|dataset)/([a-zA-Z0-9_]+)\b`)

// EntityReferences extracts the identities of other catalog items the entity
// is built from. They select which known descriptions go into the prompt
// context block.
func EntityReferences(entity *model.Entity) []string {
	switch entity.Kind {
	case model.KindMetric:
		return referencesFromMAQL(maqlOf(entity))
	case model.KindVisualization:
		return referencesFromVisualization(entity.Extra)
	case model.KindDashboard:
		return referencesFromDashboard(entity.Extra)
	default:
		return nil
	}
}

// maqlOf reads the MAQL expression of a metric from its unmapped fields
func maqlOf(entity *model.Entity) string {
	content, ok := entity.Extra["content"].(map[string]interface{})
	if !ok {
		return ""
	}
	maql, _ := content["maql"].(string)
	return maql
}

func referencesFromMAQL(maql string) []string {
	var references []string
	for _, match := range maqlReferencePattern.FindAllStringSubmatch(maql, -1) {
		references = append(references, match[1]+"/"+match[2])
	}
	return references
}

// referencesFromVisualization walks the buckets and filters of a
// visualization record for measure and date dataset identifiers.
func referencesFromVisualization(extra model.Metadata) []string {
	var references []string

	content, _ := extra["content"].(map[string]interface{})
	for _, bucket := range listOf(content, "buckets") {
		for _, item := range listOf(bucket, "items") {
			measure, _ := item["measure"].(map[string]interface{})
			definition, _ := measure["definition"].(map[string]interface{})

			if measureDefinition, ok := definition["measureDefinition"].(map[string]interface{}); ok {
				if id := identifierID(mapOf(measureDefinition, "item")); id != "" {
					references = append(references, id)
				}
			} else if previousPeriod, ok := definition["previousPeriodMeasure"].(map[string]interface{}); ok {
				for _, dateDataset := range listOf(previousPeriod, "dateDataSets") {
					if id := identifierID(mapOf(dateDataset, "dataSet")); id != "" {
						references = append(references, id)
					}
				}
				if measureIdentifier, ok := previousPeriod["measureIdentifier"].(string); ok && measureIdentifier != "" {
					references = append(references, measureIdentifier)
				}
			}
		}
	}

	for _, filter := range listOf(content, "filters") {
		if relativeDateFilter, ok := filter["relativeDateFilter"].(map[string]interface{}); ok {
			if id := identifierID(mapOf(relativeDateFilter, "dataSet")); id != "" {
				references = append(references, id)
			}
		}
	}

	return references
}

// referencesFromDashboard walks the dashboard layout for insight and drill
// target identifiers.
func referencesFromDashboard(extra model.Metadata) []string {
	var references []string

	content, _ := extra["content"].(map[string]interface{})
	layout := mapOf(content, "layout")
	for _, section := range listOf(layout, "sections") {
		for _, item := range listOf(section, "items") {
			widget, _ := item["widget"].(map[string]interface{})

			if id := identifierID(mapOf(widget, "insight")); id != "" {
				references = append(references, id)
			}
			for _, drill := range listOf(widget, "drills") {
				if id := identifierID(mapOf(drill, "target")); id != "" {
					references = append(references, id)
				}
			}
		}
	}

	return references
}

// identifierID reads the nested {"identifier": {"id": ...}} form used
// throughout visualization and dashboard records
func identifierID(element map[string]interface{}) string {
	identifier, _ := element["identifier"].(map[string]interface{})
	id, _ := identifier["id"].(string)
	return id
}

func mapOf(parent map[string]interface{}, key string) map[string]interface{} {
	child, _ := parent[key].(map[string]interface{})
	return child
}

func listOf(parent map[string]interface{}, key string) []map[string]interface{} {
	raw, _ := parent[key].([]interface{})
	var items []map[string]interface{}
	for _, entry := range raw {
		if item, ok := entry.(map[string]interface{}); ok {
			items = append(items, item)
		}
	}
	return items
}
