package pipeline

import "github.com/siherrmann/describer/model"

// Plan partitions a catalog into the entities still needing a description
// and the identities that already have one. The returned slice keeps the
// catalog's original order so generation calls stay reproducible. Every
// entity lands in exactly one of the two results.
func Plan(catalog *model.Catalog) ([]*model.Entity, []model.Identity) {
	var toGenerate []*model.Entity
	var alreadyDone []model.Identity

	for _, entity := range catalog.Entities {
		if entity.NeedsDescription() {
			toGenerate = append(toGenerate, entity)
		} else {
			alreadyDone = append(alreadyDone, entity.Identity())
		}
	}

	return toGenerate, alreadyDone
}
