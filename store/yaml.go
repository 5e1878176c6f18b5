package store

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/siherrmann/describer/helper"
	"github.com/siherrmann/describer/model"
	"gopkg.in/yaml.v3"
)

// FileStore persists a catalog as a single YAML document on disk.
// It parses the document into the node tree instead of typed structs so
// fields unknown to the entity model, ordering and comments survive a
// load/save round-trip.
type FileStore struct {
	path   string
	schema Schema
	logger *slog.Logger
}

// documentNodes couples the parsed node tree with the mapping node of each
// entity so Save can update description scalars in place.
type documentNodes struct {
	root    *yaml.Node
	records map[model.Identity]*yaml.Node
}

// NewFileStore creates a file store for the YAML document at path
func NewFileStore(path string, schema Schema, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FileStore{
		path:   path,
		schema: schema,
		logger: logger,
	}
}

// Load reads and parses the catalog document. It fails with
// ErrMalformedDocument when the document is not a YAML mapping and with
// model.ErrDuplicateIdentifier when two records share a (kind, id) identity.
func (s *FileStore) Load(ctx context.Context) (*model.Catalog, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, helper.NewError("read catalog document", err)
	}

	root := &yaml.Node{}
	if err := yaml.Unmarshal(data, root); err != nil {
		return nil, helper.NewError("parse catalog document", fmt.Errorf("%w: %v", ErrMalformedDocument, err))
	}

	if root.Kind != yaml.DocumentNode || len(root.Content) != 1 || root.Content[0].Kind != yaml.MappingNode {
		return nil, helper.NewError("parse catalog document", fmt.Errorf("%w: top level is not a mapping", ErrMalformedDocument))
	}

	mapping := root.Content[0]
	var entities []*model.Entity
	records := map[model.Identity]*yaml.Node{}

	// Mapping content alternates key and value nodes. Sections are visited
	// in document order so the catalog keeps the source ordering.
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key, value := mapping.Content[i], mapping.Content[i+1]
		kind, ok := s.schema.Sections[key.Value]
		if !ok {
			continue
		}
		if value.Kind != yaml.SequenceNode {
			return nil, helper.NewError("parse catalog document", fmt.Errorf("%w: section %q is not a list", ErrMalformedDocument, key.Value))
		}

		for _, record := range value.Content {
			entity, err := s.decodeRecord(record, kind, key.Value)
			if err != nil {
				return nil, err
			}
			entities = append(entities, entity)
			records[entity.Identity()] = record
		}
	}

	catalog, err := model.NewCatalog(entities)
	if err != nil {
		return nil, err
	}
	catalog.Document = &documentNodes{root: root, records: records}

	s.logger.Info("Loaded catalog", slog.String("path", s.path), slog.Int("entities", catalog.Len()))

	return catalog, nil
}

// decodeRecord maps one sequence item onto an Entity, collecting all
// unmapped fields into Extra.
func (s *FileStore) decodeRecord(record *yaml.Node, kind model.EntityKind, section string) (*model.Entity, error) {
	if record.Kind != yaml.MappingNode {
		return nil, helper.NewError("parse catalog record", fmt.Errorf("%w: section %q contains a non-mapping record", ErrMalformedDocument, section))
	}

	entity := &model.Entity{Kind: kind, Extra: model.Metadata{}}
	for i := 0; i+1 < len(record.Content); i += 2 {
		key, value := record.Content[i], record.Content[i+1]
		switch key.Value {
		case s.schema.IDField:
			entity.ID = value.Value
		case s.schema.TitleField:
			entity.Title = value.Value
		case s.schema.DescriptionField:
			entity.Description = value.Value
		default:
			var decoded interface{}
			if err := value.Decode(&decoded); err != nil {
				return nil, helper.NewError("parse catalog record", fmt.Errorf("%w: field %q: %v", ErrMalformedDocument, key.Value, err))
			}
			entity.Extra[key.Value] = decoded
		}
	}

	if entity.ID == "" {
		return nil, helper.NewError("parse catalog record", fmt.Errorf("%w: record in section %q has no %q field", ErrMalformedDocument, section, s.schema.IDField))
	}

	return entity, nil
}

// Save writes the catalog back to the document it was loaded from. Only the
// description scalars of the node tree are touched, then the whole document
// is replaced atomically via a temp file and rename.
func (s *FileStore) Save(ctx context.Context, catalog *model.Catalog) error {
	doc, ok := catalog.Document.(*documentNodes)
	if !ok {
		return helper.NewError("save catalog", fmt.Errorf("catalog was not loaded by this store"))
	}

	for _, entity := range catalog.Entities {
		record, ok := doc.records[entity.Identity()]
		if !ok || entity.NeedsDescription() {
			continue
		}
		setMappingValue(record, s.schema.DescriptionField, entity.Description)
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc.root); err != nil {
		return helper.NewError("encode catalog document", err)
	}
	if err := encoder.Close(); err != nil {
		return helper.NewError("encode catalog document", err)
	}

	if err := s.writeAtomic(buf.Bytes()); err != nil {
		return err
	}

	s.logger.Info("Saved catalog", slog.String("path", s.path), slog.Int("entities", catalog.Len()))

	return nil
}

// writeAtomic replaces the document through a temp file in the same
// directory, so a failure mid-write leaves the previous version intact.
func (s *FileStore) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".catalog-*.yaml")
	if err != nil {
		return helper.NewError("create temp file", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return helper.NewError("write temp file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return helper.NewError("sync temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return helper.NewError("close temp file", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return helper.NewError("replace catalog document", err)
	}

	return nil
}

// setMappingValue updates the scalar value for key in a mapping node,
// appending the key if it is not present yet.
func setMappingValue(mapping *yaml.Node, key string, value string) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			if mapping.Content[i+1].Value == value {
				// Unchanged values keep their original styling.
				return
			}
			mapping.Content[i+1].SetString(value)
			// Drop the quoting style of the previous value, e.g. the "" of
			// an empty description.
			mapping.Content[i+1].Style = 0
			return
		}
	}

	keyNode := &yaml.Node{}
	keyNode.SetString(key)
	valueNode := &yaml.Node{}
	valueNode.SetString(value)
	mapping.Content = append(mapping.Content, keyNode, valueNode)
}
