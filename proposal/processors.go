package proposal

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/hupe1980/factmesh/core"
)

var (
	// ErrDuplicate marks a proposal whose fact is already committed with
	// identical content. The engine drops these silently instead of recording
	// a rejection.
	ErrDuplicate = fmt.Errorf("proposal duplicates a committed fact")
)

// ContentProcessor enforces the minimal shape every fact needs: a key from
// the closed set, a non-empty id and non-empty content.
type ContentProcessor struct{}

// NewContentProcessor creates a new content processor.
func NewContentProcessor() *ContentProcessor { return &ContentProcessor{} }

// Name returns the processor's identifier.
func (p *ContentProcessor) Name() string { return "content" }

// Process validates key, id and content presence.
func (p *ContentProcessor) Process(_ *core.View, prop core.ProposedFact) error {
	if !prop.Key.Valid() {
		return fmt.Errorf("unknown key %q", string(prop.Key))
	}
	if prop.ID == "" {
		return fmt.Errorf("empty id")
	}
	if strings.TrimSpace(prop.Content) == "" {
		return fmt.Errorf("empty content")
	}
	return nil
}

// DedupeProcessor compares the proposal against the committed fact under the
// same (key, id). Identical content is a silent duplicate; different content
// is a rejection, because promoted facts must never be the source of a
// structural conflict.
type DedupeProcessor struct{}

// NewDedupeProcessor creates a new dedupe processor.
func NewDedupeProcessor() *DedupeProcessor { return &DedupeProcessor{} }

// Name returns the processor's identifier.
func (p *DedupeProcessor) Name() string { return "dedupe" }

// Process checks the proposal against committed state.
func (p *DedupeProcessor) Process(view *core.View, prop core.ProposedFact) error {
	existing, ok := view.Fact(prop.Key, prop.ID)
	if !ok {
		return nil
	}
	if existing.Content == prop.Content {
		return ErrDuplicate
	}
	return fmt.Errorf("conflicts with committed fact (%s, %s)", prop.Key, prop.ID)
}

// SchemaProcessor validates proposal content against per-key JSON Schemas.
// Keys without a schema pass untouched, so schemas can be introduced one key
// at a time. Schemas are compiled once at construction.
type SchemaProcessor struct {
	schemas map[core.ContextKey]*gojsonschema.Schema
}

// NewSchemaProcessor compiles the given schema documents, keyed by the
// context key whose proposals they govern.
func NewSchemaProcessor(schemas map[core.ContextKey]string) (*SchemaProcessor, error) {
	compiled := make(map[core.ContextKey]*gojsonschema.Schema, len(schemas))
	for key, doc := range schemas {
		if !key.Valid() {
			return nil, fmt.Errorf("schema for unknown key %q", string(key))
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(doc))
		if err != nil {
			return nil, fmt.Errorf("compile schema for key %s: %w", key, err)
		}
		compiled[key] = schema
	}
	return &SchemaProcessor{schemas: compiled}, nil
}

// Name returns the processor's identifier.
func (p *SchemaProcessor) Name() string { return "schema" }

// Process validates the proposal content against the key's schema, if any.
// Content under a schema-governed key must be valid JSON.
func (p *SchemaProcessor) Process(_ *core.View, prop core.ProposedFact) error {
	schema, ok := p.schemas[prop.Key]
	if !ok {
		return nil
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(prop.Content))
	if err != nil {
		return fmt.Errorf("content is not valid JSON: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, verr := range result.Errors() {
			msgs = append(msgs, verr.String())
		}
		return fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
	}
	return nil
}
