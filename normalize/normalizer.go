package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/canopysearch/catsync/core"
	"github.com/google/uuid"
)

// Normalizer maps raw source records to canonical product records using a
// field mapping. It is stateless and safe for concurrent use.
type Normalizer struct {
	mapping core.FieldMapping
}

// NewNormalizer creates a normalizer for the given field mapping.
func NewNormalizer(mapping core.FieldMapping) (*Normalizer, error) {
	if err := core.ValidateFieldMapping(&mapping); err != nil {
		return nil, err
	}
	return &Normalizer{mapping: mapping}, nil
}

// Mapping returns the field mapping the normalizer was built with.
func (n *Normalizer) Mapping() core.FieldMapping {
	return n.mapping
}

// Normalize converts one raw record into a ProductRecord.
//
// The record id comes from the configured id field when present, otherwise a
// fresh UUID is generated. Searchable content is the space-joined
// "{field}: {value}" rendering of the configured attribute fields, in
// configured order; fields that are missing or empty are silently skipped.
func (n *Normalizer) Normalize(raw core.RawRecord) *core.ProductRecord {
	now := time.Now().UTC()

	id := stringValue(raw, n.mapping.IDField)
	if id == "" {
		id = uuid.NewString()
	}

	content := n.SearchableContent(raw)

	record := &core.ProductRecord{
		ID:                id,
		Title:             stringValue(raw, n.mapping.TitleField),
		SearchableContent: content,
		ContentHash:       core.ContentHash(content),
		Attributes:        raw,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if n.mapping.ImageField != "" {
		record.ImageURL = stringValue(raw, n.mapping.ImageField)
	}
	return record
}

// SearchableContent renders the canonical embedding input for a raw record.
func (n *Normalizer) SearchableContent(raw core.RawRecord) string {
	parts := make([]string, 0, len(n.mapping.SearchableAttributeFields))
	for _, field := range n.mapping.SearchableAttributeFields {
		value := stringValue(raw, field)
		if value == "" {
			continue
		}
		parts = append(parts, field+": "+value)
	}
	return strings.Join(parts, " ")
}

// stringValue renders a raw attribute as a string, or "" when absent or nil.
func stringValue(raw core.RawRecord, field string) string {
	if field == "" {
		return ""
	}
	value, ok := raw[field]
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}
