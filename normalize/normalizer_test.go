package normalize

import (
	"testing"

	"github.com/canopysearch/catsync/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMapping() core.FieldMapping {
	return core.FieldMapping{
		IDField:                   "sku",
		TitleField:                "name",
		SearchableAttributeFields: []string{"name", "desc"},
	}
}

func TestNormalize(t *testing.T) {
	n, err := NewNormalizer(testMapping())
	require.NoError(t, err)

	record := n.Normalize(core.RawRecord{
		"sku":  "A1",
		"name": "Red Shoe",
		"desc": "Comfy",
	})

	assert.Equal(t, "A1", record.ID)
	assert.Equal(t, "Red Shoe", record.Title)
	assert.Equal(t, "name: Red Shoe desc: Comfy", record.SearchableContent)
	assert.Equal(t, core.ContentHash("name: Red Shoe desc: Comfy"), record.ContentHash)
	assert.Nil(t, record.Embedding)
	assert.False(t, record.CreatedAt.IsZero())
}

func TestNormalizeGeneratesIDWhenMissing(t *testing.T) {
	n, err := NewNormalizer(testMapping())
	require.NoError(t, err)

	a := n.Normalize(core.RawRecord{"name": "Red Shoe"})
	b := n.Normalize(core.RawRecord{"name": "Red Shoe"})

	assert.NotEmpty(t, a.ID)
	assert.NotEmpty(t, b.ID)
	assert.NotEqual(t, a.ID, b.ID, "generated ids must be unique")
}

func TestSearchableContentSkipsMissingFields(t *testing.T) {
	mapping := testMapping()
	mapping.SearchableAttributeFields = []string{"name", "desc", "brand"}
	n, err := NewNormalizer(mapping)
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  core.RawRecord
		want string
	}{
		{
			name: "all fields present",
			raw:  core.RawRecord{"name": "Red Shoe", "desc": "Comfy", "brand": "Acme"},
			want: "name: Red Shoe desc: Comfy brand: Acme",
		},
		{
			name: "missing field skipped",
			raw:  core.RawRecord{"name": "Red Shoe", "brand": "Acme"},
			want: "name: Red Shoe brand: Acme",
		},
		{
			name: "empty value skipped",
			raw:  core.RawRecord{"name": "Red Shoe", "desc": "", "brand": "Acme"},
			want: "name: Red Shoe brand: Acme",
		},
		{
			name: "nil value skipped",
			raw:  core.RawRecord{"name": "Red Shoe", "desc": nil},
			want: "name: Red Shoe",
		},
		{
			name: "no fields present",
			raw:  core.RawRecord{"other": "x"},
			want: "",
		},
		{
			name: "numeric value rendered",
			raw:  core.RawRecord{"name": "Red Shoe", "desc": 42},
			want: "name: Red Shoe desc: 42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.SearchableContent(tt.raw))
		})
	}
}

func TestNormalizeImageField(t *testing.T) {
	mapping := testMapping()
	mapping.ImageField = "image"
	n, err := NewNormalizer(mapping)
	require.NoError(t, err)

	record := n.Normalize(core.RawRecord{
		"sku":   "A1",
		"name":  "Red Shoe",
		"image": "https://img.example.com/a1.jpg",
	})
	assert.Equal(t, "https://img.example.com/a1.jpg", record.ImageURL)
}

func TestNewNormalizerRejectsBadMapping(t *testing.T) {
	_, err := NewNormalizer(core.FieldMapping{})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidFieldMapping)
}
