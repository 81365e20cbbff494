package menu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionPath(t *testing.T) {
	assert.Equal(t,
		"/artifacts/demo-freshear-app/public/data/products",
		CollectionPath("demo-freshear-app"),
	)
}

func TestDecodeProduct(t *testing.T) {
	fields := []byte(`{
		"name": "Tomato Soup",
		"description": "Served with bread",
		"price": 4.5,
		"category": "Starters",
		"available": true
	}`)

	p, err := DecodeProduct("doc-1", fields)
	require.NoError(t, err)

	assert.Equal(t, "doc-1", p.ID)
	assert.Equal(t, "Tomato Soup", p.Name)
	assert.Equal(t, "Served with bread", p.Description)
	assert.Equal(t, "4.5", p.Price.String())
	assert.Equal(t, "Starters", p.Category)
	assert.True(t, p.Available)
}

func TestDecodeProduct_Defaults(t *testing.T) {
	p, err := DecodeProduct("doc-2", []byte(`{"name": "Mystery Dish", "available": true}`))
	require.NoError(t, err)

	assert.True(t, p.Price.IsZero())
	assert.Equal(t, "", p.Category)
	assert.Equal(t, CategoryUncategorized, p.DisplayCategory())
}

func TestDecodeProduct_StringPrice(t *testing.T) {
	p, err := DecodeProduct("doc-3", []byte(`{"name": "Tea", "price": "2.75", "available": true}`))
	require.NoError(t, err)

	assert.Equal(t, "2.75", p.Price.String())
}

func TestDecodeProduct_NullPrice(t *testing.T) {
	p, err := DecodeProduct("doc-4", []byte(`{"name": "Water", "price": null, "available": true}`))
	require.NoError(t, err)

	assert.True(t, p.Price.IsZero())
}

func TestDecodeProduct_SkipsUnknownFields(t *testing.T) {
	p, err := DecodeProduct("doc-5", []byte(`{"name": "Tea", "image": {"thumbnail": "t.jpg"}, "tags": ["hot"], "available": true}`))
	require.NoError(t, err)

	assert.Equal(t, "Tea", p.Name)
}

func TestDecodeProduct_Malformed(t *testing.T) {
	_, err := DecodeProduct("doc-6", []byte(`{"name": 42}`))
	require.Error(t, err)

	_, err = DecodeProduct("doc-7", []byte(`{"price": "not a number"}`))
	require.Error(t, err)

	_, err = DecodeProduct("doc-8", []byte(`not json`))
	require.Error(t, err)
}
