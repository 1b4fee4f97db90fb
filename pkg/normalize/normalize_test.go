package normalize

import (
	"encoding/json"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID   int64
	Name string
}

func TestNormalizePreservesOrder(t *testing.T) {
	rows := []row{{ID: 3, Name: "c"}, {ID: 1, Name: "a"}, {ID: 2, Name: "b"}}

	collection := Normalize(rows, func(r row) string { return strconv.FormatInt(r.ID, 10) })

	assert.Equal(t, []string{"3", "1", "2"}, collection.IDs)
	assert.Equal(t, "a", collection.Items["1"].Name)
	assert.Equal(t, 3, collection.Len())
}

func TestNormalizeEmpty(t *testing.T) {
	collection := Normalize(nil, func(r row) string { return "" })

	assert.NotNil(t, collection.IDs)
	assert.NotNil(t, collection.Items)
	assert.Equal(t, 0, collection.Len())
}

func TestAddDuplicateKeyOverwrites(t *testing.T) {
	collection := NewCollection[row]()
	collection.Add("1", row{ID: 1, Name: "first"})
	collection.Add("1", row{ID: 1, Name: "second"})

	assert.Equal(t, []string{"1"}, collection.IDs)
	assert.Equal(t, "second", collection.Items["1"].Name)
}

func TestCollectionJSONShape(t *testing.T) {
	collection := NewCollection[row]()
	collection.Add("7", row{ID: 7, Name: "x"})

	raw, err := json.Marshal(collection)
	require.NoError(t, err)

	assert.JSONEq(t, `{"ids":["7"],"items":{"7":{"ID":7,"Name":"x"}}}`, string(raw))
}

func TestEmptyCollectionMarshalsToEmptyArrays(t *testing.T) {
	raw, err := json.Marshal(NewCollection[row]())
	require.NoError(t, err)

	assert.JSONEq(t, `{"ids":[],"items":{}}`, string(raw))
}
