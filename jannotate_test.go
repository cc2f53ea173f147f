package jannotate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDocument(t *testing.T) {
	t.Run("empty document", func(t *testing.T) {
		var d Document
		require.Len(t, d, 0)
		require.Nil(t, d) // zero value of Document is nil slice
	})

	t.Run("multiple entry document preserves order", func(t *testing.T) {
		d := Document{
			{Key: "first", Value: 1},
			{Key: "second", Value: 2},
			{Key: "third", Value: 3},
		}
		require.Len(t, d, 3)
		require.Equal(t, "first", d[0].Key)
		require.Equal(t, "second", d[1].Key)
		require.Equal(t, "third", d[2].Key)
	})

	t.Run("document can contain any value types", func(t *testing.T) {
		nested := Document{{Key: "nested", Value: "value"}}
		arr := Array{1, 2, 3}
		d := Document{
			{Key: "string", Value: "text"},
			{Key: "null", Value: nil},
			{Key: "document", Value: nested},
			{Key: "array", Value: arr},
		}
		require.Equal(t, nested, d[2].Value)
		require.Equal(t, arr, d[3].Value)
	})
}

func TestArray(t *testing.T) {
	t.Run("zero value is nil", func(t *testing.T) {
		var a Array
		require.Nil(t, a)
	})

	t.Run("initialized array is not nil", func(t *testing.T) {
		a := Array{}
		require.Len(t, a, 0)
		require.NotNil(t, a)
	})
}
