package jannotate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeYAML(t *testing.T) {
	t.Run("mapping order and scalar types", func(t *testing.T) {
		v, err := DecodeYAML([]byte(`
name: api
replicas: 3
ratio: 0.5
enabled: yes
debug: false
owner: ~
quoted: "42"
`))
		require.NoError(t, err)
		assert.Equal(t, Document{
			{Key: "name", Value: "api"},
			{Key: "replicas", Value: float64(3)},
			{Key: "ratio", Value: 0.5},
			{Key: "enabled", Value: "yes"}, // YAML 1.2: only true/false are booleans
			{Key: "debug", Value: false},
			{Key: "owner", Value: nil},
			{Key: "quoted", Value: "42"},
		}, v)
	})

	t.Run("sequences and nesting", func(t *testing.T) {
		v, err := DecodeYAML([]byte(`
ports: [80, 443]
env:
  - k: A
  - k: B
`))
		require.NoError(t, err)
		assert.Equal(t, Document{
			{Key: "ports", Value: Array{float64(80), float64(443)}},
			{Key: "env", Value: Array{
				Document{{Key: "k", Value: "A"}},
				Document{{Key: "k", Value: "B"}},
			}},
		}, v)
	})

	t.Run("aliases are expanded", func(t *testing.T) {
		v, err := DecodeYAML([]byte(`
base: &b {x: 1}
copy: *b
`))
		require.NoError(t, err)
		doc := v.(Document)
		assert.Equal(t, doc[0].Value, doc[1].Value)
	})

	t.Run("merge keys are rejected", func(t *testing.T) {
		_, err := DecodeYAML([]byte(`
base: &b {x: 1}
derived:
  <<: *b
  y: 2
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "merge keys")
	})

	t.Run("non-finite floats are rejected", func(t *testing.T) {
		_, err := DecodeYAML([]byte(`x: .inf`))
		require.Error(t, err)
	})

	t.Run("empty input fails", func(t *testing.T) {
		_, err := DecodeYAML(nil)
		require.Error(t, err)
	})

	t.Run("sequence root annotates as incorrect input", func(t *testing.T) {
		v, err := DecodeYAML([]byte(`[1, 2]`))
		require.NoError(t, err)
		a := newAnnotator(t)
		assert.Equal(t, IncorrectInputFormat, a.Annotate(v).Code)
	})

	t.Run("yaml and json produce the same annotations", func(t *testing.T) {
		y, err := DecodeYAML([]byte("a:\n  - x: 1\n  - x: 2\nb:\n  c: d\n"))
		require.NoError(t, err)
		j, err := Decode([]byte(`{"a": [{"x": 1}, {"x": 2}], "b": {"c": "d"}}`), nil)
		require.NoError(t, err)

		a := newAnnotator(t)
		require.True(t, a.Annotate(y).OK())
		fromYAML := a.Annotations()
		require.True(t, a.Annotate(j).OK())
		assert.Equal(t, fromYAML, a.Annotations())
	})
}
