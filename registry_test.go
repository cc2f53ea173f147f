package jannotate

import (
	"bytes"
	"sync"
	"testing"

	json "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDecoder(src string) *jsontext.Decoder {
	return jsontext.NewDecoder(bytes.NewReader([]byte(src)))
}

func decodeInt(dec *jsontext.Decoder, v *int) error {
	return json.UnmarshalDecode(dec, v)
}

func constInt(n int) func(*jsontext.Decoder, *int) error {
	return func(dec *jsontext.Decoder, v *int) error {
		if err := dec.SkipValue(); err != nil {
			return err
		}
		*v = n
		return nil
	}
}

func TestRegistry_Register(t *testing.T) {
	t.Run("valid function registration succeeds", func(t *testing.T) {
		r := newRegistry()
		require.NoError(t, r.Register("valid", decodeInt))
		require.NoError(t, r.Register("ns.directive", func(dec *jsontext.Decoder, v *string) error { return nil }))
		assert.Equal(t, []string{"ns.directive", "valid"}, r.Names())
	})

	t.Run("duplicate name returns error", func(t *testing.T) {
		r := newRegistry()
		require.NoError(t, r.Register("dup", decodeInt))
		err := r.Register("dup", decodeInt)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already registered")
	})

	t.Run("invalid namespace format returns error", func(t *testing.T) {
		r := newRegistry()
		for _, name := range []string{".bad", "bad.", "a.b.c", "."} {
			err := r.Register(name, decodeInt)
			require.Error(t, err, "expected error for name %s", name)
			assert.Contains(t, err.Error(), "invalid namespace")
		}
	})

	t.Run("invalid signatures return error", func(t *testing.T) {
		r := newRegistry()
		invalid := map[string]any{
			"not a function":        7,
			"one param":             func(*jsontext.Decoder) error { return nil },
			"three params":          func(*jsontext.Decoder, *int, *string) error { return nil },
			"no return":             func(*jsontext.Decoder, *int) {},
			"two returns":           func(*jsontext.Decoder, *int) (int, error) { return 0, nil },
			"wrong first param":     func(int, *int) error { return nil },
			"non-pointer second":    func(*jsontext.Decoder, int) error { return nil },
			"non-error return type": func(*jsontext.Decoder, *int) int { return 0 },
		}
		for name, fn := range invalid {
			t.Run(name, func(t *testing.T) {
				err := r.Register("fn", fn)
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid function signature")
			})
		}
	})

	t.Run("pointer to interface parameter is allowed", func(t *testing.T) {
		r := newRegistry()
		require.NoError(t, r.Register("iface", func(dec *jsontext.Decoder, v *any) error { return nil }))
	})
}

func TestRegistry_Exec(t *testing.T) {
	t.Run("fully qualified name decodes value", func(t *testing.T) {
		r := newRegistry()
		require.NoError(t, r.Register("val", decodeInt))

		got, err := r.Exec("val", newDecoder("123"))
		require.NoError(t, err)
		assert.Equal(t, 123, got)
	})

	t.Run("unique short name resolves to fully qualified name", func(t *testing.T) {
		r := newRegistry()
		require.NoError(t, r.Register("ns.val", decodeInt))

		name, got, err := r.exec("val", newDecoder("5"))
		require.NoError(t, err)
		assert.Equal(t, "ns.val", name)
		assert.Equal(t, 5, got)
	})

	t.Run("bare name wins over namespaced short name", func(t *testing.T) {
		r := newRegistry()
		require.NoError(t, r.Register("val", constInt(1)))
		require.NoError(t, r.Register("ns.val", constInt(2)))

		got, err := r.Exec("val", newDecoder("0"))
		require.NoError(t, err)
		assert.Equal(t, 1, got)

		got, err = r.Exec("ns.val", newDecoder("0"))
		require.NoError(t, err)
		assert.Equal(t, 2, got)
	})

	t.Run("missing directive returns error", func(t *testing.T) {
		r := newRegistry()
		got, err := r.Exec("missing", newDecoder("1"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not registered")
		assert.Nil(t, got)
	})

	t.Run("ambiguous short name returns error", func(t *testing.T) {
		r := newRegistry()
		require.NoError(t, r.Register("b.value", decodeInt))
		require.NoError(t, r.Register("a.value", decodeInt))

		got, err := r.Exec("value", newDecoder("1"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ambiguous (candidates: a.value, b.value)")
		assert.Nil(t, got)

		got, err = r.Exec("a.value", newDecoder("2"))
		require.NoError(t, err)
		assert.Equal(t, 2, got)
	})

	t.Run("directive error is wrapped with fully qualified name", func(t *testing.T) {
		r := newRegistry()
		require.NoError(t, r.Register("ns.err", func(dec *jsontext.Decoder, v *int) error { return assert.AnError }))

		got, err := r.Exec("err", newDecoder("0"))
		require.Error(t, err)
		assert.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "ns.err")
		assert.Nil(t, got)
	})

	t.Run("complex types as parameters work", func(t *testing.T) {
		type point struct{ X, Y int }
		r := newRegistry()
		require.NoError(t, r.Register("point", func(dec *jsontext.Decoder, v *point) error {
			return json.UnmarshalDecode(dec, v)
		}))

		got, err := r.Exec("point", newDecoder(`{"X":1,"Y":2}`))
		require.NoError(t, err)
		assert.Equal(t, point{X: 1, Y: 2}, got)
	})

	t.Run("empty string name is valid", func(t *testing.T) {
		r := newRegistry()
		require.NoError(t, r.Register("", constInt(9)))

		got, err := r.Exec("", newDecoder("null"))
		require.NoError(t, err)
		assert.Equal(t, 9, got)
	})
}

func TestRegistry_Concurrency(t *testing.T) {
	r := newRegistry()
	var wg sync.WaitGroup
	for _, name := range []string{"a.one", "b.two", "c.three", "four"} {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Register(name, constInt(42)))
		}()
		go func() {
			defer wg.Done()
			_, _ = r.Exec(name, newDecoder("0")) // may run before registration
		}()
	}
	wg.Wait()

	for _, name := range []string{"one", "two", "three", "four"} {
		got, err := r.Exec(name, newDecoder("0"))
		require.NoError(t, err)
		assert.Equal(t, 42, got)
	}
}
