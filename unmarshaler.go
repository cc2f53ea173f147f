package jannotate

import (
	"fmt"
	"io"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Unmarshalers returns the full set of unmarshalers allowing decoding into:
//   - any/interface{} -> objects as Document, arrays as Array, directive
//     objects as Directive
//   - *Document       -> direct ordered object decoding
//   - *Array          -> direct array decoding
//
// r may be nil, in which case no directive is recognised and "$"-prefixed
// keys are ordinary keys.
func Unmarshalers(r *Registry) *json.Unmarshalers {
	return json.JoinUnmarshalers(
		unmarshalValue(r), // *any (objects, arrays, directives)
		documentUnmarshaler(),
		arrayUnmarshaler(),
	)
}

// Decode decodes a JSON text into the value tree consumed by Annotator.
func Decode(data []byte, r *Registry) (any, error) {
	var out any
	if err := json.Unmarshal(data, &out, json.WithUnmarshalers(Unmarshalers(r))); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return out, nil
}

// DecodeReader is like Decode but reads a single JSON value from rd.
func DecodeReader(rd io.Reader, r *Registry) (any, error) {
	var out any
	if err := json.UnmarshalRead(rd, &out, json.WithUnmarshalers(Unmarshalers(r))); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return out, nil
}

// unmarshalValue:
//   - wraps JSON objects as Document rather than map[string]any
//   - wraps JSON arrays as Array
//   - detects directive objects of the form {"$<name>": <value>[, ...ignored...]}
//     and dispatches to the registered directive. Any extra fields after the
//     directive field are skipped.
//   - leaves primitive JSON values (string, number, bool, null) to the default
//     logic by returning json.SkipFunc.
//
// Empty objects ({}) produce an empty Document; empty arrays ([]) an empty Array.
func unmarshalValue(r *Registry) *json.Unmarshalers {
	return json.UnmarshalFromFunc(func(dec *jsontext.Decoder, v *any) error {
		switch dec.PeekKind() {
		case '{':
			val, err := decodeObject(dec, r)
			if err != nil {
				return err
			}
			*v = val
			return nil
		case '[':
			arr, err := decodeArray(dec)
			if err != nil {
				return err
			}
			*v = arr
			return nil
		default:
			return json.SkipFunc
		}
	})
}

// documentUnmarshaler decodes a JSON object into a *Document. Directives are
// not interpreted for the top-level object, only for nested values decoded
// into interface{}.
func documentUnmarshaler() *json.Unmarshalers {
	return json.UnmarshalFromFunc(func(dec *jsontext.Decoder, v *Document) error {
		if dec.PeekKind() != '{' {
			return json.SkipFunc
		}
		val, err := decodeObject(dec, nil)
		if err != nil {
			return err
		}
		*v = val.(Document)
		return nil
	})
}

func arrayUnmarshaler() *json.Unmarshalers {
	return json.UnmarshalFromFunc(func(dec *jsontext.Decoder, v *Array) error {
		if dec.PeekKind() != '[' {
			return json.SkipFunc
		}
		arr, err := decodeArray(dec)
		if err != nil {
			return err
		}
		*v = arr
		return nil
	})
}

// decodeObject decodes a JSON object into a Document, or into a Directive when
// r is set and the first key names a directive.
func decodeObject(dec *jsontext.Decoder, r *Registry) (any, error) {
	if _, err := dec.ReadToken(); err != nil { // '{'
		return nil, fmt.Errorf("read object open: %w", err)
	}
	if dec.PeekKind() == '}' { // empty
		if _, err := dec.ReadToken(); err != nil { // '}'
			return nil, fmt.Errorf("read object close: %w", err)
		}
		return Document{}, nil
	}

	var firstKey string
	if err := json.UnmarshalDecode(dec, &firstKey); err != nil {
		return nil, fmt.Errorf("read object first key: %w", err)
	}
	if r != nil && len(firstKey) > 0 && firstKey[0] == '$' {
		return decodeDirective(dec, r, firstKey)
	}

	var firstVal any
	if err := json.UnmarshalDecode(dec, &firstVal); err != nil {
		return nil, fmt.Errorf("read object value for key %q: %w", firstKey, err)
	}
	res := Document{{Key: firstKey, Value: firstVal}}
	for dec.PeekKind() != '}' {
		var k string
		if err := json.UnmarshalDecode(dec, &k); err != nil {
			return nil, fmt.Errorf("read object key: %w", err)
		}
		var vv any
		if err := json.UnmarshalDecode(dec, &vv); err != nil {
			return nil, fmt.Errorf("read object value for key %q: %w", k, err)
		}
		res = append(res, Entry{Key: k, Value: vv})
	}
	if _, err := dec.ReadToken(); err != nil { // '}'
		return nil, fmt.Errorf("read object close: %w", err)
	}
	return res, nil
}

func decodeDirective(dec *jsontext.Decoder, r *Registry, key string) (Directive, error) {
	name, val, err := r.exec(key[1:], dec)
	if err != nil {
		return Directive{}, fmt.Errorf("directive %q call: %w", key, err)
	}
	// skip any extra fields so the decoder is left after the closing '}'.
	for dec.PeekKind() != '}' {
		if err := dec.SkipValue(); err != nil {
			return Directive{}, fmt.Errorf("directive %q skip extra field: %w", key, err)
		}
	}
	if _, err := dec.ReadToken(); err != nil {
		return Directive{}, fmt.Errorf("directive %q read object close: %w", key, err)
	}
	return Directive{Name: name, Value: val}, nil
}

func decodeArray(dec *jsontext.Decoder) (Array, error) {
	if _, err := dec.ReadToken(); err != nil { // '['
		return nil, fmt.Errorf("read array open: %w", err)
	}
	arr := Array{}
	for dec.PeekKind() != ']' {
		var elem any
		if err := json.UnmarshalDecode(dec, &elem); err != nil {
			return nil, fmt.Errorf("read array element %d: %w", len(arr), err)
		}
		arr = append(arr, elem)
	}
	if _, err := dec.ReadToken(); err != nil { // ']'
		return nil, fmt.Errorf("read array close: %w", err)
	}
	return arr, nil
}
