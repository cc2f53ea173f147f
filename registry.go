package jannotate

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/go-json-experiment/json/jsontext"
)

const namespaceSeparator = "."

type funcEntry struct {
	fn   reflect.Value
	elem reflect.Type
}

// Registry maps directive names to the functions decoding their payloads.
// Names are either bare ("time") or namespaced with a single dot
// ("std.time"). A namespaced directive can also be looked up by its short
// name as long as that short name is unambiguous.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]funcEntry
	short   map[string][]string // short name -> fully qualified names
}

func newRegistry() *Registry {
	return &Registry{
		entries: make(map[string]funcEntry),
		short:   make(map[string][]string),
	}
}

var (
	jsontextDecoderType = reflect.TypeOf((*jsontext.Decoder)(nil))
	errorType           = reflect.TypeOf((*error)(nil)).Elem()
)

func validateFuncSignature(name string, fn any) (reflect.Value, reflect.Type, error) {
	fnVal := reflect.ValueOf(fn)
	if fnVal.Kind() != reflect.Func {
		return fnVal, nil, fmt.Errorf("directive %q invalid function signature (got %T)", name, fn)
	}
	typ := fnVal.Type()
	if typ.NumIn() != 2 || typ.NumOut() != 1 {
		return fnVal, typ, fmt.Errorf("directive %q invalid function signature (expected 2 inputs, 1 output; got %d, %d)", name, typ.NumIn(), typ.NumOut())
	}
	if typ.In(0) != jsontextDecoderType {
		return fnVal, typ, fmt.Errorf("directive %q invalid function signature (first param must be *jsontext.Decoder; got %s)", name, typ.In(0))
	}
	arg := typ.In(1)
	if arg.Kind() != reflect.Pointer || arg.Elem().Kind() == reflect.Invalid {
		return fnVal, typ, fmt.Errorf("directive %q invalid function signature (second param must be pointer to concrete type; got %s)", name, arg)
	}
	if typ.Out(0) != errorType {
		return fnVal, typ, fmt.Errorf("directive %q invalid function signature (return type must be error; got %s)", name, typ.Out(0))
	}
	return fnVal, arg.Elem(), nil
}

// splitName returns the short name of a directive and whether it is
// namespaced.
func splitName(name string) (string, bool, error) {
	switch strings.Count(name, namespaceSeparator) {
	case 0:
		return name, false, nil
	case 1:
		ns, short, _ := strings.Cut(name, namespaceSeparator)
		if ns == "" || short == "" {
			return "", false, fmt.Errorf("directive %q invalid namespace (empty namespace or name)", name)
		}
		return short, true, nil
	default:
		return "", false, fmt.Errorf("directive %q invalid namespace (at most one %q allowed)", name, namespaceSeparator)
	}
}

// Register adds a directive. fn must have the signature
// func(*jsontext.Decoder, *T) error.
func (r *Registry) Register(name string, fn any) error {
	short, namespaced, err := splitName(name)
	if err != nil {
		return err
	}
	fnVal, elemType, err := validateFuncSignature(name, fn)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("directive %q already registered", name)
	}
	r.entries[name] = funcEntry{fn: fnVal, elem: elemType}
	if namespaced {
		r.short[short] = append(r.short[short], name)
	}
	return nil
}

// resolve returns the fully qualified name for name. An exact match wins over
// a short name match.
func (r *Registry) resolve(name string) (string, funcEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if ent, ok := r.entries[name]; ok {
		return name, ent, nil
	}
	switch full := r.short[name]; len(full) {
	case 0:
		return "", funcEntry{}, fmt.Errorf("directive %q not registered", name)
	case 1:
		return full[0], r.entries[full[0]], nil
	default:
		candidates := slices.Sorted(slices.Values(full))
		return "", funcEntry{}, fmt.Errorf("directive %q ambiguous (candidates: %s)", name, strings.Join(candidates, ", "))
	}
}

// Exec decodes the payload of directive name from dec and returns the decoded
// value.
func (r *Registry) Exec(name string, dec *jsontext.Decoder) (any, error) {
	_, v, err := r.exec(name, dec)
	return v, err
}

func (r *Registry) exec(name string, dec *jsontext.Decoder) (string, any, error) {
	full, ent, err := r.resolve(name)
	if err != nil {
		return "", nil, err
	}

	argv := reflect.New(ent.elem)
	results := ent.fn.Call([]reflect.Value{reflect.ValueOf(dec), argv})

	if errVal := results[0].Interface(); errVal != nil {
		return "", nil, fmt.Errorf("directive %q execution: %w", full, errVal.(error))
	}
	return full, argv.Elem().Interface(), nil
}

// Names returns the fully qualified names of all registered directives in
// sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.entries))
}
