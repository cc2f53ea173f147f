package jannotate

import (
	"errors"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// Config controls how annotations are rendered.
type Config struct {
	// PathSeparator joins path segments, e.g. "/".
	PathSeparator string `yaml:"path_separator"`
	// TypeMark separates a path from its type tag, e.g. " -> ".
	TypeMark string `yaml:"type_mark"`
}

// Validate checks that both strings are set and distinct.
func (c Config) Validate() error {
	var errs []error
	if c.PathSeparator == "" {
		errs = append(errs, errors.New("path separator is required"))
	}
	if c.TypeMark == "" {
		errs = append(errs, errors.New("type mark is required"))
	}
	if c.PathSeparator != "" && c.PathSeparator == c.TypeMark {
		errs = append(errs, errors.New("path separator and type mark must differ"))
	}
	return errors.Join(errs...)
}

// Option configures an Annotator.
type Option func(*Annotator)

// WithLogger sets the logger failures are reported to at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(a *Annotator) { a.logger = l }
}

// Annotator produces annotation lists for documents. It keeps the outcome of
// the last Annotate call until Reset. An Annotator must not be used by
// overlapping Annotate calls.
type Annotator struct {
	cfg    Config
	logger *slog.Logger

	annotations []string
	result      ErrorResult
}

// New returns an Annotator for cfg.
func New(cfg Config, opts ...Option) (*Annotator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &Annotator{cfg: cfg, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Annotate walks doc and records its annotations. The root of doc must be an
// object. On failure the recorded annotation list is empty and the returned
// result names the first offending entity.
func (a *Annotator) Annotate(doc any) ErrorResult {
	out, res := annotate(a.cfg, doc)
	a.annotations, a.result = out, res
	if !res.OK() {
		a.logger.Debug("annotation failed", "code", res.Code.String(), "entity", res.Entity)
		return res
	}
	a.logger.Debug("annotation done", "entries", len(out))
	return res
}

// Annotations returns the annotations recorded by the last Annotate call,
// sorted lexicographically and without duplicates.
func (a *Annotator) Annotations() []string {
	out := slices.Clone(a.annotations)
	slices.Sort(out)
	return slices.Compact(out)
}

// Result returns the outcome of the last Annotate call.
func (a *Annotator) Result() ErrorResult { return a.result }

// Reset discards the recorded annotations and result.
func (a *Annotator) Reset() {
	a.annotations = nil
	a.result = ErrorResult{}
}

func annotate(cfg Config, doc any) ([]string, ErrorResult) {
	w := &walker{cfg: cfg, out: []string{}}
	if KindOf(doc) != KindObject {
		w.fail(IncorrectInputFormat, WholeDocument)
		return w.out, w.res
	}
	w.walkPairs(doc, "", true)
	return w.out, w.res
}

// walker is the traversal context of a single annotation pass.
type walker struct {
	cfg Config
	out []string
	res ErrorResult
}

func (w *walker) failed() bool { return w.res.Code != OK }

// fail records the first error and drops everything emitted so far.
func (w *walker) fail(code ErrorCode, entity string) {
	if w.failed() {
		return
	}
	w.res = ErrorResult{Code: code, Entity: entity}
	w.out = w.out[:0]
}

func (w *walker) emit(path, tag string) {
	w.out = append(w.out, path+w.cfg.TypeMark+tag)
}

func (w *walker) join(parent, seg string) string {
	if parent == "" {
		return seg
	}
	return parent + w.cfg.PathSeparator + seg
}

// walkPairs visits the members of an object. Unless the object is the root or
// its path ends in a numeric segment, its own "object" annotation is emitted
// before its first member.
func (w *walker) walkPairs(obj any, path string, root bool) {
	tag := !root && !w.endsInIndex(path)
	visit := func(i int, key string, val any) bool {
		if i == 0 && tag {
			w.emit(path, KindObject.String())
		}
		w.walkPair(path, key, val)
		return !w.failed()
	}
	switch o := obj.(type) {
	case Document:
		for i, e := range o {
			if !visit(i, e.Key, e.Value) {
				return
			}
		}
	case map[string]any:
		for i, k := range slices.Sorted(maps.Keys(o)) {
			if !visit(i, k, o[k]) {
				return
			}
		}
	}
}

// endsInIndex reports whether the segment after the last separator of path is
// numeric. A path without a separator never does.
func (w *walker) endsInIndex(path string) bool {
	i := strings.LastIndex(path, w.cfg.PathSeparator)
	if i < 0 {
		return false
	}
	return isNumeric(path[i+len(w.cfg.PathSeparator):])
}

func isNumeric(s string) bool {
	return s != "" && strings.IndexFunc(s, func(r rune) bool { return !unicode.IsNumber(r) }) < 0
}

func (w *walker) walkPair(parent, key string, val any) {
	path := w.join(parent, key)
	switch k := KindOf(val); {
	case k == KindNull || k.IsScalar():
		w.emit(path, TypeName(val))
	case k == KindObject:
		w.walkPairs(val, path, false)
	case k == KindArray:
		w.walkArray(val, path)
	default:
		w.fail(InternalFatalError, path)
	}
}

func (w *walker) walkArray(arr any, path string) {
	var elems []any
	switch a := arr.(type) {
	case Array:
		elems = a
	case []any:
		elems = a
	}

	var (
		lastKind Kind
		lastTag  string
	)
	for i, elem := range elems {
		elemPath := path + w.cfg.PathSeparator + strconv.Itoa(i)
		kind := KindOf(elem)
		switch kind {
		case KindNull:
			w.fail(NullsInArray, elemPath)
			return
		case KindBool:
			w.fail(BoolsInArray, elemPath)
			return
		}
		// Directives of different names differ even though they share a kind.
		tag := TypeName(elem)
		if i > 0 && (kind != lastKind || tag != lastTag) {
			w.fail(DifferentArrayItemTypes, elemPath)
			return
		}
		lastKind, lastTag = kind, tag

		switch kind {
		case KindNumber, KindString, KindDirective:
			if i == 0 {
				w.emit(path, tag+"Array")
			}
		case KindObject:
			if i == 0 {
				w.emit(path, "objectArray")
			}
			w.walkPairs(elem, elemPath, false)
			if w.failed() {
				return
			}
		default:
			w.fail(InternalFatalError, elemPath)
			return
		}
	}
}
