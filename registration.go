package jannotate

import "github.com/go-json-experiment/json/jsontext"

// Registration is a deferred directive registration. Packages that define
// directives expose values of this type so callers opt in explicitly instead of
// relying on import side-effects (init functions).
//
// For example, in a package "geo":
//
//	var Point = jannotate.NewDirective("geo.point", func(dec *jsontext.Decoder) (Point, error) { ... })
//
// Usage:
//
//	r, _ := jannotate.NewRegistry(geo.Point /* , other directives... */)
//
// Values decoded by a directive are annotated with the directive name as type
// tag, e.g. "origin -> geo.point".
type Registration func(r *Registry) error

// NewDirective wraps a typed decode function into a Registration.
func NewDirective[T any](name string, fn func(dec *jsontext.Decoder) (T, error)) Registration {
	return func(r *Registry) error {
		return r.Register(name, func(dec *jsontext.Decoder, v *T) error {
			out, err := fn(dec)
			if err != nil {
				return err
			}
			*v = out
			return nil
		})
	}
}

// Group groups multiple registrations into one:
//
//	jannotate.NewRegistry(jannotate.Group(jannotate.TimeDirective, jannotate.DurationDirective), other)
func Group(regs ...Registration) Registration {
	return func(r *Registry) error { return Apply(r, regs...) }
}

// Apply applies one or more registrations to an existing registry. Stops at the
// first error and returns it.
func Apply(r *Registry, regs ...Registration) error {
	for _, reg := range regs {
		if err := reg(r); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry constructs a new registry and applies the provided registrations.
func NewRegistry(regs ...Registration) (*Registry, error) {
	r := newRegistry()
	if err := Apply(r, regs...); err != nil {
		return nil, err
	}
	return r, nil
}
