package jannotate

import (
	"time"

	json "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// decodeTime reads either an RFC3339 string or an object naming its own
// layout. An object without a layout falls back to RFC3339 too.
func decodeTime(dec *jsontext.Decoder) (time.Time, error) {
	layout := time.RFC3339
	var value string
	if dec.PeekKind() == '{' {
		var in struct {
			Value  string `json:"value"`
			Layout string `json:"layout"`
		}
		if err := json.UnmarshalDecode(dec, &in); err != nil {
			return time.Time{}, err
		}
		if in.Layout != "" {
			layout = in.Layout
		}
		value = in.Value
	} else if err := json.UnmarshalDecode(dec, &value); err != nil {
		return time.Time{}, err
	}
	return time.Parse(layout, value)
}

// decodeDuration reads a time.ParseDuration string such as "1h30m".
func decodeDuration(dec *jsontext.Decoder) (time.Duration, error) {
	var s string
	if err := json.UnmarshalDecode(dec, &s); err != nil {
		return 0, err
	}
	return time.ParseDuration(s)
}

// NewTimeDirective returns a Registration decoding timestamps under a custom
// directive name. Both forms are accepted:
//
//	{"$<name>": "2006-01-02T15:04:05Z07:00"}                      // RFC3339
//	{"$<name>": {"value":"2023-10-05","layout":"2006-01-02"}}     // custom layout
func NewTimeDirective(name string) Registration {
	return NewDirective(name, decodeTime)
}

// NewDurationDirective returns a Registration parsing a Go duration string into
// time.Duration under a custom directive name.
func NewDurationDirective(name string) Registration {
	return NewDirective(name, decodeDuration)
}

// Default stdlib directive registrations using canonical names.
var (
	TimeDirective     = NewTimeDirective("std.time")
	DurationDirective = NewDurationDirective("std.duration")
)

// Stdlib bundles TimeDirective and DurationDirective.
func Stdlib() Registration {
	return Group(TimeDirective, DurationDirective)
}
