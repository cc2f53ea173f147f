// Package jannotate summarises the shape of a JSON document as a sorted list of
// annotation strings, one per node, each carrying the node path and a type tag:
//
//	{"a": [{"x": 1}], "b": "y"}
//
// becomes
//
//	a -> objectArray
//	a/0/x -> number
//	b -> string
//
// with "/" as path separator and " -> " as type mark.
package jannotate

// Document represents a JSON object, defined as an ordered collection of
// key-value pairs.
type Document []Entry

// Array represents a JSON array, defined as a slice of values of any type.
type Array []any

// Entry represents a single entry in a document. It consists of a string key
// and an associated value of any type.
type Entry struct {
	Key   string
	Value any
}

// Directive is the value decoded from a sentinel object {"$<name>": ...} by a
// registered directive. Name is the fully qualified directive name and is
// used as the type tag of the node.
type Directive struct {
	Name  string
	Value any
}
