// Package fixture loads and runs annotation fixtures. A fixture is a JSON file
// of the form
//
//	{
//	  "testInput": { ... document to annotate ... },
//	  "expectedOutput": {
//	    "errCode": "OK",
//	    "result": ["a -> number", ...]
//	  }
//	}
//
// where errCode is the name of a jannotate.ErrorCode.
package fixture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/calumari/jannotate"
)

// Fixture is a decoded fixture file.
type Fixture struct {
	Name           string
	TestInput      any
	ExpectedCode   jannotate.ErrorCode
	ExpectedResult []string
}

// raw mirrors the file layout. Fields are raw values so that missing and
// mistyped members can be told apart.
type raw struct {
	TestInput      jsontext.Value `json:"testInput"`
	ExpectedOutput jsontext.Value `json:"expectedOutput"`
}

type rawOutput struct {
	ErrCode jsontext.Value `json:"errCode"`
	Result  jsontext.Value `json:"result"`
}

// ErrInvalid is wrapped by every format error reported by Parse.
var ErrInvalid = errors.New("invalid fixture")

func invalidType(node, want, where string) error {
	return fmt.Errorf("%w: %q node should be a valid %s (file %s)", ErrInvalid, node, want, where)
}

func missing(node, where string) error {
	return fmt.Errorf("%w: %s node should be present (file %s)", ErrInvalid, node, where)
}

// Load reads and parses the fixture at path. The fixture name is the file
// name without extension.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Parse(name, data)
}

// LoadDir loads every *.json fixture in dir, sorted by name.
func LoadDir(dir string) ([]*Fixture, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	slices.Sort(paths)
	out := make([]*Fixture, 0, len(paths))
	for _, p := range paths {
		f, err := Load(p)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// Parse decodes and validates fixture data. name is used in error messages.
func Parse(name string, data []byte) (*Fixture, error) {
	if kind := jsontext.Value(data).Kind(); kind != '{' {
		if !jsontext.Value(data).IsValid() {
			return nil, fmt.Errorf("%w: file %s is not a valid JSON file", ErrInvalid, name)
		}
		return nil, fmt.Errorf("%w: data should be a valid JSON object (file %s)", ErrInvalid, name)
	}
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: file %s is not a valid JSON file: %v", ErrInvalid, name, err)
	}

	if r.TestInput == nil {
		return nil, missing("testInput", name)
	}
	if r.TestInput.Kind() != '{' {
		return nil, invalidType("testInput", "JSON object", name)
	}
	if r.ExpectedOutput == nil {
		return nil, missing("expectedOutput", name)
	}
	if r.ExpectedOutput.Kind() != '{' {
		return nil, invalidType("expectedOutput", "JSON object", name)
	}

	var out rawOutput
	if err := json.Unmarshal(r.ExpectedOutput, &out); err != nil {
		return nil, fmt.Errorf("%w: expectedOutput: %v (file %s)", ErrInvalid, err, name)
	}
	where := name + `, "expectedOutput"`
	if out.Result == nil {
		return nil, missing("result", where)
	}
	if out.Result.Kind() != '[' {
		return nil, invalidType("result", "JSON array", where)
	}
	if out.ErrCode == nil {
		return nil, missing("errCode", where)
	}
	if out.ErrCode.Kind() != '"' {
		return nil, invalidType("errCode", "string", where)
	}

	var codeName string
	if err := json.Unmarshal(out.ErrCode, &codeName); err != nil {
		return nil, fmt.Errorf("%w: errCode: %v (file %s)", ErrInvalid, err, name)
	}
	code, err := jannotate.ParseErrorCode(codeName)
	if err != nil {
		return nil, fmt.Errorf("%w: value of \"errCode\" is not a valid error code name (file %s)", ErrInvalid, name)
	}
	var result []string
	if err := json.Unmarshal(out.Result, &result); err != nil {
		return nil, fmt.Errorf("%w: result: %v (file %s)", ErrInvalid, err, name)
	}
	input, err := jannotate.Decode(r.TestInput, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: testInput: %v (file %s)", ErrInvalid, err, name)
	}

	return &Fixture{
		Name:           name,
		TestInput:      input,
		ExpectedCode:   code,
		ExpectedResult: result,
	}, nil
}

// Outcome is the result of running a fixture.
type Outcome struct {
	Result      jannotate.ErrorResult
	Annotations []string
	// Missing and Unexpected list expected annotations not produced and
	// produced annotations not expected.
	Missing    []string
	Unexpected []string
}

// Passed reports whether the run matched the fixture.
func (o Outcome) Passed(f *Fixture) bool {
	return o.Result.Code == f.ExpectedCode && len(o.Missing) == 0 && len(o.Unexpected) == 0
}

// Run annotates the fixture input with a and compares the outcome with the
// expectation. a is reset before and after the run.
func (f *Fixture) Run(a *jannotate.Annotator) Outcome {
	a.Reset()
	defer a.Reset()

	res := a.Annotate(f.TestInput)
	got := a.Annotations()
	want := slices.Clone(f.ExpectedResult)
	slices.Sort(want)
	want = slices.Compact(want)

	return Outcome{
		Result:      res,
		Annotations: got,
		Missing:     difference(want, got),
		Unexpected:  difference(got, want),
	}
}

// difference returns the elements of sorted slice a missing from sorted
// slice b.
func difference(a, b []string) []string {
	var out []string
	for _, s := range a {
		if _, found := slices.BinarySearch(b, s); !found {
			out = append(out, s)
		}
	}
	return out
}
