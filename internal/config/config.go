// Package config loads the annotation settings of the jannotate command from
// defaults, an optional YAML file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/calumari/jannotate"
)

// Environment variables overriding file settings.
const (
	EnvPathSeparator = "JANNOTATE_PATH_SEPARATOR"
	EnvTypeMark      = "JANNOTATE_TYPE_MARK"
)

// File is the on-disk configuration.
type File struct {
	Annotation jannotate.Config `yaml:"annotation"`
	// Directives lists directive names to enable, e.g. "std.time". An empty
	// list enables none.
	Directives []string `yaml:"directives"`
}

// Default returns the configuration used when nothing else is set.
func Default() File {
	return File{
		Annotation: jannotate.Config{PathSeparator: "/", TypeMark: " -> "},
	}
}

// Load reads path on top of the defaults and applies environment overrides.
// A missing file is not an error; an empty path skips the file.
func Load(path string) (File, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	applyEnv(&cfg, os.LookupEnv)
	return cfg, nil
}

func loadFile(path string, cfg *File) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func applyEnv(cfg *File, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvPathSeparator); ok && v != "" {
		cfg.Annotation.PathSeparator = v
	}
	if v, ok := lookup(EnvTypeMark); ok && v != "" {
		cfg.Annotation.TypeMark = v
	}
}

// Validate checks the annotation settings and directive names.
func (f File) Validate() error {
	if err := f.Annotation.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	for _, name := range f.Directives {
		if _, ok := stdDirectives[name]; !ok {
			return fmt.Errorf("invalid config: unknown directive %q", name)
		}
	}
	return nil
}

var stdDirectives = map[string]jannotate.Registration{
	"std.time":     jannotate.TimeDirective,
	"std.duration": jannotate.DurationDirective,
}

// Registry builds a directive registry with the configured directives, or
// returns nil when none are enabled.
func (f File) Registry() (*jannotate.Registry, error) {
	if len(f.Directives) == 0 {
		return nil, nil
	}
	regs := make([]jannotate.Registration, 0, len(f.Directives))
	for _, name := range f.Directives {
		reg, ok := stdDirectives[name]
		if !ok {
			return nil, fmt.Errorf("unknown directive %q", name)
		}
		regs = append(regs, reg)
	}
	return jannotate.NewRegistry(regs...)
}
