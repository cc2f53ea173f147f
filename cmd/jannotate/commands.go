package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/calumari/jannotate"
	"github.com/calumari/jannotate/internal/config"
	"github.com/calumari/jannotate/internal/fixture"
)

// errSilent is returned when the command already reported the failure and only
// the exit status remains to be set.
var errSilent = errors.New("silent failure")

var errYAMLDirectives = errors.New("directives apply to JSON input only")

type options struct {
	configPath string
	separator  string
	mark       string
	directives []string
	verbose    bool
}

// env is the state shared by all subcommands once flags are parsed.
type env struct {
	annotator *jannotate.Annotator
	registry  *jannotate.Registry
	logger    *slog.Logger
}

func newRootCmd() *cobra.Command {
	var opts options

	root := &cobra.Command{
		Use:   "jannotate [file...]",
		Short: "Print the shape of JSON documents as annotated paths",
		Long: `jannotate walks a JSON (or YAML) document and prints one line per node:
the node path followed by its type, e.g. "config/retries -> number".
Arrays must be homogeneous and may not contain nulls or booleans.
With no file, or when file is -, the document is read from standard input.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.env(cmd)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				args = []string{"-"}
			}
			return runAnnotate(cmd, e, args)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	flags.StringVar(&opts.separator, "separator", "", "path separator (default \"/\")")
	flags.StringVar(&opts.mark, "mark", "", "type mark placed between path and type (default \" -> \")")
	flags.StringSliceVar(&opts.directives, "directive", nil, "enable a directive (std.time, std.duration); YAML input is rejected while any is enabled")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug information to stderr")

	root.AddCommand(newDiffCmd(&opts), newVerifyCmd(&opts))
	return root
}

func (o *options) env(cmd *cobra.Command) (*env, error) {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.separator != "" {
		cfg.Annotation.PathSeparator = o.separator
	}
	if o.mark != "" {
		cfg.Annotation.TypeMark = o.mark
	}
	cfg.Directives = append(cfg.Directives, o.directives...)
	slices.Sort(cfg.Directives)
	cfg.Directives = slices.Compact(cfg.Directives)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	reg, err := cfg.Registry()
	if err != nil {
		return nil, err
	}
	a, err := jannotate.New(cfg.Annotation, jannotate.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	logger.Debug("configured",
		"separator", cfg.Annotation.PathSeparator,
		"mark", cfg.Annotation.TypeMark,
		"directives", cfg.Directives)
	return &env{annotator: a, registry: reg, logger: logger}, nil
}

// load reads and decodes the document at path; "-" is standard input.
func (e *env) load(cmd *cobra.Command, path string) (any, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	e.logger.Debug("loaded document", "path", path, "bytes", len(data))

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if e.registry != nil {
			return nil, errYAMLDirectives
		}
		return jannotate.DecodeYAML(data)
	default:
		return jannotate.Decode(data, e.registry)
	}
}

// annotations returns the annotation list of the document at path.
func (e *env) annotations(cmd *cobra.Command, path string) ([]string, error) {
	doc, err := e.load(cmd, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	e.annotator.Reset()
	if res := e.annotator.Annotate(doc); !res.OK() {
		return nil, fmt.Errorf("%s: %s: %s", path, res.Code, res.Message())
	}
	return e.annotator.Annotations(), nil
}

func runAnnotate(cmd *cobra.Command, e *env, paths []string) error {
	w := cmd.OutOrStdout()
	var failed bool
	for i, path := range paths {
		if len(paths) > 1 {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "==> %s <==\n", path)
		}
		lines, err := e.annotations(cmd, path)
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
			failed = true
			continue
		}
		for _, l := range lines {
			fmt.Fprintln(w, l)
		}
	}
	if failed {
		return errSilent
	}
	return nil
}

func newDiffCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Compare the shapes of two documents",
		Long: `diff prints the annotations present only in OLD prefixed with "-" and
those present only in NEW prefixed with "+". The exit status is 1 when the
shapes differ.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.env(cmd)
			if err != nil {
				return err
			}
			oldLines, err := e.annotations(cmd, args[0])
			if err != nil {
				return err
			}
			newLines, err := e.annotations(cmd, args[1])
			if err != nil {
				return err
			}
			if !printDiff(cmd.OutOrStdout(), oldLines, newLines) {
				return nil
			}
			return errSilent
		},
	}
}

// printDiff writes the difference of two sorted annotation lists and reports
// whether there was any.
func printDiff(w io.Writer, oldLines, newLines []string) bool {
	i, j := 0, 0
	changed := false
	for i < len(oldLines) || j < len(newLines) {
		switch {
		case j == len(newLines) || (i < len(oldLines) && oldLines[i] < newLines[j]):
			fmt.Fprintf(w, "- %s\n", oldLines[i])
			i++
			changed = true
		case i == len(oldLines) || newLines[j] < oldLines[i]:
			fmt.Fprintf(w, "+ %s\n", newLines[j])
			j++
			changed = true
		default:
			i++
			j++
		}
	}
	return changed
}

func newVerifyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "verify FIXTURE|DIR...",
		Short: "Run annotation fixtures",
		Long: `verify loads fixture files (or every *.json file of a directory), annotates
their testInput and compares the outcome with expectedOutput.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.env(cmd)
			if err != nil {
				return err
			}
			fixtures, err := loadFixtures(args)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			failures := 0
			for _, f := range fixtures {
				out := f.Run(e.annotator)
				if out.Passed(f) {
					fmt.Fprintf(w, "ok   %s\n", f.Name)
					continue
				}
				failures++
				fmt.Fprintf(w, "FAIL %s\n", f.Name)
				if out.Result.Code != f.ExpectedCode {
					fmt.Fprintf(w, "     code: got %s, want %s (entity %q)\n", out.Result.Code, f.ExpectedCode, out.Result.Entity)
				}
				for _, m := range out.Missing {
					fmt.Fprintf(w, "     missing:    %s\n", m)
				}
				for _, u := range out.Unexpected {
					fmt.Fprintf(w, "     unexpected: %s\n", u)
				}
			}
			e.logger.Debug("verify done", "fixtures", len(fixtures), "failures", failures)
			if failures > 0 {
				return errSilent
			}
			return nil
		},
	}
}

func loadFixtures(paths []string) ([]*fixture.Fixture, error) {
	var out []*fixture.Fixture
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if fi.IsDir() {
			fs, err := fixture.LoadDir(p)
			if err != nil {
				return nil, err
			}
			out = append(out, fs...)
			continue
		}
		f, err := fixture.Load(p)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
