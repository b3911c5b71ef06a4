// Package driver rewrites a set of files and reports the result in one of several modes.
package driver

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/clown/pkg/config"
	"github.com/walteh/clown/pkg/diagnostic"
	"github.com/walteh/clown/pkg/diff"
	"github.com/walteh/clown/pkg/finder"
	"github.com/walteh/clown/pkg/rewrite"
)

type Mode string

const (
	// ModeStdout prints every rewritten file.
	ModeStdout Mode = "stdout"
	// ModeWrite rewrites changed files in place.
	ModeWrite Mode = "write"
	// ModeDiff prints a unified diff per changed file.
	ModeDiff Mode = "diff"
	// ModeCheck only reports which files would change.
	ModeCheck Mode = "check"
)

var Modes = []Mode{ModeStdout, ModeWrite, ModeDiff, ModeCheck}

func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", errors.Errorf("unknown mode %q, want one of %v", s, Modes)
}

type Options struct {
	// Paths are files, directories or globs. Empty means the current directory.
	Paths  []string
	Config *config.Config
	Mode   Mode
	// Jobs overrides Config.Jobs when positive.
	Jobs int
	// Out receives rewritten sources and diffs.
	Out io.Writer
}

// FileResult is the outcome for one file.
type FileResult struct {
	Path        string
	Source      string
	Output      string
	Expansions  int
	Err         error
	Diagnostics *diagnostic.Diagnostics
}

func (f *FileResult) Changed() bool {
	return f.Err == nil && f.Output != f.Source
}

type Report struct {
	Files []*FileResult
}

// Changed lists the files whose expansion succeeded and differs from the source.
func (r *Report) Changed() []string {
	var out []string
	for _, f := range r.Files {
		if f.Changed() {
			out = append(out, f.Path)
		}
	}
	return out
}

// Failed lists the files with at least one expansion error.
func (r *Report) Failed() []*FileResult {
	var out []*FileResult
	for _, f := range r.Files {
		if f.Err != nil {
			out = append(out, f)
		}
	}
	return out
}

// Diagnostics collects the diagnostics of every failed file.
func (r *Report) Diagnostics() *diagnostic.Diagnostics {
	out := &diagnostic.Diagnostics{}
	for _, f := range r.Files {
		out.Merge(f.Diagnostics)
	}
	return out
}

// Sources maps each path to its original text, for rendering diagnostics.
func (r *Report) Sources() map[string]string {
	out := make(map[string]string, len(r.Files))
	for _, f := range r.Files {
		out[f.Path] = f.Source
	}
	return out
}

// Run expands every file selected by opts. Files are rewritten concurrently and
// reported in path order. A file with any expansion error produces no output and is
// never written; its error is part of the returned error and its diagnostics are in
// the report.
func Run(ctx context.Context, fs afero.Fs, opts Options) (*Report, error) {
	log := zerolog.Ctx(ctx)

	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	paths := opts.Paths
	if len(paths) == 0 {
		paths = []string{"."}
	}
	if opts.Mode == "" {
		opts.Mode = ModeStdout
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	files, err := finder.NewDefaultFinder(fs, cfg.Include, cfg.Exclude).Resolve(ctx, paths)
	if err != nil {
		return nil, err
	}

	jobs := cfg.Jobs
	if opts.Jobs > 0 {
		jobs = opts.Jobs
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	report := &Report{Files: make([]*FileResult, len(files))}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fr, err := expandFile(gctx, fs, cfg, file)
			if err != nil {
				return err
			}
			report.Files[i] = fr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var errs error
	for _, f := range report.Files {
		if f.Err != nil {
			errs = multierr.Append(errs, errors.Errorf("%s: %w", f.Path, f.Err))
			continue
		}

		log.Info().
			Str("file", f.Path).
			Int("expansions", f.Expansions).
			Bool("changed", f.Changed()).
			Msg("expanded file")

		if err := emit(fs, out, opts.Mode, f); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return report, errs
}

// expandFile rewrites one file. Expansion errors are recorded on the result; only
// failures to read the surrounding configuration are returned.
func expandFile(ctx context.Context, fs afero.Fs, cfg *config.Config, file *finder.FileInfo) (*FileResult, error) {
	indent, err := rewrite.IndentFor(fs, file.Path)
	if err != nil {
		return nil, err
	}

	rw := &rewrite.Rewriter{Attribute: cfg.Attribute, Indent: indent}
	fr := &FileResult{Path: file.Path, Source: string(file.Content), Output: string(file.Content)}

	res, err := rw.Source(ctx, file.Path, fr.Source)
	if err != nil {
		fr.Err = err
		fr.Diagnostics = diagnostic.FromError(file.Path, fr.Source, err)
		return fr, nil
	}

	fr.Output = res.Output
	fr.Expansions = len(res.Expansions)
	return fr, nil
}

func emit(fs afero.Fs, out io.Writer, mode Mode, f *FileResult) error {
	switch mode {
	case ModeStdout:
		_, err := io.WriteString(out, f.Output)
		return err
	case ModeDiff:
		if !f.Changed() {
			return nil
		}
		_, err := io.WriteString(out, diff.Unified(f.Path, f.Source, f.Output))
		return err
	case ModeWrite:
		if !f.Changed() {
			return nil
		}
		info, err := fs.Stat(f.Path)
		if err != nil {
			return errors.Errorf("stat %s: %w", f.Path, err)
		}
		if err := afero.WriteFile(fs, f.Path, []byte(f.Output), info.Mode().Perm()); err != nil {
			return errors.Errorf("writing %s: %w", f.Path, err)
		}
		return nil
	case ModeCheck:
		return nil
	}
	return errors.Errorf("unknown mode %q", mode)
}

// String summarizes the report in one line.
func (r *Report) String() string {
	return fmt.Sprintf("%d files, %d changed, %d failed", len(r.Files), len(r.Changed()), len(r.Failed()))
}
