package finder

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

// SourceFinder is responsible for finding source files to expand
type SourceFinder interface {
	// FindSources finds every file under dir that matches the include globs and none of the excludes
	FindSources(ctx context.Context, dir string) ([]*FileInfo, error)
	// Resolve expands command line arguments (files, directories or globs) into files
	Resolve(ctx context.Context, args []string) ([]*FileInfo, error)
}

// FileInfo represents information about a found source file
type FileInfo struct {
	Path     string
	Content  []byte
	FileType string
}

// DefaultFinder is the default implementation of SourceFinder
type DefaultFinder struct {
	fs      afero.Fs
	include []string
	exclude []string
}

// NewDefaultFinder creates a new DefaultFinder. Globs are matched against slash
// separated paths relative to the directory being searched.
func NewDefaultFinder(fs afero.Fs, include, exclude []string) *DefaultFinder {
	return &DefaultFinder{fs: fs, include: include, exclude: exclude}
}

// FindSources implements SourceFinder
func (f *DefaultFinder) FindSources(ctx context.Context, dir string) ([]*FileInfo, error) {
	var out []*FileInfo

	err := afero.Walk(f.fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if rel != "." && (f.excluded(rel) || f.excluded(rel+"/")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !f.included(rel) || f.excluded(rel) {
			return nil
		}

		fi, err := f.read(path)
		if err != nil {
			return err
		}
		out = append(out, fi)
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("walking %s: %w", dir, err)
	}

	return out, nil
}

// Resolve implements SourceFinder. Explicit files are taken as given; directories are
// searched with FindSources; anything with glob metacharacters is matched against the
// filesystem. The result is sorted and free of duplicates.
func (f *DefaultFinder) Resolve(ctx context.Context, args []string) ([]*FileInfo, error) {
	seen := map[string]*FileInfo{}

	for _, arg := range args {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if strings.ContainsAny(arg, "*?[{") {
			matches, err := f.glob(arg)
			if err != nil {
				return nil, errors.Errorf("matching %q: %w", arg, err)
			}
			for _, m := range matches {
				fi, err := f.read(m)
				if err != nil {
					return nil, err
				}
				seen[fi.Path] = fi
			}
			continue
		}

		info, err := f.fs.Stat(arg)
		if err != nil {
			return nil, errors.Errorf("resolving %q: %w", arg, err)
		}
		if !info.IsDir() {
			fi, err := f.read(arg)
			if err != nil {
				return nil, err
			}
			seen[fi.Path] = fi
			continue
		}

		found, err := f.FindSources(ctx, arg)
		if err != nil {
			return nil, err
		}
		for _, fi := range found {
			seen[fi.Path] = fi
		}
	}

	out := make([]*FileInfo, 0, len(seen))
	for _, fi := range seen {
		out = append(out, fi)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// glob matches pattern against the filesystem. io/fs names are never rooted, so a
// rooted pattern is matched below "/" and the results are rooted again.
func (f *DefaultFinder) glob(pattern string) ([]string, error) {
	pattern = filepath.ToSlash(filepath.Clean(pattern))
	root := strings.HasPrefix(pattern, "/")

	fsys := f.fs
	if root {
		fsys = afero.NewBasePathFs(f.fs, "/")
		pattern = strings.TrimLeft(pattern, "/")
	}

	matches, err := doublestar.Glob(afero.NewIOFS(fsys), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	for i, m := range matches {
		if root {
			m = "/" + m
		}
		matches[i] = filepath.FromSlash(m)
	}
	return matches, nil
}

func (f *DefaultFinder) read(path string) (*FileInfo, error) {
	content, err := afero.ReadFile(f.fs, path)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", path, err)
	}
	return &FileInfo{
		Path:     path,
		Content:  content,
		FileType: strings.TrimPrefix(filepath.Ext(path), "."),
	}, nil
}

func (f *DefaultFinder) included(rel string) bool {
	return matchAny(f.include, rel)
}

func (f *DefaultFinder) excluded(rel string) bool {
	return matchAny(f.exclude, rel)
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if doublestar.MatchUnvalidated(p, name) {
			return true
		}
	}
	return false
}
