package typegen

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-multierror"
	"github.com/teranos/schemagen/errors"
	"golang.org/x/sync/errgroup"
)

// ioLimit bounds concurrent file operations
const ioLimit = 12

// File is one generated file.
type File struct {
	// RelativePath is the slash-separated path under the output root
	RelativePath string
	Data         []byte
}

type fsEntry struct {
	data  []byte
	owner string
}

// FS is the in-memory output tree of a run. It is written to disk in one
// batch, through a staging directory, or compared with what is on disk.
type FS struct {
	mu    sync.Mutex
	files map[string]fsEntry
}

// NewFS creates an empty output tree
func NewFS() *FS {
	return &FS{files: make(map[string]fsEntry)}
}

// Add adds files produced by owner. Adding a path twice, or an absolute
// path, is an error.
func (fs *FS) Add(owner string, files ...File) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	var result *multierror.Error
	for _, f := range files {
		if prev, has := fs.files[f.RelativePath]; has {
			result = errors.Append(result, errors.Newf("cannot create %s for %q, already created for %q", f.RelativePath, owner, prev.owner))
		}
		if filepath.IsAbs(f.RelativePath) {
			result = errors.Append(result, errors.Newf("generated files must have relative paths, got %s from %q", f.RelativePath, owner))
		}
	}
	if result.ErrorOrNil() != nil {
		return errors.Batch(result)
	}

	for _, f := range files {
		fs.files[f.RelativePath] = fsEntry{data: f.Data, owner: owner}
	}
	return nil
}

// Len returns the number of files
func (fs *FS) Len() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return len(fs.files)
}

// Files returns every file sorted by path
func (fs *FS) Files() []File {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.sorted()
}

// Get returns the contents of one file
func (fs *FS) Get(path string) ([]byte, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	e, ok := fs.files[path]
	return e.data, ok
}

func (fs *FS) sorted() []File {
	out := make([]File, 0, len(fs.files))
	for path, e := range fs.files {
		out = append(out, File{RelativePath: path, Data: e.data})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RelativePath < out[j].RelativePath
	})
	return out
}

// Write writes every file under root. Files are first written to a staging
// directory next to root; only when all of them succeeded are they moved
// into place, in path order.
func (fs *FS) Write(ctx context.Context, root string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	root = filepath.Clean(root)
	parent := filepath.Dir(root)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", parent)
	}
	staging, err := os.MkdirTemp(parent, ".schemagen-staging-*")
	if err != nil {
		return errors.Wrap(err, "failed to create staging directory")
	}
	defer os.RemoveAll(staging)

	files := fs.sorted()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ioLimit)
	for _, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(staging, filepath.FromSlash(f.RelativePath))
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return errors.Wrapf(err, "%s: failed to ensure parent directory exists", f.RelativePath)
			}
			if err := os.WriteFile(path, f.Data, 0o644); err != nil {
				return errors.Wrapf(err, "%s: error while writing file", f.RelativePath)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "staging generated files")
	}

	for _, f := range files {
		from := filepath.Join(staging, filepath.FromSlash(f.RelativePath))
		to := filepath.Join(root, filepath.FromSlash(f.RelativePath))
		if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
			return errors.Wrapf(err, "%s: failed to ensure parent directory exists", to)
		}
		if err := os.Rename(from, to); err != nil {
			return errors.Wrapf(err, "%s: failed to move generated file into place", to)
		}
	}
	return nil
}

// Verify compares every file with its counterpart under root. Missing or
// differing files are reported together as ErrOutOfDate, with a diff per
// file.
func (fs *FS) Verify(ctx context.Context, root string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	var (
		mu     sync.Mutex
		result *multierror.Error
	)
	report := func(err error) {
		mu.Lock()
		result = errors.Append(result, err)
		mu.Unlock()
	}

	files := fs.sorted()
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(ioLimit)
	for _, f := range files {
		g.Go(func() error {
			path := filepath.Join(root, filepath.FromSlash(f.RelativePath))
			ob, err := os.ReadFile(path)
			if err != nil {
				if os.IsNotExist(err) {
					report(errors.Newf("%s: generated file should exist, but does not", path))
					return nil
				}
				return errors.Wrapf(err, "%s: error reading file", path)
			}
			if d := cmp.Diff(string(ob), string(f.Data)); d != "" {
				report(errors.Newf("%s would have changed:\n\n%s", path, d))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "io error while verifying tree")
	}

	if result.ErrorOrNil() == nil {
		return nil
	}
	// Goroutines finish in any order; report in path order.
	sort.SliceStable(result.Errors, func(i, j int) bool {
		return result.Errors[i].Error() < result.Errors[j].Error()
	})
	return errors.Mark(errors.Batch(result), errors.ErrOutOfDate)
}
