package visual

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// BaselineKey identifies one baseline: browser, test and checkpoint id
type BaselineKey struct {
	Browser string
	Test    string
	ID      string
}

// RelPath returns {browser}/{test}/{id}.png with every segment sanitized
func (k BaselineKey) RelPath() string {
	return filepath.Join(Sanitize(k.Browser), Sanitize(k.Test), Sanitize(k.ID)+".png")
}

// BaselineStore persists approved baseline images.
//
// Create must never replace an existing baseline; it returns ErrBaselineExists
// instead.
type BaselineStore interface {
	Path(key BaselineKey) string
	Exists(key BaselineKey) (bool, error)
	Load(key BaselineKey) ([]byte, error)
	Create(key BaselineKey, data []byte) error
}

// BaselineEntry describes a stored baseline
type BaselineEntry struct {
	Browser string
	Test    string
	ID      string
	Path    string
	Size    int64
	ModTime time.Time
}

// FSBaselineStore keeps baselines under <root>/<browser>/<test>/<id>.png.
//
// Creation writes a temp file and hard-links it into place, so the final file
// appears complete and an existing baseline is never replaced.
type FSBaselineStore struct {
	root string
}

var _ BaselineStore = (*FSBaselineStore)(nil)

// NewFSBaselineStore creates a store rooted at root, creating the directory
func NewFSBaselineStore(root string) (*FSBaselineStore, error) {
	if root == "" {
		return nil, fmt.Errorf("baseline root cannot be empty")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create baseline root: %w", err)
	}
	return &FSBaselineStore{root: root}, nil
}

// Root returns the baseline root directory
func (s *FSBaselineStore) Root() string {
	return s.root
}

// Path returns where the baseline for key lives
func (s *FSBaselineStore) Path(key BaselineKey) string {
	return filepath.Join(s.root, key.RelPath())
}

// Exists reports whether a baseline is stored for key
func (s *FSBaselineStore) Exists(key BaselineKey) (bool, error) {
	_, err := os.Stat(s.Path(key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat baseline: %w", err)
}

// Load reads the baseline bytes for key
func (s *FSBaselineStore) Load(key BaselineKey) ([]byte, error) {
	path := s.Path(key)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingBaseline, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read baseline: %w", err)
	}
	return data, nil
}

// Create stores data as the baseline for key unless one already exists
func (s *FSBaselineStore) Create(key BaselineKey, data []byte) error {
	path := s.Path(key)
	tempPath, err := s.writeTemp(path, data)
	if err != nil {
		return err
	}
	defer os.Remove(tempPath)

	err = os.Link(tempPath, path)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrExist):
		return fmt.Errorf("%w: %s", ErrBaselineExists, path)
	default:
		// filesystems without hard links: fall back to an exclusive create
		if err := writeExclusive(path, data); err != nil {
			return err
		}
	}

	slog.Debug("Baseline created", "path", path, "bytes", len(data))
	return nil
}

// Approve replaces (or creates) the baseline for key. This is the explicit
// re-baselining path; the engine itself never calls it.
func (s *FSBaselineStore) Approve(key BaselineKey, data []byte) error {
	path := s.Path(key)
	tempPath, err := s.writeTemp(path, data)
	if err != nil {
		return err
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace baseline: %w", err)
	}

	slog.Info("Baseline approved", "path", path, "bytes", len(data))
	return nil
}

// List returns every stored baseline ordered by path
func (s *FSBaselineStore) List() ([]BaselineEntry, error) {
	var entries []BaselineEntry
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".png" || strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) != 3 {
			return nil // not laid out as browser/test/id.png
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		entries = append(entries, BaselineEntry{
			Browser: parts[0],
			Test:    parts[1],
			ID:      strings.TrimSuffix(parts[2], ".png"),
			Path:    path,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list baselines: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

func (s *FSBaselineStore) writeTemp(path string, data []byte) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create baseline directory: %w", err)
	}

	f, err := os.CreateTemp(dir, ".baseline-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp baseline: %w", err)
	}
	if err := f.Chmod(0644); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to chmod temp baseline: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write temp baseline: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to close temp baseline: %w", err)
	}
	return f.Name(), nil
}

func writeExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: %s", ErrBaselineExists, path)
	}
	if err != nil {
		return fmt.Errorf("failed to create baseline: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write baseline: %w", err)
	}
	return f.Close()
}
