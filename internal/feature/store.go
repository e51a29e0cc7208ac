package feature

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/iambrandonn/featforge/internal/fsutil"
)

// StatusFileName is the per-feature status document
const StatusFileName = "status.md"

// Store persists features as directories under a root path. Each feature
// directory holds the status file plus generated artifacts and review
// records.
//
// Writes to a feature's status file are read-then-overwrite, so the store
// serializes them with a per-feature mutex. All mutations should go through
// Mutate.
type Store struct {
	root   string
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a store rooted at dir
func NewStore(dir string, logger *slog.Logger) *Store {
	return &Store{
		root:   dir,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// Root returns the store's root directory
func (s *Store) Root() string {
	return s.root
}

// Dir returns the directory for a feature
func (s *Store) Dir(id string) string {
	return filepath.Join(s.root, id)
}

func (s *Store) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// Create persists a new feature. Fails if the feature directory already
// holds a status file.
func (s *Store) Create(f *Feature) error {
	lock := s.lockFor(f.ID)
	lock.Lock()
	defer lock.Unlock()

	path := filepath.Join(s.Dir(f.ID), StatusFileName)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("feature %s already exists", f.ID)
	}

	return s.write(f)
}

// Load reads a feature's status file
func (s *Store) Load(id string) (*Feature, error) {
	path := filepath.Join(s.Dir(id), StatusFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feature %s: %w", id, err)
	}

	f, err := DecodeStatusFile(data)
	if err != nil {
		return nil, fmt.Errorf("decode feature %s: %w", id, err)
	}
	return f, nil
}

// Mutate loads a feature, applies fn, and writes the result back while
// holding the feature's lock. If fn returns an error nothing is written.
func (s *Store) Mutate(id string, fn func(*Feature) error) (*Feature, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	f, err := s.Load(id)
	if err != nil {
		return nil, err
	}

	if err := fn(f); err != nil {
		return nil, err
	}

	if err := s.write(f); err != nil {
		return nil, err
	}
	return f, nil
}

// List loads every feature under the root, sorted by id
func (s *Store) List() ([]*Feature, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read features directory: %w", err)
	}

	var features []*Feature
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		f, err := s.Load(e.Name())
		if err != nil {
			s.logger.Warn("skipping unreadable feature", "id", e.Name(), "error", err)
			continue
		}
		features = append(features, f)
	}

	sort.Slice(features, func(i, j int) bool { return features[i].ID < features[j].ID })
	return features, nil
}

// WriteArtifact stores a generated artifact (spec.md, plan.md, ...) in the
// feature directory.
func (s *Store) WriteArtifact(id, name string, data []byte) error {
	return fsutil.AtomicWrite(filepath.Join(s.Dir(id), name), data)
}

// ReadArtifact reads a stored artifact
func (s *Store) ReadArtifact(id, name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.Dir(id), name))
}

// WriteReview stores a rendered review record under the feature's reviews
// directory.
func (s *Store) WriteReview(id, name string, data []byte) error {
	return fsutil.AtomicWrite(filepath.Join(s.Dir(id), "reviews", name), data)
}

func (s *Store) write(f *Feature) error {
	data, err := EncodeStatusFile(f)
	if err != nil {
		return err
	}
	return fsutil.AtomicWrite(filepath.Join(s.Dir(f.ID), StatusFileName), data)
}
