package server

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	lverrors "github.com/matzehuels/lineageview/pkg/errors"
	"github.com/matzehuels/lineageview/pkg/layout"
	"github.com/matzehuels/lineageview/pkg/lineage"
	"github.com/matzehuels/lineageview/pkg/scene"
)

// Store holds the served datasets, each with the view that caches its layout.
type Store struct {
	mu       sync.RWMutex
	path     string
	cfg      layout.Config
	engine   layout.Engine
	datasets map[string]*lineage.Dataset
	views    map[string]*scene.View
}

// NewStore returns an empty store. Views lay out with cfg and eng.
func NewStore(path string, cfg layout.Config, eng layout.Engine) *Store {
	return &Store{
		path:     path,
		cfg:      cfg,
		engine:   eng,
		datasets: make(map[string]*lineage.Dataset),
		views:    make(map[string]*scene.View),
	}
}

// Path returns the file or directory datasets are loaded from.
func (s *Store) Path() string { return s.path }

// Reload reads the datasets again and returns how many are loaded. On error
// the previous datasets stay in place.
func (s *Store) Reload() (int, error) {
	loaded, err := loadDatasets(s.path)
	if err != nil {
		return 0, err
	}
	s.Replace(loaded)
	return len(loaded), nil
}

// Replace swaps in a new set of datasets. Views of removed datasets are
// unmounted; views of replaced ones recompute on their next mount.
func (s *Store) Replace(datasets map[string]*lineage.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, v := range s.views {
		if _, ok := datasets[key]; !ok {
			v.Unmount()
			delete(s.views, key)
		}
	}
	for key := range datasets {
		if _, ok := s.views[key]; !ok {
			s.views[key] = scene.NewView(s.cfg, s.engine)
		}
	}
	s.datasets = datasets
}

// Get returns the dataset stored under key and its view.
func (s *Store) Get(key string) (*lineage.Dataset, *scene.View, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := s.datasets[key]
	return ds, s.views[key], ok
}

// Keys returns the stored dataset keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.datasets))
	for k := range s.datasets {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Len returns the number of stored datasets.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.datasets)
}

// loadDatasets reads one dataset file, or every *.json file directly inside
// a directory. A dataset without a key is stored under its file name.
func loadDatasets(path string) (map[string]*lineage.Dataset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, lverrors.Wrap(lverrors.ErrCodeNotFound, err, "dataset path %s", path)
	}

	files := []string{path}
	if info.IsDir() {
		files, err = filepath.Glob(filepath.Join(path, "*.json"))
		if err != nil {
			return nil, err
		}
		slices.Sort(files)
	}

	out := make(map[string]*lineage.Dataset, len(files))
	for _, f := range files {
		ds, err := lineage.ReadDatasetFile(f)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
		key := ds.Key
		if key == "" {
			key = strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		}
		out[key] = ds
	}
	return out, nil
}

func isDatasetFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".json")
}
