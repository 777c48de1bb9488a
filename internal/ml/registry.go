package ml

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"shdp-backend/internal/disease"
)

// RegistryConfig contains configuration for the model registry
type RegistryConfig struct {
	ModelsDir    string
	CacheEnabled bool
	Load         LoadOptions
}

// ModelInfo describes where a model is expected on disk and whether it is there.
type ModelInfo struct {
	Type         disease.Type `json:"type"`
	File         string       `json:"file"`
	Path         string       `json:"path"`
	Exists       bool         `json:"exists"`
	Cached       bool         `json:"cached"`
	FeatureCount int          `json:"feature_count"`
	Features     []string     `json:"features"`
	DisplayName  string       `json:"display_name"`
}

// Registry resolves disease types to loaded models. Loaded models are
// immutable, so with caching enabled each model file is read at most once
// until it is evicted.
type Registry struct {
	modelsDir string
	load      LoadOptions
	cache     *lru.Cache[disease.Type, Model]
	group     singleflight.Group
	metrics   MetricsInterface

	// gens is bumped on every eviction so that a load started before the
	// eviction does not repopulate the cache.
	mu   sync.Mutex
	gens map[disease.Type]uint64
}

func NewRegistry(config RegistryConfig, metrics MetricsInterface) (*Registry, error) {
	dir := config.ModelsDir
	if dir == "" {
		dir = "."
	}

	r := &Registry{
		modelsDir: dir,
		load:      config.Load,
		metrics:   metrics,
		gens:      make(map[disease.Type]uint64),
	}

	if config.CacheEnabled {
		cache, err := lru.New[disease.Type, Model](len(disease.Types()))
		if err != nil {
			return nil, fmt.Errorf("create model cache: %w", err)
		}
		r.cache = cache
	}

	return r, nil
}

// Path returns the location of the model file for d.
func (r *Registry) Path(d disease.Descriptor) string {
	return filepath.Join(r.modelsDir, filepath.FromSlash(d.File))
}

// Resolve returns the model for diseaseType, loading it if needed.
func (r *Registry) Resolve(diseaseType string) (Model, error) {
	d, ok := disease.Lookup(disease.Type(diseaseType))
	if !ok {
		return nil, newError(ErrInvalidArgument, fmt.Sprintf(
			"Invalid disease type: %s. Must be one of: %s", diseaseType, disease.ValidSet()), nil)
	}

	if r.cache == nil {
		return r.loadDescriptor(d)
	}

	if m, ok := r.cache.Get(d.Type); ok {
		if r.metrics != nil {
			r.metrics.ModelCacheHitsInc()
		}
		return m, nil
	}

	v, err, _ := r.group.Do(string(d.Type), func() (interface{}, error) {
		if m, ok := r.cache.Get(d.Type); ok {
			return m, nil
		}
		gen := r.generation(d.Type)
		m, err := r.loadDescriptor(d)
		if err != nil {
			return nil, err
		}
		r.storeIfCurrent(d.Type, gen, m)
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Model), nil
}

func (r *Registry) loadDescriptor(d disease.Descriptor) (Model, error) {
	start := time.Now()
	path := r.Path(d)

	info, err := os.Stat(path)
	if err != nil {
		r.loadFailed(d)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, newError(ErrNotFound, fmt.Sprintf(
				"Model file not found: %s\nPlease ensure you have placed '%s' in the '%s' folder.",
				path, d.FileName(), d.Dir()), nil)
		}
		return nil, newError(ErrLoadFailure, fmt.Sprintf("Failed to load model from %s", d.File), err)
	}
	if info.IsDir() {
		r.loadFailed(d)
		return nil, newError(ErrLoadFailure, fmt.Sprintf("Failed to load model from %s", d.File),
			fmt.Errorf("%s is a directory", path))
	}

	model, art, err := LoadModel(path, r.load)
	if err == nil && art.NFeatures > 0 && art.NFeatures != d.FeatureCount {
		err = fmt.Errorf("artifact expects %d features, %s requires %d", art.NFeatures, d.Type, d.FeatureCount)
	}
	if err != nil {
		r.loadFailed(d)
		log.Error().Err(err).Str("disease", string(d.Type)).Str("model_path", path).Msg("model load failed")
		return nil, newError(ErrLoadFailure, fmt.Sprintf("Failed to load model from %s", d.File), err)
	}

	_, probabilistic := model.(ProbabilisticModel)
	if r.metrics != nil {
		r.metrics.ModelLoadsInc(string(d.Type))
		r.metrics.ModelAgeSet(string(d.Type), time.Since(info.ModTime()).Seconds())
	}
	log.Info().
		Str("disease", string(d.Type)).
		Str("model_path", path).
		Str("kind", art.Kind).
		Str("version", art.Version).
		Bool("probabilistic", probabilistic).
		Dur("duration", time.Since(start)).
		Msg("model loaded")

	return model, nil
}

func (r *Registry) loadFailed(d disease.Descriptor) {
	if r.metrics != nil {
		r.metrics.ModelLoadFailuresInc(string(d.Type))
	}
}

// Info probes the filesystem for the model of diseaseType without loading it.
func (r *Registry) Info(diseaseType string) (ModelInfo, error) {
	d, ok := disease.Lookup(disease.Type(diseaseType))
	if !ok {
		return ModelInfo{}, newError(ErrInvalidArgument, fmt.Sprintf(
			"Invalid disease type: %s. Must be one of: %s", diseaseType, disease.ValidSet()), nil)
	}

	path := r.Path(d)
	st, err := os.Stat(path)
	info := ModelInfo{
		Type:         d.Type,
		File:         d.File,
		Path:         path,
		Exists:       err == nil && !st.IsDir(),
		FeatureCount: d.FeatureCount,
		Features:     d.Features,
		DisplayName:  d.DisplayName,
	}
	if r.cache != nil {
		info.Cached = r.cache.Contains(d.Type)
	}
	return info, nil
}

// Evict drops the cached model of diseaseType so the next Resolve reloads it.
// It reports whether a cached model was dropped.
func (r *Registry) Evict(diseaseType string) (bool, error) {
	d, ok := disease.Lookup(disease.Type(diseaseType))
	if !ok {
		return false, newError(ErrInvalidArgument, fmt.Sprintf(
			"Invalid disease type: %s. Must be one of: %s", diseaseType, disease.ValidSet()), nil)
	}
	if r.cache == nil {
		return false, nil
	}
	r.mu.Lock()
	r.gens[d.Type]++
	evicted := r.cache.Remove(d.Type)
	r.mu.Unlock()
	r.group.Forget(string(d.Type))
	if evicted {
		log.Info().Str("disease", string(d.Type)).Msg("cached model evicted")
	}
	return evicted, nil
}

// Purge drops every cached model and returns how many were dropped.
func (r *Registry) Purge() int {
	if r.cache == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range disease.Types() {
		r.gens[t]++
		r.group.Forget(string(t))
	}
	n := r.cache.Len()
	r.cache.Purge()
	if n > 0 {
		log.Info().Int("models", n).Msg("model cache purged")
	}
	return n
}

func (r *Registry) generation(t disease.Type) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gens[t]
}

// storeIfCurrent caches m unless the type was evicted after gen was read.
func (r *Registry) storeIfCurrent(t disease.Type, gen uint64, m Model) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gens[t] != gen {
		return false
	}
	r.cache.Add(t, m)
	return true
}
