// Package serving owns the loaded model artifacts and mediates every
// prediction request against them.
package serving

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"housecast/ml"
)

// State is the lifecycle of a serving context. The transition out of
// Loading happens exactly once per process; there is no reload.
type State int32

const (
	Uninitialized State = iota
	Loading
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

const defaultCacheSize = 256

// Config locates the artifacts the context loads at startup.
type Config struct {
	ModelType  string
	ModelPath  string
	SchemaPath string
	CacheSize  int
}

// Context is constructed once at startup and injected into request
// handlers. Schema, encoder and model are never reassigned after the
// context reaches Ready, so prediction needs no locking.
type Context struct {
	state   atomic.Int32
	loadErr error

	schema  *ml.Schema
	encoder *ml.Encoder
	model   ml.Model
	cache   *lru.Cache[string, string]
	logger  *zap.Logger
}

// NewContext returns an uninitialized context.
func NewContext(logger *zap.Logger) *Context {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Context{logger: logger}
}

// Load reads the schema and model artifacts. On any failure the context
// moves to Failed and stays there: the process keeps running and serves
// not-ready errors instead of crashing on a missing artifact.
func (c *Context) Load(cfg Config) error {
	if !c.state.CompareAndSwap(int32(Uninitialized), int32(Loading)) {
		return errors.New("artifacts already loaded")
	}

	schema, err := ml.LoadSchema(cfg.SchemaPath)
	if err != nil {
		return c.fail(fmt.Errorf("schema artifact: %w", err))
	}
	model, err := ml.LoadModel(cfg.ModelType, cfg.ModelPath)
	if err != nil {
		return c.fail(fmt.Errorf("model artifact: %w", err))
	}

	size := cfg.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return c.fail(fmt.Errorf("prediction cache: %w", err))
	}

	c.schema = schema
	c.encoder = ml.NewEncoder(schema)
	c.model = model
	c.cache = cache
	c.state.Store(int32(Ready))
	c.logger.Info("artifacts loaded",
		zap.String("model_type", cfg.ModelType),
		zap.Int("schema_columns", schema.Len()))
	return nil
}

func (c *Context) fail(err error) error {
	c.loadErr = err
	c.state.Store(int32(Failed))
	c.logger.Error("artifact load failed, serving unavailable", zap.Error(err))
	return err
}

// State returns the current lifecycle state.
func (c *Context) State() State {
	return State(c.state.Load())
}

// Ready reports whether predictions are being served.
func (c *Context) Ready() bool {
	return c.State() == Ready
}

// LoadError returns the artifact error that parked the context in Failed.
func (c *Context) LoadError() error {
	if c.State() != Failed {
		return nil
	}
	return c.loadErr
}

// Schema returns the canonical schema, or nil before Ready.
func (c *Context) Schema() *ml.Schema {
	if !c.Ready() {
		return nil
	}
	return c.schema
}

// Prediction is the outcome of one served request.
type Prediction struct {
	House  string
	Cached bool
	// Unknown lists categorical values with no training-time indicator.
	// Their fields were scored with an all-zero indicator group.
	Unknown []ml.UnknownCategory
}

// Predict runs encode, align and model inference for one record. The
// record must already be validated. Identical vectors hit the LRU cache,
// which is sound because model and schema are immutable for the process
// lifetime.
func (c *Context) Predict(record *ml.CharacterRecord) (Prediction, error) {
	if !c.Ready() {
		return Prediction{}, ErrNotReady
	}

	features, unknown := c.encoder.Encode(record)
	vector := ml.Align(features, c.schema)

	key := cacheKey(vector)
	if house, ok := c.cache.Get(key); ok {
		return Prediction{House: house, Cached: true, Unknown: unknown}, nil
	}

	house, err := c.model.Predict(vector)
	if err != nil {
		return Prediction{}, &PredictionError{Err: err}
	}
	c.cache.Add(key, house)
	return Prediction{House: house, Unknown: unknown}, nil
}

func cacheKey(vector []float64) string {
	var b strings.Builder
	for _, v := range vector {
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		b.WriteByte('|')
	}
	return b.String()
}
