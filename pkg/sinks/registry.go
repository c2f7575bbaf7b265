package sinks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/logger"
)

// Builder creates a Sink from a config entry.
type Builder func(ctx context.Context, cfg Config, log logger.Logger) (Sink, error)

// Registry maps sink types to builders.
type Registry interface {
	Register(typ string, builder Builder)
	SinkFor(ctx context.Context, cfg Config, log logger.Logger) (Sink, error)
}

type registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry returns a registry with optional pre-registered builders.
func NewRegistry(builders map[string]Builder) Registry {
	r := &registry{builders: make(map[string]Builder)}
	for typ, b := range builders {
		r.Register(typ, b)
	}
	return r
}

func (r *registry) Register(typ string, builder Builder) {
	if typ = strings.TrimSpace(strings.ToLower(typ)); typ == "" || builder == nil {
		return
	}

	r.mu.Lock()
	r.builders[typ] = builder
	r.mu.Unlock()
}

// SinkFor returns the sink built for the provided config.
func (r *registry) SinkFor(ctx context.Context, cfg Config, log logger.Logger) (Sink, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("sink %q has no type configured", cfg.ID)
	}

	r.mu.RLock()
	builder := r.builders[strings.ToLower(cfg.Type)]
	r.mu.RUnlock()

	if builder == nil {
		return nil, fmt.Errorf("no sink registered for type %q", cfg.Type)
	}
	return builder(ctx, cfg, log)
}

// DefaultRegistry wires up known sinks.
func DefaultRegistry() Registry {
	builders := map[string]Builder{
		TypeQueue: newQueueSink,
		TypeHTTP:  newHTTPSink,
	}
	return NewRegistry(builders)
}

// BuildAll instantiates sinks for configs using the registry.
func BuildAll(ctx context.Context, reg Registry, cfgs []Config, log logger.Logger) ([]Sink, error) {
	if reg == nil || len(cfgs) == 0 {
		return nil, nil
	}

	if ctx == nil {
		ctx = context.Background()
	}
	log = logger.Ensure(log)

	var out []Sink
	for _, cfg := range cfgs {
		sink, err := reg.SinkFor(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		out = append(out, sink)
	}
	return out, nil
}
