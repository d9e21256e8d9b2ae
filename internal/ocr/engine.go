// Package ocr defines the pluggable OCR backend contract and the registry
// that resolves a requested engine id to an instance.
package ocr

import (
	"context"

	"paperbase/internal/model"
)

// Result captures the output of one recognition call.
type Result struct {
	Text string
	// Confidence is the mean word confidence in [0,1]; 0 means unknown.
	Confidence float64
}

// Engine is a pluggable OCR backend capable of producing text from image or
// PDF bytes. Recognize is synchronous; it may internally block on native code.
type Engine interface {
	ID() string
	DisplayName() string
	Version() string
	// Available reports whether the backend can actually run (e.g. the native
	// library is installed). Checked at registry build time and on resolve.
	Available() bool
	Recognize(ctx context.Context, data []byte, mimeType string) (Result, error)
}

// EngineInfo is the introspection view of a registered engine.
type EngineInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	Available bool   `json:"available"`
}

// Registry holds the closed set of OCR backends. It is constructed once at
// process start and passed explicitly; it is immutable afterwards.
type Registry struct {
	engines   map[string]Engine
	order     []string
	defaultID string
}

// NewRegistry builds a registry over the given engines with a configured
// default. Unavailable engines stay listed for introspection but are never
// resolved.
func NewRegistry(defaultID string, engines ...Engine) *Registry {
	r := &Registry{
		engines:   make(map[string]Engine, len(engines)),
		defaultID: defaultID,
	}
	for _, e := range engines {
		if _, dup := r.engines[e.ID()]; dup {
			continue
		}
		r.engines[e.ID()] = e
		r.order = append(r.order, e.ID())
	}
	return r
}

// Resolve maps a requested engine id to a usable instance. An unknown or
// unavailable id falls back to the configured default; if nothing is usable
// the caller receives a no-engine-available error.
func (r *Registry) Resolve(requestedID string) (Engine, error) {
	if requestedID != "" {
		if e, ok := r.engines[requestedID]; ok && e.Available() {
			return e, nil
		}
	}
	if e, ok := r.engines[r.defaultID]; ok && e.Available() {
		return e, nil
	}
	for _, id := range r.order {
		if e := r.engines[id]; e.Available() {
			return e, nil
		}
	}
	return nil, model.E(model.KindNoEngineAvailable, "no OCR engine is available")
}

// List enumerates all registered engines in registration order.
func (r *Registry) List() []EngineInfo {
	infos := make([]EngineInfo, 0, len(r.order))
	for _, id := range r.order {
		e := r.engines[id]
		infos = append(infos, EngineInfo{
			ID:        e.ID(),
			Name:      e.DisplayName(),
			Version:   e.Version(),
			Available: e.Available(),
		})
	}
	return infos
}

// DefaultID returns the configured default engine id.
func (r *Registry) DefaultID() string { return r.defaultID }
