package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/fonotreino/fonotreino/pkg/provider/genai"
	"github.com/fonotreino/fonotreino/pkg/provider/stt"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps provider names to their constructor functions for each
// provider type. It is safe for concurrent use.
type Registry struct {
	mu            sync.RWMutex
	transcription map[string]func(ProviderEntry) (stt.Transcriber, error)
	generative    map[string]func(ProviderEntry) (genai.Generator, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		transcription: make(map[string]func(ProviderEntry) (stt.Transcriber, error)),
		generative:    make(map[string]func(ProviderEntry) (genai.Generator, error)),
	}
}

// RegisterTranscriber registers a transcription provider factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterTranscriber(name string, factory func(ProviderEntry) (stt.Transcriber, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcription[name] = factory
}

// RegisterGenerator registers a generative provider factory under name.
func (r *Registry) RegisterGenerator(name string, factory func(ProviderEntry) (genai.Generator, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generative[name] = factory
}

// CreateTranscriber instantiates the transcription provider selected by entry.Name.
func (r *Registry) CreateTranscriber(entry ProviderEntry) (stt.Transcriber, error) {
	r.mu.RLock()
	factory, ok := r.transcription[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: transcription provider %q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateGenerator instantiates the generative provider selected by entry.Name.
func (r *Registry) CreateGenerator(entry ProviderEntry) (genai.Generator, error) {
	r.mu.RLock()
	factory, ok := r.generative[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: generative provider %q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}
