// Copyright (c) 2026 SLRHub. All rights reserved.
// Author: engineering@slrhub.io

package wrapper

import (
	"log/slog"
	"strings"
)

// # Credential Binding

// KeyProvider resolves a provider API key by its credential name (see
// [KeyName]). [EnvKeys] is the implementation in this package.
type KeyProvider interface {
	// APIKey returns the credential stored under the given name and
	// whether it was present.
	APIKey(name string) (string, bool)
}

// EnvKeys is a [KeyProvider] backed by a plain map, typically filled from
// the environment at startup (SPRINGER_API_KEY, ELSEVIER_API_KEY, ...).
type EnvKeys map[string]string

// APIKey implements [KeyProvider].
func (keys EnvKeys) APIKey(name string) (string, bool) {
	value, ok := keys[name]
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}
	return value, true
}

// KeyName derives the credential lookup name for a wrapper:
// the upper-cased wrapper name suffixed with _API_KEY.
func KeyName(wrapperName string) string {
	return strings.ToUpper(wrapperName) + "_API_KEY"
}

// # Wrapper Registry

// Factory constructs a fresh wrapper instance bound to an API key.
type Factory struct {
	// Name is the registry name of the wrapper ("Springer", "Elsevier").
	Name string

	// New builds a new instance. Instances are single-use per federated
	// call because wrappers mutate pagination state.
	New func(apiKey string) Wrapper
}

// Registry lists every known wrapper type and instantiates the subset
// whose credentials are available.
//
// The registry is constructed once at service start and is immutable
// afterwards; only the instances it hands out carry mutable state.
type Registry struct {
	factories []Factory
	keys      KeyProvider
	logger    *slog.Logger
}

// NewRegistry builds a registry over the default wrapper set.
func NewRegistry(keys KeyProvider, executor *Executor, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		factories: []Factory{
			{Name: SpringerName, New: func(apiKey string) Wrapper {
				return NewSpringer(apiKey, executor)
			}},
			{Name: ElsevierName, New: func(apiKey string) Wrapper {
				return NewElsevier(apiKey, executor)
			}},
		},
		keys:   keys,
		logger: logger,
	}
}

// Active instantiates every wrapper whose API key is present, preserving
// registry order. Wrappers without a credential are logged and dropped.
func (r *Registry) Active() []Wrapper {
	active := make([]Wrapper, 0, len(r.factories))

	for _, factory := range r.factories {
		apiKey, ok := r.keys.APIKey(KeyName(factory.Name))
		if !ok {
			r.logger.Info("wrapper_skipped_no_credential",
				slog.String("wrapper", factory.Name),
				slog.String("key_name", KeyName(factory.Name)),
			)
			continue
		}
		active = append(active, factory.New(apiKey))
	}

	return active
}

// Names returns the registry order of all known wrappers, with or without
// credentials.
func (r *Registry) Names() []string {
	names := make([]string, len(r.factories))
	for i, factory := range r.factories {
		names[i] = factory.Name
	}
	return names
}
