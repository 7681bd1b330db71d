// Copyright (c) 2026 SLRHub. All rights reserved.
// Author: engineering@slrhub.io

package wrapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
TestKeyName derives the credential lookup name from the wrapper name.
*/
func TestKeyName(t *testing.T) {
	assert.Equal(t, "SPRINGER_API_KEY", KeyName(SpringerName))
	assert.Equal(t, "ELSEVIER_API_KEY", KeyName(ElsevierName))
}

/*
TestEnvKeys treats blank values as absent credentials.
*/
func TestEnvKeys(t *testing.T) {
	keys := EnvKeys{
		"SPRINGER_API_KEY": "abc",
		"ELSEVIER_API_KEY": "   ",
	}

	value, ok := keys.APIKey("SPRINGER_API_KEY")
	assert.True(t, ok)
	assert.Equal(t, "abc", value)

	_, ok = keys.APIKey("ELSEVIER_API_KEY")
	assert.False(t, ok)

	_, ok = keys.APIKey("UNKNOWN_API_KEY")
	assert.False(t, ok)
}

/*
TestRegistry_Active instantiates exactly the wrappers with credentials,
preserving registry order.
*/
func TestRegistry_Active(t *testing.T) {
	executor := NewExecutor(0, nil)

	tests := []struct {
		name  string
		keys  EnvKeys
		names []string
	}{
		{
			name:  "both_credentials",
			keys:  EnvKeys{"SPRINGER_API_KEY": "s", "ELSEVIER_API_KEY": "e"},
			names: []string{SpringerName, ElsevierName},
		},
		{
			name:  "only_elsevier",
			keys:  EnvKeys{"ELSEVIER_API_KEY": "e"},
			names: []string{ElsevierName},
		},
		{
			name:  "no_credentials",
			keys:  EnvKeys{},
			names: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewRegistry(tt.keys, executor, nil)

			active := registry.Active()
			require.Len(t, active, len(tt.names))
			for i, w := range active {
				assert.Equal(t, tt.names[i], w.Name())
			}
		})
	}
}

/*
TestRegistry_FreshInstances hands out distinct wrapper instances per call,
since wrappers carry per-call pagination state.
*/
func TestRegistry_FreshInstances(t *testing.T) {
	registry := NewRegistry(EnvKeys{"SPRINGER_API_KEY": "s"}, NewExecutor(0, nil), nil)

	first := registry.Active()
	second := registry.Active()

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.NotSame(t, first[0], second[0])

	// Mutating one instance must not leak into the other.
	first[0].StartAt(51)
	first[0].SetShowNum(10)
	assert.Equal(t, 50, second[0].ShowNum())
}
