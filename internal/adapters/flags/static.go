// Package flags serves feature flags from configuration.
package flags

import (
	"context"
	"maps"
	"strings"

	"github.com/spf13/cast"
)

// Static implements ports.FeatureFlags over a fixed map, usually the
// features section of the config. Values may be typed or strings, since
// environment overrides arrive as text.
type Static struct {
	values map[string]any
}

// NewStatic creates flags from values. Flag names are matched case
// insensitively.
func NewStatic(values map[string]any) *Static {
	normalized := make(map[string]any, len(values))
	for name, value := range values {
		normalized[strings.ToLower(name)] = value
	}

	return &Static{values: normalized}
}

// IsEnabled implements ports.FeatureFlags.
func (s *Static) IsEnabled(_ context.Context, flag string, defaultValue bool) bool {
	value, ok := s.lookup(flag)
	if !ok {
		return defaultValue
	}

	enabled, err := cast.ToBoolE(value)
	if err != nil {
		return defaultValue
	}

	return enabled
}

// GetString implements ports.FeatureFlags.
func (s *Static) GetString(_ context.Context, flag string, defaultValue string) string {
	value, ok := s.lookup(flag)
	if !ok {
		return defaultValue
	}

	str, err := cast.ToStringE(value)
	if err != nil {
		return defaultValue
	}

	return str
}

// GetInt implements ports.FeatureFlags.
func (s *Static) GetInt(_ context.Context, flag string, defaultValue int) int {
	value, ok := s.lookup(flag)
	if !ok {
		return defaultValue
	}

	n, err := cast.ToIntE(value)
	if err != nil {
		return defaultValue
	}

	return n
}

// Values returns a copy of the flag map.
func (s *Static) Values() map[string]any {
	return maps.Clone(s.values)
}

func (s *Static) lookup(flag string) (any, bool) {
	value, ok := s.values[strings.ToLower(flag)]
	if !ok || value == nil {
		return nil, false
	}

	return value, true
}
