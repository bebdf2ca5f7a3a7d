package config

import (
	"fmt"
	"sort"
)

// ModeRegistry provides read-only lookup of merged mode configurations.
// Built after loading; never mutated afterwards, so no locking is needed.
type ModeRegistry struct {
	modes map[string]*ModeConfig
}

// NewModeRegistry builds a registry from merged mode configurations.
func NewModeRegistry(modes map[string]*ModeConfig) *ModeRegistry {
	return &ModeRegistry{modes: modes}
}

// Get returns the mode with the given ID.
func (r *ModeRegistry) Get(id string) (*ModeConfig, error) {
	mode, ok := r.modes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModeNotFound, id)
	}
	return mode, nil
}

// Has reports whether a mode with the given ID exists.
func (r *ModeRegistry) Has(id string) bool {
	_, ok := r.modes[id]
	return ok
}

// List returns all mode IDs in sorted order.
func (r *ModeRegistry) List() []string {
	ids := make([]string, 0, len(r.modes))
	for id := range r.modes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered modes.
func (r *ModeRegistry) Len() int {
	return len(r.modes)
}
