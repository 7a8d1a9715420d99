// Root alias resolution (C9): a JSON array of {"alias":..., "value":...} pairs resolved against
// root arguments before they reach the scan engine or the parallel driver, so workers always see
// real absolute paths and never an alias. Adapted from go-utils/alias/alias.go.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Aliases is a short-name -> root-path mapping.
type Aliases struct {
	lock    sync.RWMutex
	path    string
	mapping map[string]string
}

type aliasEncoding struct {
	Alias string `json:"alias"`
	Value string `json:"value"`
}

// ReadAliases loads path, a JSON array of {"alias","value"} objects.
func ReadAliases(path string) (*Aliases, error) {
	mapping, err := readAliasFile(path)
	if err != nil {
		return nil, err
	}
	return &Aliases{path: path, mapping: mapping}, nil
}

func readAliasFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []aliasEncoding
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing alias file %s: %w", path, err)
	}
	mapping := make(map[string]string, len(entries))
	for _, e := range entries {
		mapping[e.Alias] = e.Value
	}
	return mapping, nil
}

// Resolve returns the mapped value for alias, or alias unchanged if it is not a known short name.
func (a *Aliases) Resolve(alias string) string {
	a.lock.RLock()
	defer a.lock.RUnlock()
	if v, ok := a.mapping[alias]; ok {
		return v
	}
	return alias
}

// ResolveAll resolves every element of roots in place order, returning a new slice.
func (a *Aliases) ResolveAll(roots []string) []string {
	out := make([]string, len(roots))
	for i, r := range roots {
		out[i] = a.Resolve(r)
	}
	return out
}
