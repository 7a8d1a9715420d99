// The IPC payload exchanged between a worker and the master: a worker's directory->fragment
// deltas plus the hot-map entries it recorded. Self-describing JSON, in the same
// style as every other on-disk structure in this codebase, so a worker's output file is
// inspectable on its own.

package driver

import (
	"encoding/json"
	"os"

	"framecache/filesys"
	"framecache/store"
)

// Payload is one worker's contribution: the fragments it produced and the hot entries it
// recorded, which cover those directories plus any empty directories it visited.
type Payload struct {
	DC  map[string]store.Fragment `json:"dc"`
	Hot map[string]int64          `json:"hot"`
}

// WritePayload atomically publishes p to path.
func WritePayload(path string, p *Payload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return filesys.PublishBytes(path, 0644, data)
}

// ReadPayload reads and parses a worker's IPC file.
func ReadPayload(path string) (*Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
