package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"framecache/segments"
)

// Version is the on-disk format version stamped into every namespace header.
const Version = "1.0.0"

// SFDE is the fragment key: (site, frametype, duration, extension).  Note that duration, not
// start, is part of the key -- files belonging to the same logical stream share an SFDE.
type SFDE struct {
	Site      string
	FrameType string
	Duration  int64
	Extension string
}

// String renders the key in a stable, delimiter-safe form used as a map key when a fragment is
// serialized to JSON (which only allows string map keys).
func (k SFDE) String() string {
	return strings.Join([]string{
		escapeField(k.Site), escapeField(k.FrameType),
		strconv.FormatInt(k.Duration, 10), escapeField(k.Extension),
	}, "|")
}

// ParseSFDE is the inverse of SFDE.String.
func ParseSFDE(s string) (SFDE, error) {
	parts := strings.Split(s, "|")
	if len(parts) != 4 {
		return SFDE{}, fmt.Errorf("malformed SFDE key %q", s)
	}
	dur, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return SFDE{}, fmt.Errorf("malformed SFDE key %q: %w", s, err)
	}
	return SFDE{
		Site:      unescapeField(parts[0]),
		FrameType: unescapeField(parts[1]),
		Duration:  dur,
		Extension: unescapeField(parts[3]),
	}, nil
}

// escapeField guards against '|' appearing inside a site/frametype/extension component; frame
// names never legally contain '-' in those fields, but '|' is not otherwise excluded so this is
// cheap insurance.
func escapeField(s string) string {
	return strings.ReplaceAll(s, "|", "%7C")
}

func unescapeField(s string) string {
	return strings.ReplaceAll(s, "%7C", "|")
}

// Fragment is one directory's contribution to the index: SFDE -> coalesced interval list.
type Fragment map[SFDE]segments.List

// Add inserts one frame's interval into the fragment, creating the SFDE bucket if necessary.
func (f Fragment) Add(key SFDE, start, end int64) {
	l := f[key]
	l.Add(start, end)
	f[key] = l
}

// MarshalJSON renders the fragment as a JSON object keyed by SFDE.String().
func (f Fragment) MarshalJSON() ([]byte, error) {
	out := make(map[string]segments.List, len(f))
	for k, v := range f {
		out[k.String()] = v
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (f *Fragment) UnmarshalJSON(data []byte) error {
	var in map[string]segments.List
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	out := make(Fragment, len(in))
	for ks, v := range in {
		k, err := ParseSFDE(ks)
		if err != nil {
			return err
		}
		out[k] = v
	}
	*f = out
	return nil
}
