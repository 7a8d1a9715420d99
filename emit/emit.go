// The emitter (C6): renders a cache store's index as one of three output protocols. Text protocols
// follow the plain-text report style used throughout this codebase (see naicreport's CSV/text
// writers); the structured binary protocol borrows CBOR, a self-describing format already present
// in this module's dependency tree, for the same reason the teacher uses JSON for its own
// self-describing IPC payloads.

package emit

import (
	"fmt"
	"io"
	"sort"

	"framecache/segments"
	"framecache/store"

	"github.com/fxamacker/cbor/v2"
)

// Format names one of the three output protocols.
type Format string

const (
	LDAS Format = "ldas"
	PMDC Format = "pmdc"
	DCFS Format = "dcfs"
)

// Extensions is an acceptance filter; a nil/empty set accepts every extension.
type Extensions map[string]bool

func (e Extensions) accepts(ext string) bool {
	if len(e) == 0 {
		return true
	}
	return e[ext]
}

// Emit writes the index (keyed by directory) in the requested format to w.  hot supplies each
// directory's last-recorded mtime, used as the MTIME field in the text protocols.
func Emit(w io.Writer, format Format, index map[string]store.Fragment, hot map[string]int64, accept Extensions) error {
	switch format {
	case LDAS:
		return emitText(w, index, hot, accept, false)
	case PMDC:
		return emitText(w, index, hot, accept, true)
	case DCFS:
		return emitDCFS(w, index, accept)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func emitText(w io.Writer, index map[string]store.Fragment, hot map[string]int64, accept Extensions, preserveExt bool) error {
	var lines []string
	for dir, frag := range index {
		mtime := hot[dir]
		for sfde, list := range frag {
			if !accept.accepts(sfde.Extension) {
				continue
			}
			nfiles := list.Union() / sfde.Duration
			var keyField string
			if preserveExt {
				keyField = fmt.Sprintf("%s,%s,%s,x,%d,%s", dir, sfde.Site, sfde.FrameType, sfde.Duration, sfde.Extension)
			} else {
				keyField = fmt.Sprintf("%s,%s,%s,1,%d", dir, sfde.Site, sfde.FrameType, sfde.Duration)
			}
			lines = append(lines, fmt.Sprintf("%s %d %d {%s}", keyField, mtime, nfiles, flattenToString(list)))
		}
	}
	sort.Strings(lines)
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}

func flattenToString(list segments.List) string {
	flat := list.Flatten()
	out := make([]byte, 0, len(flat)*12)
	for i, v := range flat {
		if i > 0 {
			out = append(out, ' ')
		}
		out = fmt.Appendf(out, "%d", v)
	}
	return string(out)
}

// dcfsEntry is one (dir, dur, intervals) triple for a given (ext, frametype, site).
type dcfsEntry struct {
	Dir       string  `cbor:"dir"`
	Duration  int64   `cbor:"dur"`
	Intervals []int64 `cbor:"intervals"`
}

func emitDCFS(w io.Writer, index map[string]store.Fragment, accept Extensions) error {
	extToFrametypes := map[string]map[string]bool{}
	extFtToSites := map[string]map[string]bool{}
	extFtSiteToEntries := map[string][]dcfsEntry{}

	compositeKey := func(parts ...string) string {
		out := ""
		for i, p := range parts {
			if i > 0 {
				out += "\x00"
			}
			out += p
		}
		return out
	}

	for dir, frag := range index {
		for sfde, list := range frag {
			if !accept.accepts(sfde.Extension) {
				continue
			}
			if extToFrametypes[sfde.Extension] == nil {
				extToFrametypes[sfde.Extension] = map[string]bool{}
			}
			extToFrametypes[sfde.Extension][sfde.FrameType] = true

			ftKey := compositeKey(sfde.Extension, sfde.FrameType)
			if extFtToSites[ftKey] == nil {
				extFtToSites[ftKey] = map[string]bool{}
			}
			extFtToSites[ftKey][sfde.Site] = true

			siteKey := compositeKey(sfde.Extension, sfde.FrameType, sfde.Site)
			extFtSiteToEntries[siteKey] = append(extFtSiteToEntries[siteKey], dcfsEntry{
				Dir:       dir,
				Duration:  sfde.Duration,
				Intervals: list.Flatten(),
			})
		}
	}

	enc := cbor.NewEncoder(w)
	if err := enc.Encode(toSortedStringSetMap(extToFrametypes)); err != nil {
		return fmt.Errorf("encoding ext->frametype record: %w", err)
	}
	if err := enc.Encode(toSortedStringSetMap(extFtToSites)); err != nil {
		return fmt.Errorf("encoding (ext,frametype)->site record: %w", err)
	}
	if err := enc.Encode(extFtSiteToEntries); err != nil {
		return fmt.Errorf("encoding (ext,frametype,site)->entries record: %w", err)
	}
	return nil
}

func toSortedStringSetMap(in map[string]map[string]bool) map[string][]string {
	out := make(map[string][]string, len(in))
	for k, set := range in {
		vals := make([]string, 0, len(set))
		for v := range set {
			vals = append(vals, v)
		}
		sort.Strings(vals)
		out[k] = vals
	}
	return out
}
