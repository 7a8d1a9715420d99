// Frame file name parsing.
//
// A frame file name has the form SITE-FRAMETYPE-GPSSTART-DURATION.EXTENSION.  Names that don't
// match this shape are not frame files and should be skipped by the caller; no error is signalled
// for that case, only a boolean.

package frame

import (
	"strconv"
	"strings"
)

// Name is the decomposed form of a frame file's base name.
type Name struct {
	Site      string
	FrameType string
	GpsStart  int64
	Duration  int64
	Extension string
}

// End returns the exclusive end of the frame's GPS interval.
func (n Name) End() int64 {
	return n.GpsStart + n.Duration
}

// Parse decomposes a base file name into its frame fields.  It returns false, not an error, when
// the name does not have the expected shape -- this is the normal "not a frame file" outcome and
// callers must simply skip the file.
func Parse(basename string) (Name, bool) {
	parts := strings.Split(basename, "-")
	if len(parts) != 4 {
		return Name{}, false
	}
	site, frametype, gpsStartStr, durExt := parts[0], parts[1], parts[2], parts[3]
	if site == "" || frametype == "" {
		return Name{}, false
	}

	dotParts := strings.Split(durExt, ".")
	if len(dotParts) != 2 {
		return Name{}, false
	}
	durStr, ext := dotParts[0], dotParts[1]
	if ext == "" {
		return Name{}, false
	}

	gpsStart, err := parseNonnegative(gpsStartStr)
	if err != nil {
		return Name{}, false
	}
	dur, err := parseNonnegative(durStr)
	if err != nil {
		return Name{}, false
	}

	return Name{
		Site:      site,
		FrameType: frametype,
		GpsStart:  gpsStart,
		Duration:  dur,
		Extension: ext,
	}, true
}

func parseNonnegative(s string) (int64, error) {
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.ParseInt(s, 10, 64)
}

// Format renders a Name back into a frame file base name.  It is the inverse of Parse for any Name
// obtained from a successful Parse call, and is used mainly by tests and by callers constructing
// synthetic frame names.
func Format(n Name) string {
	var b strings.Builder
	b.WriteString(n.Site)
	b.WriteByte('-')
	b.WriteString(n.FrameType)
	b.WriteByte('-')
	b.WriteString(strconv.FormatInt(n.GpsStart, 10))
	b.WriteByte('-')
	b.WriteString(strconv.FormatInt(n.Duration, 10))
	b.WriteByte('.')
	b.WriteString(n.Extension)
	return b.String()
}
