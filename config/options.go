// Options-file defaults (C9): an ini-format NAMESPACE.ini file giving fallback values for flags an
// operator would otherwise have to repeat on every invocation against the same namespace. Modelled
// directly on sonalyze/common/inifile.go's use of github.com/lars-t-hansen/ini: one parser, one
// section, one field per option, each overridable by a command-line flag that takes precedence
// whenever it's non-empty.

package config

import (
	"errors"
	"os"

	ini "github.com/lars-t-hansen/ini"
)

// Defaults holds the values read from a namespace's options file, or the zero value if none
// exists.
type Defaults struct {
	Extensions  string
	Protocol    string
	Concurrency string
	OutputMode  string
	present     bool
}

var (
	parser          = ini.NewParser()
	defaultsSection = parser.AddSection("defaults")
	extensionsField = defaultsSection.AddString("extensions")
	protocolField   = defaultsSection.AddString("protocol")
	concurrencyField = defaultsSection.AddString("concurrency")
	outputModeField = defaultsSection.AddString("output-mode")
)

// LoadDefaults reads path (typically NAMESPACE.ini); a missing file is not an error, it just
// yields an empty Defaults so every ApplyXxx call below is a no-op.
func LoadDefaults(path string) (*Defaults, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Defaults{}, nil
		}
		return nil, err
	}
	defer f.Close()

	store, err := parser.Parse(f)
	if err != nil {
		return nil, err
	}

	d := &Defaults{present: true}
	if extensionsField.Present(store) {
		d.Extensions = os.ExpandEnv(extensionsField.StringVal(store))
	}
	if protocolField.Present(store) {
		d.Protocol = os.ExpandEnv(protocolField.StringVal(store))
	}
	if concurrencyField.Present(store) {
		d.Concurrency = os.ExpandEnv(concurrencyField.StringVal(store))
	}
	if outputModeField.Present(store) {
		d.OutputMode = os.ExpandEnv(outputModeField.StringVal(store))
	}
	return d, nil
}

// ApplyString sets *flagValue to def if *flagValue is empty and def is non-empty; CLI flags always
// win when present.
func ApplyString(flagValue *string, def string) {
	if *flagValue == "" && def != "" {
		*flagValue = def
	}
}
