package cmd

import (
	"os"

	"gopkg.in/yaml.v3"
)

// rilrc is the optional per-project scratch config: additional search
// paths for bare --import names, and glob patterns `watch` treats as
// reloadable when no explicit path is given. Absence of a .rilrc is not
// an error; every field just defaults to empty.
type rilrc struct {
	SearchPaths []string `yaml:"search_paths"`
	WatchGlobs []string `yaml:"watch_globs"`
}

// loadRilrc reads .rilrc from the current directory, returning a zero
// value (not an error) when the file doesn't exist.
func loadRilrc() (*rilrc, error) {
	data, err := os.ReadFile(".rilrc")
	if err != nil {
		if os.IsNotExist(err) {
			return &rilrc{}, nil
		}
		return nil, err
	}
	var cfg rilrc
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolveImportPath finds name either as a literal path or, failing
// that, under one of cfg's search paths -- the bare --import lookup
// run subcommand detail describes.
func (cfg *rilrc) resolveImportPath(name string) string {
	if _, err := os.Stat(name); err == nil {
		return name
	}
	for _, dir := range cfg.SearchPaths {
		candidate := dir + string(os.PathSeparator) + name
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return name
}
