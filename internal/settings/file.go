package settings

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "swiftwinrt.toml"

// File is the on-disk configuration.
type File struct {
	Input     []string         `toml:"input"`
	Reference []string         `toml:"reference"`
	Output    string           `toml:"output"`
	NSPrefix  string           `toml:"ns-prefix"`
	Include   []string         `toml:"include"`
	Exclude   []string         `toml:"exclude"`
	Support   string           `toml:"support"`
	Strict    bool             `toml:"strict"`
	FastABI   bool             `toml:"fastabi"`
	Jobs      int              `toml:"jobs"`
	Modules   []moduleConfig   `toml:"module"`
	Component *componentConfig `toml:"component"`

	meta toml.MetaData
}

type moduleConfig struct {
	Name       string   `toml:"name"`
	Namespaces []string `toml:"namespaces"`
	Deps       []string `toml:"deps"`
}

type componentConfig struct {
	Folder         string   `toml:"folder"`
	Name           string   `toml:"name"`
	Prefix         string   `toml:"prefix"`
	Overwrite      bool     `toml:"overwrite"`
	Library        string   `toml:"library"`
	Optimize       bool     `toml:"optimize"`
	IgnoreVelocity bool     `toml:"ignore-velocity"`
	Include        []string `toml:"include"`
	Exclude        []string `toml:"exclude"`
}

// LoadFile parses a TOML configuration. Relative paths are resolved against
// the file's directory; unknown keys are rejected.
func LoadFile(path string) (*File, error) {
	var f File
	meta, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, &ConfigError{Field: path, Msg: "unknown keys: " + strings.Join(keys, ", ")}
	}
	for i, m := range f.Modules {
		if strings.TrimSpace(m.Name) == "" {
			return nil, &ConfigError{Field: path, Msg: fmt.Sprintf("[[module]] #%d: missing name", i+1)}
		}
	}
	if f.Component != nil && !meta.IsDefined("component", "folder") {
		return nil, &ConfigError{Field: path, Msg: "missing [component].folder"}
	}
	f.meta = meta

	base := filepath.Dir(path)
	rel := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	for i := range f.Input {
		f.Input[i] = rel(f.Input[i])
	}
	for i := range f.Reference {
		f.Reference[i] = rel(f.Reference[i])
	}
	f.Output = rel(f.Output)
	if f.Component != nil {
		f.Component.Folder = rel(f.Component.Folder)
	}
	return &f, nil
}

// IsDefined reports whether the file sets the given key path.
func (f *File) IsDefined(key ...string) bool { return f.meta.IsDefined(key...) }

// Settings converts the file into a Settings value.
func (f *File) Settings() (Settings, error) {
	prefix, err := ParsePrefixMode(f.NSPrefix)
	if err != nil {
		return Settings{}, err
	}
	s := Settings{
		Inputs:     f.Input,
		References: f.Reference,
		Output:     f.Output,
		Prefix:     prefix,
		Include:    f.Include,
		Exclude:    f.Exclude,
		Support:    f.Support,
		Strict:     f.Strict,
		FastABI:    f.FastABI,
		Jobs:       f.Jobs,
	}
	for _, m := range f.Modules {
		s.Modules = append(s.Modules, ModuleSpec{Name: m.Name, Namespaces: m.Namespaces, Deps: m.Deps})
	}
	if c := f.Component; c != nil {
		s.Component = &Component{
			Folder:         c.Folder,
			Name:           c.Name,
			Prefix:         c.Prefix,
			Overwrite:      c.Overwrite,
			Library:        c.Library,
			Optimize:       c.Optimize,
			IgnoreVelocity: c.IgnoreVelocity,
			Include:        c.Include,
			Exclude:        c.Exclude,
		}
	}
	return s, nil
}
