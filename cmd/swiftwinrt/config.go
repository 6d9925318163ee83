package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"swiftwinrt/internal/project"
	"swiftwinrt/internal/settings"
	"swiftwinrt/internal/writers"
)

// registerSettingsFlags adds the flags that map onto settings.Settings.
func registerSettingsFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("config", "", "configuration file (default: nearest "+settings.DefaultFile+")")
	f.StringArray("input", nil, "metadata container to project (repeatable)")
	f.StringArray("reference", nil, "metadata container that is referenced but not projected (repeatable)")
	f.StringP("output", "o", "", "output folder")
	f.String("ns-prefix", "always", "C ABI namespace prefix (always|never|optional)")
	f.StringArray("include", nil, "type or namespace prefix to include (repeatable)")
	f.StringArray("exclude", nil, "type or namespace prefix to exclude (repeatable)")
	f.String("support", "", "module hosting the shared runtime support (default "+settings.DefaultSupport+")")
	f.StringArray("module", nil, "module declaration name=ns1,ns2[:dep1+dep2] (repeatable)")
	f.BoolP("verbose", "v", false, "log progress to stderr")
	f.String("log", "", "write a JSON log to this file")
	f.Bool("strict", false, "treat metadata errors as fatal")
	f.Bool("fastabi", false, "fold exclusive interfaces into their class's fast ABI vtable")
	f.Bool("force", false, "regenerate modules even when they are up to date")
	f.Int("jobs", 0, "max parallel tasks (0=auto)")

	f.String("component-folder", "", "enable the component pass and write its files here")
	f.String("component-name", "", "name of the component registration file (default "+writers.DefaultComponentName+")")
	f.String("component-prefix", "", "prefix of the exported activation-factory entry point")
	f.Bool("component-overwrite", false, "overwrite existing class implementation stubs")
	f.String("component-lib", "", "Swift module the component imports")
	f.Bool("component-opt", false, "use a lookup table for activation-factory registration")
	f.Bool("component-ignore-velocity", false, "keep feature-staged AlwaysDisabled classes in the component")
	f.StringArray("component-include", nil, "class or namespace prefix the component implements (repeatable)")
	f.StringArray("component-exclude", nil, "class or namespace prefix the component skips (repeatable)")
}

var componentFlags = []string{
	"component-folder", "component-name", "component-prefix", "component-overwrite",
	"component-lib", "component-opt", "component-ignore-velocity",
	"component-include", "component-exclude",
}

// loadSettings reads the configuration file, if any, and applies every flag
// the user set on top of it. The result is validated.
func loadSettings(cmd *cobra.Command) (*settings.Settings, error) {
	flags := cmd.Flags()
	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	if configPath == "" {
		path, ok, err := project.FindConfig(".")
		if err != nil {
			return nil, err
		}
		if ok {
			configPath = path
		}
	}

	var s settings.Settings
	if configPath != "" {
		file, err := settings.LoadFile(configPath)
		if err != nil {
			return nil, err
		}
		if s, err = file.Settings(); err != nil {
			return nil, err
		}
	}
	if err := applyFlags(cmd, &s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// applyFlags overrides s with the flags set on the command line.
func applyFlags(cmd *cobra.Command, s *settings.Settings) error {
	flags := cmd.Flags()
	var firstErr error
	stringArray := func(name string, dst *[]string) {
		if !flags.Changed(name) || firstErr != nil {
			return
		}
		v, err := flags.GetStringArray(name)
		if err != nil {
			firstErr = err
			return
		}
		*dst = v
	}
	str := func(name string, dst *string) {
		if !flags.Changed(name) || firstErr != nil {
			return
		}
		v, err := flags.GetString(name)
		if err != nil {
			firstErr = err
			return
		}
		*dst = v
	}
	boolean := func(name string, dst *bool) {
		if !flags.Changed(name) || firstErr != nil {
			return
		}
		v, err := flags.GetBool(name)
		if err != nil {
			firstErr = err
			return
		}
		*dst = v
	}

	stringArray("input", &s.Inputs)
	stringArray("reference", &s.References)
	str("output", &s.Output)
	stringArray("include", &s.Include)
	stringArray("exclude", &s.Exclude)
	str("support", &s.Support)
	boolean("verbose", &s.Verbose)
	str("log", &s.Log)
	boolean("strict", &s.Strict)
	boolean("fastabi", &s.FastABI)
	boolean("force", &s.Force)
	if flags.Changed("jobs") && firstErr == nil {
		s.Jobs, firstErr = flags.GetInt("jobs")
	}
	if flags.Changed("ns-prefix") && firstErr == nil {
		var raw string
		if raw, firstErr = flags.GetString("ns-prefix"); firstErr == nil {
			s.Prefix, firstErr = settings.ParsePrefixMode(raw)
		}
	}
	if flags.Changed("module") && firstErr == nil {
		var raw []string
		if raw, firstErr = flags.GetStringArray("module"); firstErr == nil {
			s.Modules = nil
			for _, r := range raw {
				spec, err := settings.ParseModuleSpec(r)
				if err != nil {
					firstErr = err
					break
				}
				s.Modules = append(s.Modules, spec)
			}
		}
	}
	if firstErr != nil {
		return firstErr
	}

	changed := false
	for _, name := range componentFlags {
		if flags.Changed(name) {
			changed = true
			break
		}
	}
	if !changed {
		return nil
	}
	if s.Component == nil {
		s.Component = &settings.Component{}
	}
	c := s.Component
	str("component-folder", &c.Folder)
	str("component-name", &c.Name)
	str("component-prefix", &c.Prefix)
	boolean("component-overwrite", &c.Overwrite)
	str("component-lib", &c.Library)
	boolean("component-opt", &c.Optimize)
	boolean("component-ignore-velocity", &c.IgnoreVelocity)
	stringArray("component-include", &c.Include)
	stringArray("component-exclude", &c.Exclude)
	if firstErr != nil {
		return fmt.Errorf("component flags: %w", firstErr)
	}
	return nil
}
