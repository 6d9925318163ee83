package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"swiftwinrt/internal/metadata"
	"swiftwinrt/internal/observ"
	"swiftwinrt/internal/project"
	"swiftwinrt/internal/settings"
	"swiftwinrt/internal/types"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [flags] <Namespace.Type>",
	Short: "Print how a metadata type is classified and named",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	f := inspectCmd.Flags()
	f.String("config", "", "configuration file (default: nearest "+settings.DefaultFile+")")
	f.StringArray("input", nil, "metadata container (repeatable)")
	f.StringArray("reference", nil, "referenced metadata container (repeatable)")
	f.String("ns-prefix", "always", "C ABI namespace prefix (always|never|optional)")
	f.Bool("fastabi", false, "resolve fast ABI owners")
	f.BoolP("verbose", "v", false, "log to stderr")
}

func runInspect(cmd *cobra.Command, args []string) error {
	s, err := inspectSettings(cmd)
	if err != nil {
		return err
	}
	log, err := observ.NewLogger(s.Verbose, "")
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	md, err := metadata.Load(cmd.Context(), s.Inputs, s.References, log)
	if err != nil {
		return err
	}
	tc := types.NewCache(md, s, log)
	return describeType(cmd.OutOrStdout(), tc, args[0])
}

// inspectSettings takes metadata paths from the flags or, failing that,
// from the configuration file.
func inspectSettings(cmd *cobra.Command) (*settings.Settings, error) {
	flags := cmd.Flags()
	var s settings.Settings
	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	if configPath == "" {
		if path, ok, err := project.FindConfig("."); err != nil {
			return nil, err
		} else if ok {
			configPath = path
		}
	}
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
	if len(s.Inputs) == 0 {
		return nil, &settings.ConfigError{Field: "input", Msg: "at least one metadata input is required"}
	}
	return &s, nil
}

// describeType prints the classification of the type named full.
func describeType(out io.Writer, tc *types.Cache, full string) error {
	md := tc.Metadata()
	def, ok := md.FindFull(full)
	if !ok {
		return fmt.Errorf("type %s not found", full)
	}
	t, err := tc.TypeOf(def)
	if err != nil {
		return err
	}

	var b strings.Builder
	row := func(label, format string, args ...any) {
		fmt.Fprintf(&b, "  %-14s %s\n", label+":", fmt.Sprintf(format, args...))
	}
	b.WriteString(def.FullName())
	b.WriteByte('\n')
	row("category", "%s", md.Category(def))
	if md.IsReference(def) {
		row("source", "reference")
	}
	row("swift", "%s", t.SwiftFullName())
	row("abi", "%s", t.ABIName())
	row("mangled", "%s", t.MangledName())

	open := false
	switch v := t.(type) {
	case *types.Class:
		if v.Default != nil {
			row("default", "%s", v.Default.FullName())
		} else {
			row("default", "none (static)")
		}
		if v.Base != nil {
			row("base", "%s", v.Base.FullName())
		}
		row("activatable", "%t", v.Activatable)
		row("sealed", "%t", v.Sealed)
		for _, s := range v.Statics {
			row("statics", "%s", s.FullName())
		}
		for _, f := range v.Factories {
			row("factory", "%s", f.FullName())
		}
		for _, f := range v.Composable {
			row("composable", "%s", f.FullName())
		}
	case *types.Interface:
		open = v.IsGeneric()
		if v.ExclusiveTo != "" {
			row("exclusive to", "%s", v.ExclusiveTo)
		}
		for _, r := range v.Requires {
			row("requires", "%s", r.FullName())
		}
		if owner, ok := tc.FastABIOwner(v); ok {
			row("fast abi", "%s", owner.FullName())
		}
	case *types.Delegate:
		open = v.IsGeneric()
	}
	if open {
		row("generic", "open definition, no signature")
	}

	history, ok, err := metadata.ContractHistoryOf(def)
	switch {
	case err != nil:
		row("contract", "error: %v", err)
	case ok:
		for _, r := range history.Previous {
			row("contract", "%s [%d, %d) -> %s", r.Name, r.Low, r.High, r.To)
		}
		row("contract", "%s v%d", contractName(history.Current.Name), history.Current.Version)
	}
	if d, ok, err := metadata.DeprecationOf(def.Attributes()); err == nil && ok {
		row("deprecated", "%s", d.Message)
	}
	if metadata.IsExperimental(def) {
		row("experimental", "true")
	}

	switch t.Kind() {
	case types.KindStruct, types.KindEnum:
		row("blittable", "%t", tc.IsBlittable(t))
	}
	if !open {
		if sig, err := types.Signature(t); err != nil {
			row("signature", "n/a (%v)", err)
		} else {
			row("signature", "%s", sig)
		}
		switch t.Kind() {
		case types.KindInterface, types.KindDelegate, types.KindClass:
			if iid, err := types.IID(t); err != nil {
				row("iid", "n/a (%v)", err)
			} else {
				row("iid", "%s", iid)
			}
		}
	}
	_, err = io.WriteString(out, b.String())
	return err
}

func contractName(name string) string {
	if name == "" {
		return "platform"
	}
	return name
}
