// Command actemplate expands card templates from the command line.
//
//	actemplate expand -t card.json -d data.yaml -o out.json
//	actemplate check -t card.json
//	actemplate version
//
// Settings can also come from a YAML file (actemplate.yaml by default, or
// --config); flags win over the file.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sandrolain/actemplate"
	"github.com/sandrolain/actemplate/pkg/codec"
	"github.com/sandrolain/actemplate/pkg/template"
	"github.com/sandrolain/actemplate/pkg/types"
)

// errDiagnostics signals a non-zero exit after the diagnostics have already
// been reported.
var errDiagnostics = errors.New("template has diagnostics")

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "actemplate",
		Short:         "Expand card templates against JSON or YAML data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", defaultConfigPath, "Path to a YAML configuration file")
	root.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn or error")
	root.PersistentFlags().StringP("template", "t", "", "Template file (.json, .yaml, .yml, or - for stdin)")

	root.AddCommand(newExpandCmd(), newCheckCmd(), newVersionCmd())
	return root
}

func newExpandCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expand",
		Short: "Expand a template and write the resulting card",
		Args:  cobra.NoArgs,
		RunE:  runExpand,
	}
	f := cmd.Flags()
	f.StringP("data", "d", "", "Data file (.json, .yaml, .yml, or - for stdin)")
	f.StringP("output", "o", "-", "Output file, - for stdout")
	f.String("format", "", "Output format: json or yaml (default: from the output extension)")
	f.Int("indent", 2, "Indentation width, 0 for compact JSON")
	f.Bool("strict", false, "Exit with status 1 when any diagnostic is reported")
	f.String("locale", "", "Default locale for the formatting functions, e.g. de-DE")
	f.StringSlice("ext", nil, "Extension function categories to enable (string, numeric, array, object, types, format, crypto, all)")
	return cmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report malformed bindings without expanding",
		Args:  cobra.NoArgs,
		RunE:  runCheck,
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), actemplate.Version())
		},
	}
}

// setup loads the configuration and builds the logger and the engine.
func setup(cmd *cobra.Command) (config, *slog.Logger, *template.Engine, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(path, cmd.Flags().Changed("config"))
	if err != nil {
		return cfg, nil, nil, fmt.Errorf("loading config: %w", err)
	}
	cfg.applyFlags(cmd)

	lvl, err := cfg.level()
	if err != nil {
		return cfg, nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: lvl}))

	opts, err := cfg.engineOptions(logger)
	if err != nil {
		return cfg, nil, nil, err
	}
	return cfg, logger, template.New(opts...), nil
}

func readTemplate(cmd *cobra.Command) (types.Value, error) {
	path, _ := cmd.Flags().GetString("template")
	if path == "" {
		return types.Value{}, fmt.Errorf("no template specified (use --template)")
	}
	return codec.ReadFile(path)
}

func runExpand(cmd *cobra.Command, _ []string) error {
	cfg, logger, engine, err := setup(cmd)
	if err != nil {
		return err
	}
	tmpl, err := readTemplate(cmd)
	if err != nil {
		return err
	}
	data := types.Null()
	if dataPath, _ := cmd.Flags().GetString("data"); dataPath != "" {
		if data, err = codec.ReadFile(dataPath); err != nil {
			return err
		}
	}

	outPath, _ := cmd.Flags().GetString("output")
	format, err := cfg.outputFormat(outPath)
	if err != nil {
		return err
	}

	res := engine.Expand(tmpl, data)
	logDiagnostics(logger, res.Diagnostics)

	out, err := codec.Encode(res.Output, format, cfg.Indent)
	if err != nil {
		return err
	}
	if outPath == "-" {
		if _, err := cmd.OutOrStdout().Write(out); err != nil {
			return err
		}
	} else if err := codec.WriteFile(outPath, out); err != nil {
		return err
	}

	logger.Info("template expanded", "output", outPath, "diagnostics", len(res.Diagnostics))
	if cfg.Strict && len(res.Diagnostics) > 0 {
		return errDiagnostics
	}
	return nil
}

func runCheck(cmd *cobra.Command, _ []string) error {
	_, _, engine, err := setup(cmd)
	if err != nil {
		return err
	}
	tmpl, err := readTemplate(cmd)
	if err != nil {
		return err
	}
	diags := engine.Check(tmpl)
	w := cmd.OutOrStdout()
	for _, d := range diags {
		fmt.Fprintln(w, d.Error())
	}
	if len(diags) > 0 {
		return errDiagnostics
	}
	fmt.Fprintln(w, "ok")
	return nil
}

func logDiagnostics(logger *slog.Logger, diags types.Diagnostics) {
	for _, d := range diags {
		logger.Warn("template diagnostic",
			"kind", d.Kind.String(),
			"path", d.Path,
			"code", string(d.Code),
			"expr", d.Expression,
			"message", d.Message,
		)
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errDiagnostics) {
			slog.Error("fatal", "error", err)
		}
		os.Exit(1)
	}
}
