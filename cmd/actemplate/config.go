package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sandrolain/actemplate/pkg/codec"
	"github.com/sandrolain/actemplate/pkg/ext"
	"github.com/sandrolain/actemplate/pkg/template"
)

// defaultConfigPath is read when --config is not given; a missing file is
// not an error.
const defaultConfigPath = "actemplate.yaml"

type config struct {
	Locale     string        `yaml:"locale"`
	CacheSize  int           `yaml:"cache_size"`
	CacheTTL   time.Duration `yaml:"cache_ttl"`
	Strict     bool          `yaml:"strict"`
	Indent     int           `yaml:"indent"`
	Format     string        `yaml:"format"`
	LogLevel   string        `yaml:"log_level"`
	Extensions []string      `yaml:"extensions"`
}

func defaultConfig() config {
	return config{
		Indent:   2,
		LogLevel: "warn",
	}
}

// loadConfig reads a YAML config file over the defaults. When explicit is
// false a missing file is silently ignored.
func loadConfig(path string, explicit bool) (config, error) {
	cfg := defaultConfig()
	f, err := os.Open(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("decoding config file: %w", err)
	}
	return cfg, nil
}

// applyFlags overrides config values with the flags set on the command line.
func (c *config) applyFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("locale") {
		c.Locale, _ = flags.GetString("locale")
	}
	if flags.Changed("strict") {
		c.Strict, _ = flags.GetBool("strict")
	}
	if flags.Changed("indent") {
		c.Indent, _ = flags.GetInt("indent")
	}
	if flags.Changed("format") {
		c.Format, _ = flags.GetString("format")
	}
	if flags.Changed("log-level") {
		c.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("ext") {
		c.Extensions, _ = flags.GetStringSlice("ext")
	}
}

func (c *config) level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return lvl, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

// outputFormat resolves the output format: the configured one, else the
// extension of the output path, else JSON.
func (c *config) outputFormat(outPath string) (codec.Format, error) {
	if c.Format != "" {
		return codec.ParseFormat(c.Format)
	}
	if outPath == "" || outPath == "-" {
		return codec.JSON, nil
	}
	return codec.FormatFromPath(outPath), nil
}

// engineOptions translates the configuration into template options.
func (c *config) engineOptions(logger *slog.Logger) ([]template.Option, error) {
	opts := []template.Option{
		template.WithLogger(logger),
		template.WithDebug(logger.Enabled(context.Background(), slog.LevelDebug)),
		template.WithStrict(c.Strict),
	}
	if c.Locale != "" {
		opts = append(opts, template.WithLocale(c.Locale))
	}
	if c.CacheSize > 0 {
		opts = append(opts, template.WithCacheSize(c.CacheSize))
	}
	if c.CacheTTL > 0 {
		opts = append(opts, template.WithCacheTTL(c.CacheTTL))
	}
	if len(c.Extensions) > 0 {
		defs, unknown := ext.ByCategory(c.Extensions...)
		if len(unknown) > 0 {
			return nil, fmt.Errorf("unknown extension categories: %s", strings.Join(unknown, ", "))
		}
		opts = append(opts, template.WithFunctions(defs...))
	}
	return opts, nil
}
