// Package cmd implements the filterd command line.
package cmd

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matthewbaird/filtereditor/internal/config"
	"github.com/matthewbaird/filtereditor/internal/filter/schema"
	"github.com/matthewbaird/filtereditor/internal/logger"
)

// Version is the filterd release.
const Version = "0.1.0"

// Output formats.
const (
	outputJSON = "json"
	outputYAML = "yaml"
)

// flagKeys maps flags onto config keys. Flags win over the environment and
// the config file.
var flagKeys = map[string]string{
	"schema":     "server.schema_path",
	"root":       "server.root_model",
	"log-level":  "log.level",
	"log-format": "log.format",
	"host":       "server.host",
	"port":       "server.port",
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "filterd",
		Short:        "Nested filter expression editor",
		Long:         `filterd renders, validates and edits nested boolean filter expressions against a model schema.`,
		Version:      Version,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file path")
	pf.String("schema", "", "schema document (.json or .cue)")
	pf.String("root", "", "root model filters are written against")
	pf.String("log-level", "", "log level: debug, info, warn, error (default info)")
	pf.String("log-format", "", "log format: json, console (default json)")
	pf.StringP("output", "o", outputJSON, "output format (json, yaml)")

	root.AddCommand(
		newServeCmd(),
		newRenderCmd(),
		newValidateCmd(),
		newCatalogCmd(),
		newCompleteCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// env is what every subcommand needs once flags are parsed.
type env struct {
	cfg    *config.Config
	schema *schema.Schema
	log    logr.Logger
}

// setup loads configuration with cmd's flags bound over it, builds the
// logger and loads the schema.
func setup(cmd *cobra.Command) (*env, error) {
	v := config.New()
	var bindErr error
	bind := func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && f.Changed && bindErr == nil {
			bindErr = v.BindPFlag(key, f)
		}
	}
	cmd.Flags().VisitAll(bind)
	if bindErr != nil {
		return nil, bindErr
	}

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(v, configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.Setup(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	s, err := schema.LoadFile(cfg.Server.SchemaPath)
	if err != nil {
		return nil, fmt.Errorf("loading schema %s: %w", cfg.Server.SchemaPath, err)
	}
	log.V(1).Info("schema loaded", "path", cfg.Server.SchemaPath, "models", len(s.ModelOrder))
	return &env{cfg: cfg, schema: s, log: log}, nil
}

// scope binds the loaded schema to the configured root model.
func (e *env) scope() (*schema.Scope, error) {
	return schema.NewScope(e.schema, e.cfg.Server.RootModel)
}
