package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gocrud/empower"
	"github.com/gocrud/empower/config"
	"github.com/gocrud/empower/engine"
)

func newResolveCmd(flags *globalFlags) *cobra.Command {
	var (
		format       string
		defaultsOnly bool
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the resolved options",
		Long: `Print the options handed to the assertion instrumentation engine.

Without any configuration source (or with --defaults) only the engine defaults
are printed, with modifyMessageOnRethrow and saveContextOnRethrow set to false.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			factory, err := flags.newLoggerFactory()
			if err != nil {
				return err
			}
			defer factory.Sync()
			logger := factory.CreateLogger("resolve")

			resolver := newResolver(logger)

			var cfg config.Configuration
			if !defaultsOnly {
				rc, err := flags.buildConfiguration()
				if err != nil {
					return err
				}
				if rc != nil {
					cfg = rc
				}
			}

			options, err := empower.Assemble(resolver, cfg, flags.section)
			if err != nil {
				return err
			}

			return writeOptions(cmd.OutOrStdout(), options, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", "yaml", "output format (yaml, json)")
	cmd.Flags().BoolVar(&defaultsOnly, "defaults", false, "ignore configuration sources and print resolved defaults only")
	return cmd
}

// writeOptions 按格式输出选项（两种编码器都按键排序）
func writeOptions(w io.Writer, options engine.Options, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(options)
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(map[string]any(options)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
