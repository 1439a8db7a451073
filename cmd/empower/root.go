package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gocrud/empower"
	"github.com/gocrud/empower/config"
	"github.com/gocrud/empower/engine"
	"github.com/gocrud/empower/logging"
)

// globalFlags 所有子命令共享的参数
type globalFlags struct {
	logLevel   string
	logFormat  string
	configs    []string
	envPrefix  string
	section    string
	etcd       []string
	etcdPrefix string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "empower",
		Short:         "Resolve assertion instrumentation options",
		Long:          `Resolves the option set handed to the assertion instrumentation engine: engine defaults with rethrow rewriting disabled, optionally overlaid with user configuration.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	pf.StringVar(&flags.logFormat, "log-format", "console", "log format (console, json)")
	pf.StringSliceVarP(&flags.configs, "config", "c", nil, "YAML or JSON configuration file (repeatable, later files win)")
	pf.StringVar(&flags.envPrefix, "env-prefix", "", "read configuration from environment variables with this prefix")
	pf.StringVar(&flags.section, "section", empower.DefaultSection, "configuration section holding assertion options")
	pf.StringSliceVar(&flags.etcd, "etcd", nil, "etcd endpoints to read configuration from")
	pf.StringVar(&flags.etcdPrefix, "etcd-prefix", "/empower", "etcd key prefix")

	root.AddCommand(newResolveCmd(flags))
	root.AddCommand(newServeCmd(flags, nil))
	return root
}

// newLoggerFactory 根据参数创建日志工厂
func (f *globalFlags) newLoggerFactory() (logging.LoggerFactory, error) {
	level, err := logging.ParseLevel(f.logLevel)
	if err != nil {
		return nil, err
	}

	builder := logging.NewLoggingBuilder().SetMinimumLevel(level)
	switch strings.ToLower(f.logFormat) {
	case "json":
		builder.AddJSON()
	case "console", "":
		builder.AddConsole()
	default:
		return nil, fmt.Errorf("unknown log format %q", f.logFormat)
	}
	return builder.Build(), nil
}

// buildConfiguration 按参数组装配置源；未指定任何源时返回 nil
func (f *globalFlags) buildConfiguration() (config.ReloadableConfiguration, error) {
	if len(f.configs) == 0 && f.envPrefix == "" && len(f.etcd) == 0 {
		return nil, nil
	}

	builder := config.NewConfigurationBuilder()
	for _, path := range f.configs {
		if strings.HasSuffix(strings.ToLower(path), ".json") {
			builder.AddJsonFile(path)
		} else {
			builder.AddYamlFile(path)
		}
	}
	if len(f.etcd) > 0 {
		builder.AddEtcd(config.EtcdOptions{
			Endpoints: f.etcd,
			Prefix:    f.etcdPrefix,
		})
	}
	if f.envPrefix != "" {
		builder.AddEnvironmentVariables(f.envPrefix)
	}

	return builder.BuildReloadable()
}

// newResolver 使用全局引擎默认值创建解析器
func newResolver(logger logging.Logger) *empower.Resolver {
	return empower.NewResolver(engine.Global(), empower.WithLogger(logger))
}
