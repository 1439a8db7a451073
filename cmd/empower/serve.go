package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gocrud/empower"
	"github.com/gocrud/empower/config"
	"github.com/gocrud/empower/logging"
	"github.com/gocrud/empower/web"
)

// newServeCmd 创建 serve 命令；ready 非空时在开始监听后收到实际地址
func newServeCmd(flags *globalFlags, ready func(addr string)) *cobra.Command {
	var (
		host           string
		port           int
		watch          bool
		reloadSchedule string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve resolved options over HTTP",
		Long: `Start an HTTP server exposing the options:

  GET /options/defaults  engine defaults with rethrow rewriting disabled
  GET /options           defaults overlaid with the configured section

With --watch the configuration files are reloaded when they change.
With --reload-interval every source (including etcd and environment
variables) is reloaded on a cron schedule, e.g. "@every 30s".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			factory, err := flags.newLoggerFactory()
			if err != nil {
				return err
			}
			defer factory.Sync()
			logger := factory.CreateLogger("serve")

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			resolver := newResolver(factory.CreateLogger("resolver"))

			rc, err := flags.buildConfiguration()
			if err != nil {
				return err
			}
			var cfg config.Configuration
			if rc != nil {
				cfg = rc
			}

			monitor, err := empower.NewMonitor(resolver, cfg, flags.section, factory.CreateLogger("monitor"))
			if err != nil {
				return err
			}

			if watch && rc != nil && len(flags.configs) > 0 {
				w, err := config.Watch(ctx, rc, flags.configs,
					config.WithWatcherLogger(factory.CreateLogger("config")))
				if err != nil {
					return err
				}
				defer w.Close()
			}

			if reloadSchedule != "" && rc != nil {
				reloader, err := config.NewReloader(rc, reloadSchedule,
					config.WithReloaderLogger(factory.CreateLogger("config")))
				if err != nil {
					return err
				}
				reloader.Start()
				defer reloader.Stop(context.Background())
			}

			h := web.New(
				web.WithHost(host),
				web.WithPort(port),
				web.WithLogger(logger),
				web.WithControllers(&web.OptionsController{
					Defaults: resolver,
					Current:  monitor,
					Logger:   logger,
				}),
			)

			return run(ctx, h, logger, ready)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen address")
	cmd.Flags().IntVarP(&port, "port", "p", web.DefaultPort, "listen port")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload configuration files when they change")
	cmd.Flags().StringVar(&reloadSchedule, "reload-interval", "", `cron schedule for reloading every configuration source (e.g. "@every 30s")`)
	return cmd
}

// run 阻塞运行主机直到 ctx 取消
func run(ctx context.Context, h *web.Host, logger logging.Logger, ready func(addr string)) error {
	if ready != nil {
		go func() {
			select {
			case <-h.Ready():
				ready(h.Address())
			case <-ctx.Done():
			}
		}()
	}

	if err := h.Start(ctx); err != nil {
		return err
	}
	logger.Info("Shutdown complete")
	return nil
}
