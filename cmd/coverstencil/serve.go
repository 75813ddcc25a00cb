// serve.go — Run the editor HTTP service with config hot reload.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xob0t/CoverStencil/clients/server"
	"github.com/xob0t/CoverStencil/internal/observability"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web editor and its HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fonts, err := a.fonts()
			if err != nil {
				return err
			}
			s, err := server.New(a.cfg, server.Deps{
				Chain:  a.chain(),
				Fonts:  fonts,
				Logger: logger(),
			})
			if err != nil {
				return err
			}
			a.watchConfig()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return s.Run(ctx)
		},
	}
	cmd.Flags().IntP("port", "p", 8080, "port to listen on")
	_ = a.v.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	return cmd
}

// watchConfig applies log level changes from the config file while serving.
func (a *app) watchConfig() {
	if a.v.ConfigFileUsed() == "" {
		return
	}
	a.v.OnConfigChange(a.onConfigChange)
	a.v.WatchConfig()
	logger().Debug("watching config", zap.String("file", a.v.ConfigFileUsed()))
}

func (a *app) onConfigChange(e fsnotify.Event) {
	if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
		return
	}
	level := a.v.GetString("logger.level")
	if err := observability.SetLevel(level); err != nil {
		logger().Warn("config reload: keeping log level", zap.String("file", e.Name), zap.Error(err))
		return
	}
	a.cfg.Logger.Level = level
	logger().Info("config reloaded", zap.String("file", e.Name), zap.String("level", level))
}
