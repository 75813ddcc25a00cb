// root.go — Root command, config loading and shared asset wiring.
package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xob0t/CoverStencil/internal/config"
	"github.com/xob0t/CoverStencil/internal/observability"
	"github.com/xob0t/CoverStencil/pkg/assets"
	"github.com/xob0t/CoverStencil/pkg/preview"
)

// Version is set at build time:
//
//	go build -ldflags "-X main.Version=1.2.0" ./cmd/coverstencil
var Version = "dev"

// app is the state shared by every subcommand.
type app struct {
	cfgFile string
	v       *viper.Viper
	cfg     *config.Config
	kit     *assets.Kit
	cleanup []func()
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "coverstencil",
		Short:         "CoverStencil edits news cover overlays and renders their previews.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initialize()
		},
	}
	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(
		newServeCmd(a),
		newPreviewCmd(a),
		newPayloadCmd(a),
		newThemesCmd(a),
		newKitCmd(a),
		newInitCmd(a),
		newVersionCmd(),
	)
	return root, a
}

// initialize reads config, starts logging and loads the brand kit. The kit
// goes first so its themes can be named as the default theme.
func (a *app) initialize() error {
	config.SetDefaults(a.v)
	if err := config.Configure(a.v, a.cfgFile); err != nil {
		return err
	}

	if path := a.v.GetString("assets.brand_kit"); path != "" {
		if err := a.loadKit(path); err != nil {
			return err
		}
	}

	cfg, err := config.NewConfigFromViper(a.v)
	if err != nil {
		observability.InitializeLogger(config.NewDefaultConfig().Logger)
		return err
	}
	observability.InitializeLogger(cfg.Logger)
	a.cfg = cfg

	if a.kit != nil {
		logger().Info("brand kit loaded", zap.String("kit", a.kit.Meta.Name), zap.Int("themes", len(a.kit.Themes)))
		for _, w := range a.kit.Validate() {
			logger().Warn(w)
		}
	}
	return nil
}

func (a *app) loadKit(path string) error {
	kit, cleanup, err := assets.LoadKit(path)
	if err != nil {
		return fmt.Errorf("load brand kit: %w", err)
	}
	a.cleanup = append(a.cleanup, cleanup)
	if _, err := kit.RegisterThemes(); err != nil {
		return err
	}
	a.kit = kit
	return nil
}

func (a *app) close() {
	for _, fn := range a.cleanup {
		fn()
	}
	a.cleanup = nil
}

func logger() *zap.Logger { return observability.GetLogger() }

// chain builds the logo resolution chain: brand kit, then configured
// directories, then the logo base URL.
func (a *app) chain() *assets.Chain {
	var sources []assets.Source
	if a.kit != nil {
		sources = append(sources, a.kit.Source())
	}
	for _, dir := range a.cfg.Assets.LogoDirs {
		src, err := assets.NewDirSource(dir)
		if err != nil {
			logger().Warn("skipping logo dir", zap.String("dir", dir), zap.Error(err))
			continue
		}
		sources = append(sources, src)
	}
	if base := a.cfg.Assets.LogoBaseURL; base != "" {
		src, err := assets.NewHTTPSource(base, &http.Client{Timeout: 10 * time.Second})
		if err != nil {
			logger().Warn("skipping logo base URL", zap.String("url", base), zap.Error(err))
		} else {
			sources = append(sources, src)
		}
	}
	return assets.NewChain(logger(), sources...)
}

// fonts loads the kit font, the configured font, or the embedded one.
func (a *app) fonts() (*preview.FontManager, error) {
	path := a.cfg.Assets.FontPath
	if a.kit != nil && a.kit.Font != "" {
		path = a.kit.Font
	}
	return preview.NewFontManager(path, logger())
}
