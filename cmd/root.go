package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/killchain/app"
	"github.com/kilianp07/killchain/config"
	coremon "github.com/kilianp07/killchain/core/monitoring"
	"github.com/kilianp07/killchain/infra/logger"
	"github.com/kilianp07/killchain/infra/monitoring"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "killchain",
	Short:         "Kill-chain platform scheduler",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (defaults apply when empty)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func loadConfig() (*config.Config, error) {
	if cfgPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newService loads the configuration, installs error monitoring and builds
// the service. The returned function closes it.
func newService() (*app.Service, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)
	svc, err := app.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
		coremon.Flush(2 * time.Second)
	}
	return svc, closeFn, nil
}
