package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdregistry "github.com/projecteru2/lockman/cmd/registry"
	cmdscenario "github.com/projecteru2/lockman/cmd/scenario"
	"github.com/projecteru2/lockman/config"
)

var (
	cfgFile string
	conf    *config.Config
)

var rootCmd = func() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "lockctl",
		Short:        "lockctl - lock-coordination engine introspection and demo CLI",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(cmd.Context())
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	cmd.PersistentFlags().Int("pool-size", 0, "goroutine pool size for the stress scenario (default: NumCPU)")
	cmd.PersistentFlags().Int("stress-actions", 0, "number of concurrent lock calls the stress scenario issues")
	cmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	_ = viper.BindPFlag("pool_size", cmd.PersistentFlags().Lookup("pool-size"))
	_ = viper.BindPFlag("stress_actions", cmd.PersistentFlags().Lookup("stress-actions"))
	_ = viper.BindPFlag("log.level", cmd.PersistentFlags().Lookup("log-level"))

	viper.SetEnvPrefix("LOCKMAN")
	viper.AutomaticEnv()

	confProvider := func() *config.Config { return conf }

	cmd.AddCommand(cmdscenario.Command(cmdscenario.Handler{ConfProvider: confProvider}))
	cmd.AddCommand(cmdregistry.Command(cmdregistry.Handler{ConfProvider: confProvider}))

	return cmd
}()

// Execute is the main entry point called from main.go.
func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return rootCmd.ExecuteContext(ctx)
}

func initConfig(ctx context.Context) error {
	conf = config.DefaultConfig()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
	if err := viper.ReadInConfig(); err != nil {
		// No config file is OK; a corrupt/unreadable one is not.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	if err := viper.Unmarshal(conf); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if conf.PoolSize <= 0 {
		conf.PoolSize = runtime.NumCPU()
	}
	if conf.StressActions <= 0 {
		conf.StressActions = 100 //nolint:mnd
	}

	return log.SetupLog(ctx, conf.Log, "")
}
