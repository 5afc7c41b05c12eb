package main

import (
	"fmt"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/internal/cli"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/internal/config"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vaxbot",
	Short: "Vaxbot runs WhatsApp and USSD questionnaires",
	Long: `Vaxbot drives scripted dialogues such as vaccine registration and
ask-a-question over WhatsApp and USSD transports, persisting each user's
progress between messages.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "YAML file overlaid by the environment")
	rootCmd.PersistentFlags().String("log-level", "", "Override VAXBOT_LOG_LEVEL")
}

// loadConfig reads the configuration named by --config.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load configuration: %w", err)
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	return cfg, nil
}

// openRuntime loads the configuration and builds the runtime with a logger on stderr.
func openRuntime(cmd *cobra.Command) (*cli.Runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := logging.NewWithWriter(cmd.ErrOrStderr(), logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)
	return cli.Open(cfg, cli.WithLogger(logger))
}
