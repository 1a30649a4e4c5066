package cli

import (
	"os"

	"github.com/spf13/cobra"

	"quizmaster/internal/logger"
)

var (
	port       string
	configPath string
)

// Execute runs the CLI.
func Execute() error {
	defer logger.Sync()
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:          "quizmaster",
		Short:        "AI-generated multiple-choice quizzes, in the terminal or over HTTP",
		SilenceUsage: true,
	}

	// An empty --port falls back to server.port from the config file.
	cmd.PersistentFlags().StringVar(&port, "port", os.Getenv("PORT"), "port to listen on")
	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.AddCommand(NewStartCmd(&configPath, &port))
	cmd.AddCommand(NewPlayCmd(&configPath))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	cmd.AddCommand(NewAttemptsCmd(&configPath))
	return cmd
}
