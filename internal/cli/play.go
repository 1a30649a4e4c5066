package cli

import (
	"os"

	"github.com/spf13/cobra"

	"quizmaster/internal/transport/console"
)

// NewPlayCmd runs a quiz in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Create and take a quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath, false)
			if err != nil {
				return err
			}
			service, cleanup, err := buildService(cmd.Context(), cfg)
			defer cleanup()
			if err != nil {
				return err
			}
			return console.New(service, os.Stdin, cmd.OutOrStdout(), cfg.Generation.DefaultQuestions).Run(cmd.Context())
		},
	}
}
