package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"quizmaster/internal/config"
	"quizmaster/internal/domain"
	"quizmaster/internal/infra/postgres"
	"quizmaster/internal/logger"
)

// NewAttemptsCmd lists the most recent generation attempts from the audit log.
func NewAttemptsCmd(configPath *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "attempts",
		Short: "Show recent quiz generation attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}
			return runAttempts(cmd.Context(), *configPath, limit, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of attempts to show")
	return cmd
}

func runAttempts(ctx context.Context, configPath string, limit int, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := logger.Initialize(cfg.Env, cfg.Log.Level); err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	attempts, err := postgres.NewAttemptLog(pool).Recent(ctx, limit)
	if err != nil {
		return err
	}
	return writeAttempts(out, attempts)
}

func writeAttempts(out io.Writer, attempts []domain.GenerationAttempt) error {
	if len(attempts) == 0 {
		_, err := fmt.Fprintln(out, "no generation attempts recorded")
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CREATED\tBACKEND\tOUTCOME\tCOUNT\tDURATION\tTOPIC\tERROR")
	for _, a := range attempts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			a.CreatedAt.UTC().Format(time.RFC3339), a.Backend, a.Outcome, a.Count,
			a.Duration.Round(time.Millisecond), a.Topic, a.Error)
	}
	return w.Flush()
}
