package cli

import (
	"errors"

	"github.com/apex/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	telegram "damage-portal/internal/api"
	"damage-portal/internal/container"
	"damage-portal/internal/metrics"
	"damage-portal/internal/ops"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot",
		Long: `Runs the Telegram bot against the detection backend at API_BASE.
When METRICS_ADDR is set, /health and /metrics are served there.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			if cfg.TelegramToken == "" {
				return errors.New("TELEGRAM_TOKEN is required")
			}
			metrics.Register()

			c, err := container.New(cfg)
			if err != nil {
				return err
			}
			defer c.InspectionService.Close()

			bot, err := telegram.NewBot(cfg.TelegramToken, c.UserService, c.InspectionService, c.Backend, c.Annotator, c.Renderer)
			if err != nil {
				return err
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			if cfg.MetricsAddr != "" {
				g.Go(func() error {
					return ops.Serve(ctx, cfg.MetricsAddr)
				})
			}
			g.Go(func() error {
				log.WithField("backend", cfg.APIBase).Info("bot is running")
				return bot.Run(ctx)
			})
			return g.Wait()
		},
	}
}
