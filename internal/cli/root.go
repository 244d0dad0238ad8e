package cli

import (
	"fmt"
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/text"
	"github.com/spf13/cobra"

	"damage-portal/config"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "damage-portal",
		Short: "Vehicle part and damage inspection over Telegram",
		Long: `damage-portal browses vehicle photos from the detection backend,
draws part and damage boxes, requests damage reports, lets users discuss
them and exports the result as a PDF.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(newServeCmd(), newExportCmd())
	return cmd
}

// setup загружает конфигурацию и настраивает логирование.
func setup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log.SetHandler(text.New(os.Stderr))
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	log.SetLevel(level)
	return cfg, nil
}
