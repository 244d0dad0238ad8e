package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"damage-portal/internal/container"
	"damage-portal/internal/document"
	"damage-portal/internal/domain/entity"
)

func newExportCmd() *cobra.Command {
	var (
		image string
		out   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Detect parts, analyze damage and write a PDF report",
		Example: `  # Write the report for one backend image
  damage-portal export --image car_01.jpg --out car_01.pdf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			c, err := container.New(cfg)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			res, err := c.Backend.Predict(ctx, image, entity.TaskParts)
			if err != nil {
				return fmt.Errorf("predict: %w", err)
			}
			parts := entity.DistinctLabels(res.Predictions)
			if len(parts) == 0 {
				return errors.New("no parts detected, nothing to analyze")
			}
			rep, err := c.Backend.Analyze(ctx, image, parts)
			if err != nil {
				return fmt.Errorf("damage analysis: %w", err)
			}

			doc, err := c.Documents.Build(ctx, document.Input{
				ImageName:  image,
				Report:     rep,
				Detections: res.Predictions,
			})
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, doc.Bytes, 0o644); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
			log.WithFields(log.Fields{
				"out":      out,
				"pages":    doc.Pages,
				"warnings": len(doc.Warnings),
			}).Info("report written")
			return nil
		},
	}

	cmd.Flags().StringVarP(&image, "image", "i", "", "Backend image name")
	cmd.Flags().StringVarP(&out, "out", "o", "damage-report.pdf", "Output PDF path")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}
