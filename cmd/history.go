package main

import (
	"context"
	"fmt"

	"github.com/tunedrop/tunedrop/internal/formatter"
	"github.com/tunedrop/tunedrop/internal/repositories"
	"github.com/tunedrop/tunedrop/internal/shared"
	"github.com/urfave/cli/v3"
)

// History prints recent delivery outcomes from the history database.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	config := r.resolveConfig(cmd)

	if config.Database.Path == "" {
		return fmt.Errorf("%w: database.path is empty", shared.ErrMissingConfig)
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	repo := repositories.NewDeliveryRepository(db)

	limit := int(cmd.Int("limit"))
	owner := int64(cmd.Int("owner"))

	deliveries, err := repo.Recent(owner, limit)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(deliveries, true)
	}

	if len(deliveries) == 0 {
		return r.writePlainln("No deliveries recorded yet.")
	}

	for _, d := range deliveries {
		line := fmt.Sprintf("#%-4d %-9s %s", d.Sequence, d.Outcome, d.Title)
		if d.Outcome == "failed" && d.ErrorKind != "" {
			line += fmt.Sprintf(" [%s]", d.ErrorKind)
		}
		if d.SizeBytes > 0 {
			line += fmt.Sprintf(" (%s)", formatter.FormatFileSize(d.SizeBytes))
		}
		if err := r.writePlainln("%s", line); err != nil {
			return err
		}
	}

	return nil
}
