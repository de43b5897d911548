package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/tunedrop/tunedrop/internal/formatter"
	"github.com/tunedrop/tunedrop/internal/locator"
	"github.com/tunedrop/tunedrop/internal/resolver"
	"github.com/tunedrop/tunedrop/internal/shared"
	"github.com/urfave/cli/v3"
)

// Probe resolves one input through the configured strategies and prints the
// candidates without downloading anything. Useful for checking which
// strategy currently works.
func (r *Runner) Probe(ctx context.Context, cmd *cli.Command) error {
	input := strings.Join(cmd.Args().Slice(), " ")

	loc, err := locator.Classify(input)
	if err != nil {
		return fmt.Errorf("%w: pass a URL or a search phrase", err)
	}

	config := r.resolveConfig(cmd)

	strategies, err := resolver.FromConfig(config.Source)
	if err != nil {
		return fmt.Errorf("building strategies: %w", err)
	}
	res := resolver.New(strategies, config.Source.ProbeTimeout(), config.Search.MaxResults, r.logger)

	switch loc.Kind {
	case locator.KindDirectURL:
		r.logger.Info("probing URL", "video", loc.VideoID)
	case locator.KindSearchQuery:
		r.logger.Info("probing search", "query", loc.Query)
	}

	items, err := res.Resolve(ctx, loc)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return shared.ErrNoResults
	}

	if cmd.Bool("json") {
		return r.writeJSON(items, cmd.Bool("pretty"))
	}

	for i, item := range items {
		line := fmt.Sprintf("%2d. %s", i+1, item.Title)
		if item.DurationSec > 0 {
			line += fmt.Sprintf(" (%s)", formatter.FormatDuration(item.DurationSec))
		}
		if item.Uploader != "" {
			line += " - " + item.Uploader
		}
		if err := r.writePlainln("%s", line); err != nil {
			return err
		}
		if err := r.writePlainln("    %s", item.SourceURL); err != nil {
			return err
		}
	}

	return nil
}
