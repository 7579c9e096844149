package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"roster/internal/adapters/lineupimage"
	"roster/internal/application/orchestrators"
	"roster/internal/application/projections"
	"roster/internal/domain/lineup"
	"roster/internal/domain/membership"
)

var renderFlags struct {
	team   string
	date   string
	as     string
	output string
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render one lineup as a PNG card",
	RunE:  runRender,
}

func init() {
	f := renderCmd.Flags()
	f.StringVar(&renderFlags.team, "team", "", "team id")
	f.StringVar(&renderFlags.date, "date", "", "service date, YYYY-MM-DD")
	f.StringVar(&renderFlags.as, "as", "", "render as this uid (needed for private teams)")
	f.StringVarP(&renderFlags.output, "output", "o", "lineup.png", "output file")
	_ = renderCmd.MarkFlagRequired("team")
	_ = renderCmd.MarkFlagRequired("date")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogger(cfg)

	date, err := lineup.ParseDate(renderFlags.date)
	if err != nil {
		return err
	}

	rt, err := openStack(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	card, err := projections.QueryLineupCard(cmd.Context(), projections.LineupCardQuery{
		TeamID:   renderFlags.team,
		LineupID: lineup.IDForDate(date),
		Viewer:   membership.Identity{UID: renderFlags.as},
	}, projections.LineupCardDeps{Roster: rt.backend, Memberships: rt.backend})
	if err != nil {
		return err
	}

	renderer, err := lineupimage.New()
	if err != nil {
		return err
	}
	opts := lineupimage.Options{TeamName: card.Team.Name, NextLeader: card.NextLeader}
	if card.Team.InviteCode != "" {
		opts.PublicURL = orchestrators.ScheduleURL(cfg.Server.PublicBaseURL, card.Team.InviteCode)
	}
	png, err := renderer.Render(card.Lineup, card.Names, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(renderFlags.output, png, 0o644); err != nil {
		return fmt.Errorf("write card: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", renderFlags.output, len(png))
	return nil
}
