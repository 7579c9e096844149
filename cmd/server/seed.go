package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"roster/internal/application/orchestrators"
)

var seedCmd = &cobra.Command{
	Use:   "seed <file.json>",
	Short: "Import a team with its members and lineups from a seed file",
	Long:  "Seed imports a team export. A team whose invite code already exists is updated in place, so seeding the same file twice is safe.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogger(cfg)

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	input, err := orchestrators.ParseSeedFile(f)
	if err != nil {
		return err
	}

	rt, err := openStack(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	res, err := orchestrators.ExecuteSeedTeam(cmd.Context(), input, orchestrators.SeedTeamDeps{
		Store: rt.backend,
		NewID: uuid.NewString,
		Now:   time.Now,
	})
	if err != nil {
		return err
	}
	slog.Info("seed_complete", "team_id", res.TeamID, "team_created", res.TeamCreated, "members", res.Members, "lineups", res.Lineups)
	fmt.Fprintf(cmd.OutOrStdout(), "team %s: %d members, %d lineups\n", res.TeamID, res.Members, res.Lineups)
	return nil
}
