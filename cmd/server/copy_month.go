package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"roster/internal/application/orchestrators"
	"roster/internal/application/syncstore"
	"roster/internal/domain/membership"
	"roster/internal/domain/schedule"
)

const attachTimeout = 30 * time.Second

var copyMonthFlags struct {
	as string
}

var copyMonthCmd = &cobra.Command{
	Use:   "copy-month <source YYYY-MM> <target YYYY-MM>",
	Short: "Copy a month's lineups onto every Sunday of another month",
	Long:  "Copy-month acts on the active team of the --as user, with that user's permissions, exactly as the API does.",
	Args:  cobra.ExactArgs(2),
	RunE:  runCopyMonth,
}

func init() {
	copyMonthCmd.Flags().StringVar(&copyMonthFlags.as, "as", "", "uid of a team owner or co-admin")
	_ = copyMonthCmd.MarkFlagRequired("as")
	rootCmd.AddCommand(copyMonthCmd)
}

func runCopyMonth(cmd *cobra.Command, args []string) error {
	source, err := schedule.ParseMonth(args[0])
	if err != nil {
		return err
	}
	target, err := schedule.ParseMonth(args[1])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogger(cfg)

	rt, err := openStack(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	store := syncstore.New(rt.backend, syncstore.Options{NewID: uuid.NewString, Observer: rt.metrics})
	attachCtx, cancel := context.WithTimeout(cmd.Context(), attachTimeout)
	defer cancel()
	view, err := store.Attach(attachCtx, membership.Identity{UID: copyMonthFlags.as})
	if err != nil {
		return err
	}
	defer store.Detach()
	if !view.Ready() {
		return fmt.Errorf("roster for %s is %s", copyMonthFlags.as, view.Status)
	}

	res, err := orchestrators.ExecuteCopyMonth(cmd.Context(), orchestrators.CopyMonthInput{Source: source, Target: target},
		orchestrators.CopyMonthDeps{Roster: store})
	if err != nil {
		return err
	}
	slog.Info("copy_month_complete", "team_id", view.Team.ID, "source", source.String(), "target", target.String(),
		"copied", res.Copied, "blank", res.Blank, "dropped", res.Dropped)
	fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s: %d copied, %d blank, %d dropped\n",
		source, target, res.Copied, res.Blank, res.Dropped)
	return nil
}
