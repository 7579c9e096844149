package main

import (
	"crypto/rand"
	"fmt"

	"github.com/spf13/cobra"

	"roster/internal/domain/team"
)

var inviteCodeCount int

var inviteCodeCmd = &cobra.Command{
	Use:   "invite-code",
	Short: "Generate invite codes",
	Long:  "Invite-code prints fresh codes for seed files. Uniqueness is only checked when a team is stored.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if inviteCodeCount < 1 {
			return fmt.Errorf("--count must be positive")
		}
		for range inviteCodeCount {
			code, err := team.GenerateInviteCode(rand.Reader)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), code)
		}
		return nil
	},
}

func init() {
	inviteCodeCmd.Flags().IntVarP(&inviteCodeCount, "count", "n", 1, "number of codes")
	rootCmd.AddCommand(inviteCodeCmd)
}
