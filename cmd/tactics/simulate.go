package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/game/battle"
	"github.com/cory-johannsen/tactics/internal/game/character"
	"github.com/cory-johannsen/tactics/internal/server"
)

var (
	partyPath string
	enemyIDs  []string
	seedKey   string
	waves     int
	quiet     bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run an AI-versus-AI battle",
	Long: `Run a battle in which both the party and the enemies are driven by their
AI profiles. The same --seed replays the same battle. With --waves the
party fights the enemy group again after a full rest, until it loses or
every wave is cleared.`,
	Example: "  tactics simulate --party content/party/default.yaml --enemies goblin,goblin --seed demo",
	RunE:    runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&partyPath, "party", "content/party/default.yaml", "party roster YAML")
	simulateCmd.Flags().StringSliceVar(&enemyIDs, "enemies", []string{"goblin", "goblin"}, "enemy template IDs")
	simulateCmd.Flags().StringVar(&seedKey, "seed", "", "replay key seeding every roll (random when empty)")
	simulateCmd.Flags().IntVar(&waves, "waves", 1, "consecutive battles for the same party")
	simulateCmd.Flags().BoolVar(&quiet, "quiet", false, "print only the summary")
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	roster, err := character.LoadRoster(partyPath)
	if err != nil {
		return err
	}
	a, cleanup, err := initializeApp(cmd.Context(), configPath)
	if err != nil {
		return err
	}
	lc := server.NewLifecycle(a.logger)
	lc.Add("app", cleanup)

	req := battle.Request{Roster: roster, Enemies: enemyIDs, ReplayKey: seedKey}
	if !quiet {
		req.Sink = transcript(cmd.OutOrStdout())
	}
	return lc.Run(cmd.Context(), "simulate", func(ctx context.Context) error {
		recs, err := a.service.Campaign(ctx, req, waves)
		for _, rec := range recs {
			printSummary(cmd.OutOrStdout(), rec.Summary())
			a.logger.Info("simulation complete",
				zap.String("battle", rec.ID),
				zap.String("outcome", rec.Outcome),
				zap.Bool("archived", a.archive != nil),
			)
		}
		if err != nil {
			return err
		}
		if a.archive == nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "archive disabled; battle not stored")
		}
		return nil
	})
}
