package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/tactics/internal/server"
)

var listLimit int

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Read archived battles",
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recently archived battles",
	RunE:  runArchiveList,
}

var archiveShowCmd = &cobra.Command{
	Use:   "show <battle-id>",
	Short: "Print one archived battle's event journal",
	Args:  cobra.ExactArgs(1),
	RunE:  runArchiveShow,
}

func init() {
	archiveListCmd.Flags().IntVar(&listLimit, "limit", 20, "maximum battles to list")
	archiveCmd.AddCommand(archiveListCmd)
	archiveCmd.AddCommand(archiveShowCmd)
}

// withArchive runs fn against the configured archive.
func withArchive(cmd *cobra.Command, name string, fn func(ctx context.Context, a *app) error) error {
	a, cleanup, err := initializeApp(cmd.Context(), configPath)
	if err != nil {
		return err
	}
	lc := server.NewLifecycle(a.logger)
	lc.Add("app", cleanup)
	return lc.Run(cmd.Context(), name, func(ctx context.Context) error {
		if a.archive == nil {
			return errArchiveDisabled
		}
		return fn(ctx, a)
	})
}

func runArchiveList(cmd *cobra.Command, _ []string) error {
	return withArchive(cmd, "archive list", func(ctx context.Context, a *app) error {
		summaries, err := a.archive.ListRecent(ctx, listLimit)
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no battles archived")
			return nil
		}
		for _, s := range summaries {
			printSummary(cmd.OutOrStdout(), s)
		}
		return nil
	})
}

func runArchiveShow(cmd *cobra.Command, args []string) error {
	return withArchive(cmd, "archive show", func(ctx context.Context, a *app) error {
		rec, err := a.archive.Get(ctx, args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		printSummary(out, rec.Summary())
		fmt.Fprintf(out, "enemies: %v\n", rec.Enemies)
		for _, e := range rec.Journal {
			fmt.Fprintln(out, eventLine(e))
		}
		return nil
	})
}
