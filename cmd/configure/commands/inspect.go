package commands

import (
	"errors"
	"fmt"

	"github.com/benvon/social-momentum/internal/database"
	"github.com/benvon/social-momentum/internal/services/momentum"
	"github.com/spf13/cobra"
)

func newSummaryCmd(opts *globalOptions) *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show score, memory and activity for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUser(user)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			e, err := openEnv(ctx, opts)
			if err != nil {
				return err
			}
			defer e.close()

			summary, err := e.agent(opts.debug).GetAgentSummary(ctx, userID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.output == outputJSON {
				return writeJSON(out, summary)
			}

			writeScore(out, summary.Score)
			mem := summary.Memory
			fmt.Fprintf(out, "Nudges:   %d sent, %d read, %d acted on (success rate %.0f%%)\n",
				mem.TotalNudgesSent, mem.TotalNudgesRead, mem.TotalNudgesActedOn, mem.SuccessRate*100)
			if mem.LastNudgeSentAt != nil {
				fmt.Fprintf(out, "Last nudge: %s\n", mem.LastNudgeSentAt.UTC().Format("2006-01-02 15:04"))
			}
			act := summary.Activity
			fmt.Fprintf(out, "Activity: %d events (7d), %d events (30d), %d chats (7d), %d friends, streak %d\n",
				act.EventsJoinedLast7Days, act.EventsJoinedLast30Days, act.ChatsSentLast7Days, act.FriendCount, act.Streak)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User ID (required)")
	return cmd
}

func newNudgesCmd(opts *globalOptions) *cobra.Command {
	var (
		user  string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "nudges",
		Short: "List a user's nudges, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUser(user)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			e, err := openEnv(ctx, opts)
			if err != nil {
				return err
			}
			defer e.close()

			nudges, err := e.agent(opts.debug).GetUserNudges(ctx, userID, limit)
			if err != nil {
				return err
			}
			if opts.output == outputJSON {
				return writeJSON(cmd.OutOrStdout(), nudges)
			}
			return writeNudgeTable(cmd.OutOrStdout(), nudges)
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User ID (required)")
	cmd.Flags().IntVar(&limit, "limit", momentum.DefaultNudgeLimit, "Maximum number of nudges")
	return cmd
}

func newScoreCmd(opts *globalOptions) *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Compute a user's current score without nudging",
		Long:  "Aggregate fresh activity and compute the score. The stored score and agent memory are left untouched.",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUser(user)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			e, err := openEnv(ctx, opts)
			if err != nil {
				return err
			}
			defer e.close()

			agentStore := database.NewAgentStore(e.db)
			aggregator := momentum.NewAggregator(database.NewSocialStore(e.db), agentStore, nil, e.logger)
			activity, err := aggregator.Gather(ctx, userID)
			if err != nil {
				return err
			}

			previous, err := agentStore.GetScore(ctx, userID)
			if err != nil && !errors.Is(err, database.ErrNotFound) {
				return fmt.Errorf("failed to load stored score: %w", err)
			}
			score := momentum.ComputeScore(activity, previous, activity.UpdatedAt)

			if opts.output == outputJSON {
				return writeJSON(cmd.OutOrStdout(), score)
			}
			writeScore(cmd.OutOrStdout(), score)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User ID (required)")
	return cmd
}

func newMigrateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			e, err := openEnv(ctx, opts)
			if err != nil {
				return err
			}
			defer e.close()

			if err := e.db.Migrate(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema applied")
			return nil
		},
	}
}
