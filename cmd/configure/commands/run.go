package commands

import (
	"context"
	"fmt"

	"github.com/benvon/social-momentum/internal/queue"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newRunCmd(opts *globalOptions) *cobra.Command {
	var (
		user  string
		async bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the momentum agent for one user",
		Long:  "Run the full agent loop for a user and print the nudge, if any. With --async the run is queued for the worker instead.",
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

			if async {
				return enqueue(ctx, e, queue.JobTypeMomentumRun, userID, cmd)
			}

			nudge, err := e.agent(opts.debug).Execute(ctx, userID)
			if err != nil {
				return fmt.Errorf("agent run failed: %w", err)
			}
			if opts.output == outputJSON {
				return writeJSON(cmd.OutOrStdout(), nudge)
			}
			writeNudge(cmd.OutOrStdout(), nudge)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User ID (required)")
	cmd.Flags().BoolVar(&async, "async", false, "Queue the run on RabbitMQ instead of running it here")
	return cmd
}

func newOutcomesCmd(opts *globalOptions) *cobra.Command {
	var (
		user  string
		async bool
	)

	cmd := &cobra.Command{
		Use:   "outcomes",
		Short: "Measure outcomes of a user's past nudges",
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

			if async {
				return enqueue(ctx, e, queue.JobTypeMeasureOutcomes, userID, cmd)
			}

			resolved, err := e.agent(opts.debug).MeasureOutcomes(ctx, userID)
			if err != nil {
				return fmt.Errorf("outcome measurement failed: %w", err)
			}
			if opts.output == outputJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]int{"resolved": resolved})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Resolved %d nudge outcome(s)\n", resolved)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User ID (required)")
	cmd.Flags().BoolVar(&async, "async", false, "Queue the measurement on RabbitMQ instead of running it here")
	return cmd
}

func enqueue(ctx context.Context, e *env, jobType queue.JobType, userID uuid.UUID, cmd *cobra.Command) error {
	if e.cfg.RabbitMQURL == "" {
		return fmt.Errorf("RABBITMQ_URL is required for --async")
	}
	q, err := queue.NewRabbitMQQueue(e.cfg.RabbitMQURL, e.logger)
	if err != nil {
		return err
	}
	defer func() { _ = q.Close() }()

	job := queue.NewJob(jobType, userID)
	job.Metadata["source"] = "cli"
	if err := q.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Queued %s job %s\n", jobType, job.ID)
	return nil
}
