package main

import (
	"errors"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var watch bool

	cmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show the current state of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := trimmedArg(args)
			if id == "" {
				return errors.New("job id is required")
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			if watch {
				return watchJob(cmd, client, id)
			}
			status, err := client.Status(cmd.Context(), id)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), status)
			}
			renderJobStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the raw JSON response")
	cmd.Flags().BoolVar(&watch, "watch", false, "Poll until the job reaches a terminal state")
	return cmd
}
