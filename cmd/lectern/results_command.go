package main

import (
	"errors"

	"github.com/spf13/cobra"
)

func newResultsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "results <job-id>",
		Short: "Fetch the artifacts of a finished job",
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
			results, err := client.Results(cmd.Context(), id)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), results)
			}
			renderResults(cmd.OutOrStdout(), results)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the raw JSON response")
	return cmd
}
