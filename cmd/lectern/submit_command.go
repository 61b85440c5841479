package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lectern/internal/jobs"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var referencePath string
	var jsonOut bool
	var watch bool

	cmd := &cobra.Command{
		Use:   "submit <audio-file>",
		Short: "Upload a lecture recording for processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			reference := ""
			if referencePath != "" {
				data, err := os.ReadFile(referencePath)
				if err != nil {
					return fmt.Errorf("read reference transcript: %w", err)
				}
				reference = string(data)
			}

			resp, err := client.Submit(cmd.Context(), args[0], reference)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Job %s accepted (%s)\n", resp.JobID, resp.Status)

			if !watch {
				return nil
			}
			return watchJob(cmd, client, resp.JobID)
		},
	}

	cmd.Flags().StringVar(&referencePath, "reference", "", "Path to a reference transcript for WER scoring")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the raw JSON response")
	cmd.Flags().BoolVar(&watch, "watch", false, "Poll until the job reaches a terminal state")
	return cmd
}

func watchJob(cmd *cobra.Command, client *apiClient, jobID string) error {
	out := cmd.OutOrStdout()
	interactive := isTerminalWriter(out)
	lastStep := ""

	for {
		status, err := client.Status(cmd.Context(), jobID)
		if err != nil {
			return err
		}
		if status.CurrentStep != lastStep {
			lastStep = status.CurrentStep
			if interactive {
				fmt.Fprintf(out, "%s %s\n", displayStatus(status.Status), status.CurrentStep)
			}
		}
		parsed, ok := jobs.ParseStatus(status.Status)
		if ok && parsed.IsTerminal() {
			if status.Error != "" {
				return fmt.Errorf("job %s failed: %s", jobID, status.Error)
			}
			fmt.Fprintf(out, "Job %s finished. Fetch results with: lectern results %s\n", jobID, jobID)
			return nil
		}

		select {
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		case <-time.After(2 * time.Second):
		}
	}
}

func trimmedArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return strings.TrimSpace(args[0])
}
