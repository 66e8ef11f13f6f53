package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Manage production runs",
	}

	runsCmd.AddCommand(newRunsStartCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))
	runsCmd.AddCommand(newRunsProgressCommand(ctx))

	return runsCmd
}

func newRunsStartCommand(ctx *commandContext) *cobra.Command {
	var photos []string

	cmd := &cobra.Command{
		Use:   "start <project>",
		Short: "Start a new production run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiClient) error {
				runID, err := client.StartRun(args[0], photos)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Run %s accepted for project %s\n", runID, args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&photos, "photo", nil, "Photo reference to include (repeatable)")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <project> <run>",
		Short: "Show a run record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiClient) error {
				record, err := client.Run(args[0], args[1])
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, record)
				}

				rows := [][]string{
					{"Project", record.ProjectID},
					{"Run", record.RunID},
					{"Status", string(record.Status)},
					{"Created", record.CreatedAt.Local().Format(time.RFC3339)},
					{"Updated", record.UpdatedAt.Local().Format(time.RFC3339)},
				}
				if record.FinalVideoKey != "" {
					rows = append(rows, []string{"Final video", record.FinalVideoKey})
				}
				if record.NarrationKey != "" {
					rows = append(rows, []string{"Narration", record.NarrationKey})
				}
				if record.MusicKey != "" {
					rows = append(rows, []string{"Music", record.MusicKey})
				}
				if record.Error != "" {
					rows = append(rows, []string{"Error", record.Error})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

func newRunsProgressCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "progress <project> <run>",
		Short: "Show a run's progress feed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiClient) error {
				events, err := client.Progress(args[0], args[1])
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, events)
				}
				if len(events) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No progress recorded")
					return nil
				}

				rows := make([][]string, 0, len(events))
				for _, event := range events {
					rows = append(rows, []string{
						event.Timestamp.Local().Format("15:04:05"),
						agentLabel(event.Agent),
						event.Status,
						fmt.Sprintf("%.0f%%", event.Progress),
						event.Message,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Time", "Agent", "Status", "Progress", "Message"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft}))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

// agentLabel renders an agent name for table output: "vision-curator"
// becomes "Vision Curator".
func agentLabel(agent string) string {
	cleaned := strings.ReplaceAll(strings.TrimSpace(agent), "-", " ")
	if cleaned == "" {
		return "-"
	}
	return cases.Title(language.Und).String(cleaned)
}
