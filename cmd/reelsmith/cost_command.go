package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCostCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "cost <project> <run>",
		Short: "Show a run's recomputed cost breakdown",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiClient) error {
				cost, err := client.Cost(args[0], args[1])
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, cost)
				}

				rows := [][]string{
					{"Base cost", fmt.Sprintf("$%.4f", cost.BaseCost)},
					{"Markup (20%)", fmt.Sprintf("$%.4f", cost.Markup)},
					{"Total due", fmt.Sprintf("$%.4f", cost.TotalDue)},
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Item", "Amount"}, rows,
					[]columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}
