package cli

import (
	"context"

	"github.com/spf13/cobra"
)

func init() {
	historyCmd.Flags().IntP("page", "p", 1, "Page number")
	historyCmd.Flags().IntP("size", "s", 10, "Page size")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show calculation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := setup(cmd)
		if err != nil {
			return err
		}

		page, _ := cmd.Flags().GetInt("page")
		size, _ := cmd.Flags().GetInt("size")

		if err := application.fortune.LoadHistory(context.Background(), page, size); err != nil {
			return err
		}

		history := application.fortune.State().History

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			return PrintJSON(history)
		}
		PrintHistory(history)
		return nil
	},
}
