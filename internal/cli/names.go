package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var namesCmd = &cobra.Command{
	Use:   "names",
	Short: "Recommend names for the last analysis",
	Long:  `Fetches AI name recommendations based on the five-elements gaps of the most recent calculation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := setup(cmd)
		if err != nil {
			return err
		}

		names := application.fortune.RecommendNames(context.Background())

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			return PrintJSON(names)
		}
		PrintNames(names)
		return nil
	},
}
