package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's fortune",
	Long:  `Fetches the daily fortune string, cached per calendar day.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := setup(cmd)
		if err != nil {
			return err
		}

		text := application.fortune.TodayFortune(context.Background())

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			return PrintJSON(map[string]string{"todayFortune": text})
		}
		fmt.Println(text)
		return nil
	},
}
