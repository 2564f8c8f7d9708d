package cli

import (
	"context"

	"github.com/spf13/cobra"
)

func init() {
	calculateCmd.Flags().StringP("name", "n", "", "Name of the person")
	calculateCmd.Flags().StringP("date", "d", "", "Birth date (yyyy-MM-dd)")
	calculateCmd.Flags().StringP("time", "t", "", "Birth hour (时辰, e.g. 子时)")
	calculateCmd.Flags().IntP("gender", "g", 0, "Gender (1 male, 2 female)")
	calculateCmd.Flags().Bool("names", false, "Also fetch AI name recommendations")
}

var calculateCmd = &cobra.Command{
	Use:   "calculate",
	Short: "Run a Bazi analysis",
	Long:  `Submits name and birth info for horoscope calculation, consuming one analysis credit for non-VIP users.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := setup(cmd)
		if err != nil {
			return err
		}

		name, _ := cmd.Flags().GetString("name")
		date, _ := cmd.Flags().GetString("date")
		birthTime, _ := cmd.Flags().GetString("time")
		gender, _ := cmd.Flags().GetInt("gender")

		application.fortune.SetInput(name, date, birthTime, gender)

		result, err := application.fortune.Calculate(context.Background())
		if err != nil {
			return err
		}

		withNames, _ := cmd.Flags().GetBool("names")
		if withNames {
			names := application.fortune.RecommendNames(context.Background())
			result.NameRecommendations = names
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			return PrintJSON(result)
		}
		PrintResult(result)
		return nil
	},
}
