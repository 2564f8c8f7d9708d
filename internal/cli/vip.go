package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var vipCmd = &cobra.Command{
	Use:   "vip",
	Short: "VIP membership commands",
}

func init() {
	vipBuyCmd.Flags().StringP("plan", "p", "monthly", "Plan type (monthly, yearly, lifetime)")
	vipBuyCmd.Flags().Bool("real-pay", false, "Use the real payment flow instead of mock pay")

	vipCmd.AddCommand(vipPlansCmd)
	vipCmd.AddCommand(vipStatusCmd)
	vipCmd.AddCommand(vipOrdersCmd)
	vipCmd.AddCommand(vipBuyCmd)
}

var vipPlansCmd = &cobra.Command{
	Use:   "plans",
	Short: "List available plans",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := setup(cmd)
		if err != nil {
			return err
		}

		plans := application.vip.LoadPlans(context.Background())

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			return PrintJSON(plans)
		}
		PrintPlans(plans)
		return nil
	},
}

var vipStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show VIP status",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := setup(cmd)
		if err != nil {
			return err
		}

		application.vip.LoadStatus(context.Background())
		status := application.vip.State().Status

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			return PrintJSON(status)
		}
		if status.IsVip {
			fmt.Printf("VIP会员（%s），到期时间 %s\n", status.PlanType, status.ExpireTime)
		} else {
			fmt.Println("当前不是VIP会员")
		}
		return nil
	},
}

var vipOrdersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List purchase orders",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := setup(cmd)
		if err != nil {
			return err
		}

		application.vip.LoadOrders(context.Background())
		orders := application.vip.State().Orders

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			return PrintJSON(orders)
		}
		PrintOrders(orders)
		return nil
	},
}

var vipBuyCmd = &cobra.Command{
	Use:   "buy",
	Short: "Purchase a VIP plan",
	Long:  `Creates an order, pays it (mock pay unless --real-pay), and refreshes VIP status.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := setup(cmd)
		if err != nil {
			return err
		}

		plan, _ := cmd.Flags().GetString("plan")
		realPay, _ := cmd.Flags().GetBool("real-pay")

		mockPay := application.cfg.Settings.MockPay && !realPay
		if err := application.vip.Purchase(context.Background(), plan, mockPay); err != nil {
			return err
		}

		fmt.Println("购买成功")
		return nil
	},
}
