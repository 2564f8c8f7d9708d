package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	loginCmd.Flags().StringP("code", "c", "", "External auth code")
	loginCmd.Flags().String("nickname", "", "Nickname for new accounts")
	loginCmd.Flags().String("avatar", "", "Avatar URL for new accounts")
	loginCmd.MarkFlagRequired("code")
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with an auth code",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := setup(cmd)
		if err != nil {
			return err
		}

		code, _ := cmd.Flags().GetString("code")
		nickname, _ := cmd.Flags().GetString("nickname")
		avatar, _ := cmd.Flags().GetString("avatar")

		if err := application.session.Login(context.Background(), code, nickname, avatar); err != nil {
			return err
		}

		fmt.Println("登录成功")
		PrintSession(application.session.State())
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and clear local identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := setup(cmd)
		if err != nil {
			return err
		}

		application.session.Logout()
		fmt.Println("已退出登录")
		return nil
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show the current account",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := setup(cmd)
		if err != nil {
			return err
		}

		ctx := context.Background()
		application.session.FetchProfile(ctx)
		application.session.FetchVipStatus(ctx)

		state := application.session.State()

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			return PrintJSON(state)
		}
		PrintSession(state)
		return nil
	},
}
