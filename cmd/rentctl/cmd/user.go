package cmd

import (
	"fmt"

	"github.com/rentdesk/rentdesk/internal/app"

	"github.com/spf13/cobra"
)

func UserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user approvals",
	}

	var domestic, foreign bool
	approve := &cobra.Command{
		Use:   "approve <username>",
		Short: "Set a user's domestic and foreign approval flags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				user, err := a.UserService.Approve(cmd.Context(), args[0], domestic, foreign)
				if err != nil {
					return err
				}
				fmt.Printf("%s: domestic=%t foreign=%t\n", user.Username, user.DomesticApproved, user.ForeignApproved)
				return nil
			})
		},
	}
	approve.Flags().BoolVar(&domestic, "domestic", false, "approve for domestic properties")
	approve.Flags().BoolVar(&foreign, "foreign", false, "approve for foreign properties")

	cmd.AddCommand(approve)
	return cmd
}
