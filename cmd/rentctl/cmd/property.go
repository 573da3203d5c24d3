package cmd

import (
	"fmt"
	"os"

	"github.com/rentdesk/rentdesk/internal/app"
	"github.com/rentdesk/rentdesk/internal/service"

	"github.com/spf13/cobra"
)

func PropertyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "property",
		Short: "Manage properties",
	}

	var req service.CreatePropertyRequest
	create := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a property on behalf of an approved user",
		Long:  "Create a property on behalf of an approved user. The password is read from RENTCTL_PASSWORD.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Title = args[0]
			req.Password = os.Getenv("RENTCTL_PASSWORD")

			return withApp(cmd.Context(), func(a *app.App) error {
				property, err := a.PropertyService.Create(cmd.Context(), req)
				if err != nil {
					return err
				}
				fmt.Printf("created property %d (%s)\n", property.ID, property.Title)
				return nil
			})
		},
	}
	create.Flags().StringVar(&req.Username, "username", "", "acting user")
	create.Flags().StringVar(&req.ImageURL, "image-url", "", "cover image URL")
	create.Flags().StringVar(&req.Description, "description", "", "free-form description")
	create.Flags().StringSliceVar(&req.Categories, "category", nil, "category name (repeatable)")
	create.Flags().BoolVar(&req.IsForeign, "foreign", false, "mark the property as foreign")
	_ = create.MarkFlagRequired("username")

	cmd.AddCommand(create)
	return cmd
}
