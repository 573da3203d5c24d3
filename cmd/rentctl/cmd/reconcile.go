package cmd

import (
	"fmt"

	"github.com/rentdesk/rentdesk/internal/app"

	"github.com/spf13/cobra"
)

func ReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Retry pending blob deletions once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				result, err := a.Reconciler.ReconcileOnce(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Printf("attempted=%d deleted=%d failed=%d\n", result.Attempted, result.Deleted, result.Failed)
				return nil
			})
		},
	}
}
