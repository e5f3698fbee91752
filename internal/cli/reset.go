package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func NewResetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear all jobs, including the DLQ (development only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.Store()
			if err != nil {
				return err
			}
			if err := st.ResetQueue(context.Background()); err != nil {
				return fmt.Errorf("clear jobs: %w", err)
			}
			fmt.Println("Queue cleared.")
			return nil
		},
	}
}
