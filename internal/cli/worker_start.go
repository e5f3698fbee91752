package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewWorkerStartCmd(app *App) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start one or more worker processes",
		RunE: func(cmd *cobra.Command, args []string) error {
			sup, err := app.Supervisor()
			if err != nil {
				return err
			}
			if err := sup.Start(count); err != nil {
				return err
			}
			fmt.Printf("Started %d worker(s). Use `queuectl worker stop` to stop them.\n", count)
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 1, "number of workers to start")
	return cmd
}
