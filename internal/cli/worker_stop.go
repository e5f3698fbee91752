package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewWorkerStopCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Gracefully stop running workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			sup, err := app.Supervisor()
			if err != nil {
				return err
			}

			status, err := sup.Stop()
			if err != nil {
				return err
			}

			switch {
			case status.Signalled == 0:
				fmt.Println("No active workers found.")
			case status.Clean():
				fmt.Printf("All %d worker(s) stopped gracefully.\n", status.Signalled)
			default:
				fmt.Printf("%d worker(s) did not stop in time (pids %v). They will exit after finishing their current job.\n",
					len(status.Remaining), status.Remaining)
			}
			return nil
		},
	}
}
