package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func NewDLQRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dlq",
		Short: "Manage the dead letter queue",
	}
}

func NewDLQListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List jobs in the dead letter queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.Store()
			if err != nil {
				return err
			}

			jobs, err := st.ListDead(context.Background())
			if err != nil {
				return err
			}

			if len(jobs) == 0 {
				fmt.Println("Dead Letter Queue is empty.")
				return nil
			}

			for _, j := range jobs {
				fmt.Printf("%s | attempts=%d/%d | died %s | %s\n",
					j.ID, j.Attempts, j.RetryLimit, jobAge(j.UpdatedAt), j.Command)
			}
			return nil
		},
	}
}

func NewDLQRetryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <jobID>",
		Short: "Move a job from the DLQ back to the pending queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.Store()
			if err != nil {
				return err
			}

			id := args[0]
			if err := st.Resurrect(context.Background(), id, time.Now().UTC()); err != nil {
				return err
			}
			fmt.Printf("Job %q moved from DLQ back to pending.\n", id)
			return nil
		},
	}
}
