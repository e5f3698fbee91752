package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"queuectl/internal/model"
)

func NewListCmd(app *App) *cobra.Command {
	var state string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs in the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			if state != "" && !model.ValidState(state) {
				return fmt.Errorf("unknown state %q (want one of pending, processing, completed, dead)", state)
			}

			st, err := app.Store()
			if err != nil {
				return err
			}

			jobs, err := st.ListJobs(context.Background(), state)
			if err != nil {
				return err
			}

			if len(jobs) == 0 {
				fmt.Println("No jobs found.")
				return nil
			}

			for _, j := range jobs {
				fmt.Printf("%s | %-10s | attempts=%d/%d | %s | %s\n",
					j.ID, j.State, j.Attempts, j.RetryLimit, jobAge(j.CreatedAt), j.Command)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "Filter by job state (pending,processing,completed,dead)")
	return cmd
}

// jobAge renders a creation time for humans on a terminal and as a
// plain timestamp when output is piped.
func jobAge(t time.Time) string {
	if isatty.IsTerminal(os.Stdout.Fd()) {
		return humanize.Time(t)
	}
	return t.Format(time.RFC3339)
}
