package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"queuectl/internal/model"
	"queuectl/internal/store"
)

func NewEnqueueCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue '{\"id\":\"job1\",\"command\":\"echo hello\"}'",
		Short: "Add a job to the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			st, err := app.Store()
			if err != nil {
				return err
			}

			defaultRetries := st.IntConfig(ctx, store.ConfigMaxRetries, 3)
			spec, err := model.ParseSpec(args[0], defaultRetries)
			if err != nil {
				return err
			}

			job := model.Job{
				ID:         spec.ID,
				Command:    spec.Command,
				RetryLimit: spec.MaxRetries,
			}
			if err := st.Enqueue(ctx, job); err != nil {
				return err
			}

			fmt.Println("Job enqueued with ID:", job.ID)
			return nil
		},
	}
}
