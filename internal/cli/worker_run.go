package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"queuectl/internal/engine"
)

// NewWorkerRunCmd is the hidden command each spawned worker process
// runs. `worker start` re-execs the binary with it; operators never
// call it directly.
func NewWorkerRunCmd(app *App) *cobra.Command {
	var ordinal int

	cmd := &cobra.Command{
		Use:    "run",
		Short:  "Run a single worker loop in this process",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.Store()
			if err != nil {
				return err
			}
			defer st.Close()

			reg, err := app.Registry()
			if err != nil {
				return err
			}

			// SIGTERM/SIGINT set the shutdown intent; the loop only
			// observes it between poll cycles. Repeated signals are
			// no-ops once cancellation fired.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, os.Interrupt)
			defer stop()

			w := engine.NewWorker(ordinal, st, reg, app.Log)
			w.Run(ctx)
			return nil
		},
	}

	cmd.Flags().IntVar(&ordinal, "ordinal", 1, "worker ordinal identity")
	return cmd
}
