package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd assembles the full queuectl command tree.
func NewRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "queuectl",
		Short:         "Persistent background job queue",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&app.DBPath, "db", "",
		"path to the queue database (default ~/.queuectl/queue.db)")
	cmd.PersistentFlags().StringVar(&app.RegistryDir, "registry-dir", "",
		"worker liveness marker directory (default ~/.queuectl/workers)")

	workerCmd := NewWorkerRootCmd()
	workerCmd.AddCommand(NewWorkerStartCmd(app))
	workerCmd.AddCommand(NewWorkerStopCmd(app))
	workerCmd.AddCommand(NewWorkerRunCmd(app))

	dlqCmd := NewDLQRootCmd()
	dlqCmd.AddCommand(NewDLQListCmd(app))
	dlqCmd.AddCommand(NewDLQRetryCmd(app))

	configCmd := NewConfigRootCmd()
	configCmd.AddCommand(NewConfigSetCmd(app))
	configCmd.AddCommand(NewConfigGetCmd(app))

	cmd.AddCommand(
		NewEnqueueCmd(app),
		NewListCmd(app),
		NewStatusCmd(app),
		NewResetCmd(app),
		workerCmd,
		dlqCmd,
		configCmd,
	)
	return cmd
}
