package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"queuectl/internal/model"
)

func NewStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show job counts per state and active workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.Store()
			if err != nil {
				return err
			}

			counts, err := st.CountByState(context.Background())
			if err != nil {
				return err
			}

			reg, err := app.Registry()
			if err != nil {
				return err
			}
			pids, err := reg.Alive()
			if err != nil {
				return err
			}

			fmt.Println("--- Queue Status ---")
			fmt.Printf("Active Workers: %d\n", len(pids))
			for _, state := range model.States {
				fmt.Printf("%-11s %d\n", state+":", counts[state])
			}
			return nil
		},
	}
}
