package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"queuectl/internal/store"
)

func NewConfigRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Manage queue configuration",
	}
}

func NewConfigSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a config value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.Store()
			if err != nil {
				return err
			}

			key, value := args[0], args[1]
			if !slices.Contains(store.KnownConfigKeys, key) {
				fmt.Printf("Warning: %q is not a recognized setting.\n", key)
			}
			if err := st.SetConfig(context.Background(), key, value); err != nil {
				return fmt.Errorf("set config: %w", err)
			}
			fmt.Printf("Config updated: %s = %s\n", key, value)
			return nil
		},
	}
}

func NewConfigGetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a config value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.Store()
			if err != nil {
				return err
			}

			val, err := st.GetConfig(context.Background(), args[0])
			if err != nil {
				return err
			}
			if val == "" {
				return fmt.Errorf("config key %q not found", args[0])
			}
			fmt.Printf("%s = %s\n", args[0], val)
			return nil
		},
	}
}
