package main

import (
	"errors"
	"strconv"

	"github.com/spf13/cobra"

	"parler/pkg/checkpoint"
	"parler/pkg/config"
)

var checkpointsCmd = &cobra.Command{
	Use:     "checkpoints",
	Aliases: []string{"cursors"},
	Short:   "Inspect saved pagination cursors",
}

var checkpointsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved cursors, most recent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCheckpointStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.List()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			console.Info("No checkpoints", store.Path())
			return nil
		}

		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []string{
				e.Endpoint,
				e.Key,
				strconv.Itoa(e.Pages),
				e.Cursor,
				e.UpdatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		console.Table([]string{"COMMAND", "KEY", "PAGES", "CURSOR", "UPDATED"}, rows)
		return nil
	},
}

var checkpointsClearCmd = &cobra.Command{
	Use:   "clear <command> [key]",
	Short: "Forget the saved cursor of a listing",
	Example: `  parler checkpoints clear feed
  parler checkpoints clear hashtag-feed news`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCheckpointStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		key := ""
		if len(args) == 2 {
			key = args[1]
		}
		if err := store.Delete(args[0], key); err != nil {
			return err
		}
		console.Success("Checkpoint cleared")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkpointsCmd)
	checkpointsCmd.AddCommand(checkpointsListCmd)
	checkpointsCmd.AddCommand(checkpointsClearCmd)
}

// openCheckpointStore opens the store without requiring a session.
func openCheckpointStore(cmd *cobra.Command) (*checkpoint.Store, error) {
	cfg, err := config.Resolve(configFile, commandLineFlags(cmd))
	if err != nil {
		return nil, err
	}
	if cfg.Checkpoint.Path == "" {
		return nil, errors.New("checkpoint path is not configured")
	}
	return checkpoint.Open(cfg.Checkpoint.Path)
}
