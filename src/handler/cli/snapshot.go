package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dirmetrics/src/service/snapshot"
)

func (h *Handler) snapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage stored analysis snapshots",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := snapshot.Open(h.cfg.Snapshot)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List()
			if err != nil {
				return fmt.Errorf("listing snapshots: %w", err)
			}
			if len(entries) == 0 {
				fmt.Println("No snapshots stored")
				return nil
			}
			for _, e := range entries {
				fmt.Printf("%s  %s  %d files  %s\n",
					color.HiBlackString(e.SavedAt.Local().Format("2006-01-02 15:04:05")),
					e.DirectoryPath, e.Files, color.HiBlackString(e.RunID))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <directory>",
		Short: "Delete the snapshot for a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := snapshot.Open(h.cfg.Snapshot)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(args[0]); err != nil {
				return fmt.Errorf("deleting snapshot: %w", err)
			}
			fmt.Printf("Deleted snapshot for %s\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete all stored snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := snapshot.Open(h.cfg.Snapshot)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Clear()
			if err != nil {
				return fmt.Errorf("clearing snapshots: %w", err)
			}
			fmt.Printf("Deleted %d snapshot(s)\n", n)
			return nil
		},
	})

	return cmd
}
