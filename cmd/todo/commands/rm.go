package commands

import (
	"github.com/spf13/cobra"
)

// NewRmCmd creates the rm command
func NewRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}

			svc, closer, err := openService(cmd)
			if err != nil {
				return err
			}
			defer closer()

			if err := svc.Delete(cmd.Context(), id); err != nil {
				return err
			}
			cmd.Printf("Deleted task %d\n", id)
			return nil
		},
	}
}
