package commands

import (
	"github.com/spf13/cobra"
)

// NewAdvanceCmd creates the advance command
func NewAdvanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "advance <id>",
		Short: "Create the next occurrence of a completed recurring task",
		Long:  "Retry successor creation for a recurring task that was completed but whose next occurrence failed to materialize. The task must be complete and have a recurrence pattern.",
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

			next, err := svc.Advance(cmd.Context(), id)
			if err != nil {
				return err
			}

			cmd.Printf("Created next occurrence %d\n", next.ID)
			return renderTask(cmd, next)
		},
	}
}
