package commands

import (
	"github.com/spf13/cobra"

	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/service"
)

// NewDoneCmd creates the done command
func NewDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a task's completion state",
		Long:  "Toggle a task between complete and incomplete. Completing a recurring task also creates its next occurrence.",
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

			result, err := svc.ToggleComplete(cmd.Context(), id)
			if err != nil {
				// The completion itself is durable even when the next
				// occurrence could not be created.
				if service.IsAdvanceFailed(err) && result != nil {
					cmd.Printf("Task %d is complete, but its next occurrence could not be created.\n", id)
					cmd.Printf("Run 'todo advance %d' to retry.\n", id)
					return err
				}
				return err
			}

			if result.Task.Complete {
				cmd.Printf("Completed task %d\n", id)
			} else {
				cmd.Printf("Reopened task %d\n", id)
			}
			if result.CreatedNext != nil {
				cmd.Printf("Created next occurrence %d due %s\n",
					result.CreatedNext.ID, result.CreatedNext.DueDate.String())
			}
			return nil
		},
	}
}
