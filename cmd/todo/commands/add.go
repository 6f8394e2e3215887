package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/models"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/service"
)

// NewAddCmd creates the add command
func NewAddCmd() *cobra.Command {
	var description, priority, tags, due, dueTime, recur string
	var recurDay int

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a new task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closer, err := openService(cmd)
			if err != nil {
				return err
			}
			defer closer()

			input := service.AddInput{
				Title:         strings.Join(args, " "),
				Description:   description,
				Priority:      models.Priority(priority),
				Tags:          splitTags(tags),
				Recurrence:    models.Recurrence(recur),
				RecurrenceDay: recurDay,
			}

			if due != "" {
				d, err := models.ParseDate(due)
				if err != nil {
					return err
				}
				input.DueDate = &d
			}
			if dueTime != "" {
				t, err := models.ParseTimeOfDay(dueTime)
				if err != nil {
					return err
				}
				input.DueTime = &t
			}

			task, err := svc.Add(cmd.Context(), input)
			if err != nil {
				return err
			}

			cmd.Printf("Added task %d\n", task.ID)
			return renderTask(cmd, task)
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Task description")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "Priority: low, medium, or high")
	cmd.Flags().StringVarP(&tags, "tags", "t", "", "Comma-separated tags")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&dueTime, "time", "", "Due time (HH:MM)")
	cmd.Flags().StringVar(&recur, "recur", "", "Recurrence: daily, weekly, or monthly")
	cmd.Flags().IntVar(&recurDay, "recur-day", 0, "Recurrence day: 1-7 (Mon-Sun) for weekly, 1-31 for monthly")

	return cmd
}
