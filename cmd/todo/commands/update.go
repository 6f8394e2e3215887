package commands

import (
	"github.com/spf13/cobra"

	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/models"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/service"
)

// NewUpdateCmd creates the update command. Only flags explicitly provided on
// the command line are applied; the sentinel value "none" clears an optional
// field instead of setting it.
func NewUpdateCmd() *cobra.Command {
	var title, description, priority, tags, due, dueTime, recur string
	var recurDay int

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}

			var patch service.Patch

			if cmd.Flags().Changed("title") {
				patch.Title = service.SetField(title)
			}
			if cmd.Flags().Changed("description") {
				if description == "" {
					patch.Description = service.ClearField[string]()
				} else {
					patch.Description = service.SetField(description)
				}
			}
			if cmd.Flags().Changed("priority") {
				if priority == "none" || priority == "" {
					patch.Priority = service.ClearField[models.Priority]()
				} else {
					patch.Priority = service.SetField(models.Priority(priority))
				}
			}
			if cmd.Flags().Changed("tags") {
				parsed := splitTags(tags)
				if len(parsed) == 0 {
					patch.Tags = service.ClearField[[]string]()
				} else {
					patch.Tags = service.SetField(parsed)
				}
			}
			if cmd.Flags().Changed("due") {
				if due == "none" || due == "" {
					patch.DueDate = service.ClearField[models.Date]()
				} else {
					d, err := models.ParseDate(due)
					if err != nil {
						return err
					}
					patch.DueDate = service.SetField(d)
				}
			}
			if cmd.Flags().Changed("time") {
				if dueTime == "none" || dueTime == "" {
					patch.DueTime = service.ClearField[models.TimeOfDay]()
				} else {
					t, err := models.ParseTimeOfDay(dueTime)
					if err != nil {
						return err
					}
					patch.DueTime = service.SetField(t)
				}
			}
			if cmd.Flags().Changed("recur") {
				if recur == "none" || recur == "" {
					patch.Recurrence = service.ClearField[models.Recurrence]()
				} else {
					patch.Recurrence = service.SetField(models.Recurrence(recur))
				}
			}
			if cmd.Flags().Changed("recur-day") {
				if recurDay == 0 {
					patch.RecurrenceDay = service.ClearField[int]()
				} else {
					patch.RecurrenceDay = service.SetField(recurDay)
				}
			}

			svc, closer, err := openService(cmd)
			if err != nil {
				return err
			}
			defer closer()

			task, err := svc.Update(cmd.Context(), id, patch)
			if err != nil {
				return err
			}

			cmd.Printf("Updated task %d\n", task.ID)
			return renderTask(cmd, task)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description (empty to clear)")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "New priority: low, medium, high, or none")
	cmd.Flags().StringVarP(&tags, "tags", "t", "", "Comma-separated tags (empty to clear)")
	cmd.Flags().StringVar(&due, "due", "", "New due date (YYYY-MM-DD, or none)")
	cmd.Flags().StringVar(&dueTime, "time", "", "New due time (HH:MM, or none)")
	cmd.Flags().StringVar(&recur, "recur", "", "New recurrence: daily, weekly, monthly, or none")
	cmd.Flags().IntVar(&recurDay, "recur-day", 0, "New recurrence day (0 to clear)")

	return cmd
}
