package commands

import (
	"github.com/spf13/cobra"

	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/models"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/service"
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	var status, priority, tag, search, due, sortBy, order string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closer, err := openService(cmd)
			if err != nil {
				return err
			}
			defer closer()

			input := service.ListInput{
				Status:    models.StatusFilter(status),
				Tag:       tag,
				Search:    search,
				Due:       models.DueFilter(due),
				SortBy:    models.SortField(sortBy),
				SortOrder: models.SortOrder(order),
			}
			if priority != "" {
				p := models.Priority(priority)
				input.Priority = &p
			}

			tasks, err := svc.List(cmd.Context(), input)
			if err != nil {
				return err
			}

			if len(tasks) == 0 {
				cmd.Println("No tasks found.")
				return nil
			}
			return renderTasks(cmd, tasks)
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status: all, complete, or incomplete")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "Filter by priority: low, medium, or high")
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "Filter by tag (case-insensitive)")
	cmd.Flags().StringVar(&search, "search", "", "Search in titles and descriptions")
	cmd.Flags().StringVar(&due, "due", "", "Filter by due status: overdue, today, or week")
	cmd.Flags().StringVar(&sortBy, "sort", "", "Sort by: id, title, priority, due-date, or created")
	cmd.Flags().StringVar(&order, "order", "", "Sort order: asc or desc")

	return cmd
}
