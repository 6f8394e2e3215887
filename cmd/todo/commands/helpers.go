package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/models"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/service"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/store"
)

// openService opens the SQLite-backed task service. The caller must invoke
// the returned closer when done.
func openService(cmd *cobra.Command) (*service.Service, func(), error) {
	dbPath, _ := cmd.Flags().GetString("db")
	if dbPath == "" {
		dbPath = os.Getenv("TODO_DB")
	}
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, nil, fmt.Errorf("resolving home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".todo", "tasks.db")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating database directory: %w", err)
	}

	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, nil, err
	}

	closer := func() {
		if err := st.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}
	return service.New(st), closer, nil
}

// parseTaskID parses a positional id argument.
func parseTaskID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id: %s", arg)
	}
	return id, nil
}

// splitTags splits a comma-separated tag list, dropping empty entries.
func splitTags(value string) []string {
	if value == "" {
		return nil
	}
	var tags []string
	for _, tag := range strings.Split(value, ",") {
		trimmed := strings.TrimSpace(tag)
		if trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}

// renderTasks writes tasks in the requested output format.
func renderTasks(cmd *cobra.Command, tasks []*models.Task) error {
	output, _ := cmd.Flags().GetString("output")

	switch output {
	case "json":
		data, err := json.MarshalIndent(tasks, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		cmd.Println(string(data))
		return nil
	case "yaml":
		data, err := yaml.Marshal(tasks)
		if err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		cmd.Print(string(data))
		return nil
	case "table", "":
		return renderTable(cmd, tasks)
	default:
		return fmt.Errorf("invalid output format: %s (must be 'table', 'json', or 'yaml')", output)
	}
}

func renderTable(cmd *cobra.Command, tasks []*models.Task) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDONE\tPRI\tTITLE\tDUE\tRECUR\tTAGS")
	for _, task := range tasks {
		done := " "
		if task.Complete {
			done = "x"
		}

		due := ""
		if task.DueDate != nil {
			due = task.DueDate.String()
			if task.DueTime != nil {
				due += " " + task.DueTime.String()
			}
		}

		recur := string(task.Recurrence)
		if recur != "" && task.RecurrenceDay != 0 {
			recur = fmt.Sprintf("%s(%d)", recur, task.RecurrenceDay)
		}

		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			task.ID, done, task.Priority, task.Title, due, recur,
			strings.Join(task.Tags, ","),
		)
	}
	return w.Flush()
}

// renderTask renders a single task.
func renderTask(cmd *cobra.Command, task *models.Task) error {
	return renderTasks(cmd, []*models.Task{task})
}
