package commands

import (
	"github.com/spf13/cobra"
)

// NewGetCmd creates the get command
func NewGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a single task",
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

			task, err := svc.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return renderTask(cmd, task)
		},
	}
}
