package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [task]",
		Short: "Build a task and its prerequisites",
		Long:  "Build a task and its prerequisites. Without a task it builds \"all\".",
		Args:  cobra.MaximumNArgs(1),
		RunE:  c.runBuild,
	}
}

func (c *CLI) newTasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List the tasks declared in the buildfile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Tasks(cmd.Context(), c.buildfile)
		},
	}
}

func (c *CLI) newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan [task]",
		Short: "Print the order in which a task's prerequisites would run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var target string
			if len(args) > 0 {
				target = args[0]
			}
			return c.app.Plan(cmd.Context(), c.buildfile, target)
		},
	}
}
