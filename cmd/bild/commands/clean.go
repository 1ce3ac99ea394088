package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/bild/internal/app"
)

// cleanTask is the buildfile task "bild clean" runs when no flag is given.
const cleanTask = "clean"

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Run the buildfile's clean task, or remove the build log and artifact cache",
		Long: "Without flags, clean runs the task named \"clean\" from the buildfile.\n" +
			"With --log or --cache it removes the build log or the shared artifact cache instead.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, _ := cmd.Flags().GetBool("log")
			cache, _ := cmd.Flags().GetBool("cache")

			if !log && !cache {
				return c.app.Run(cmd.Context(), cleanTask, c.runOptions())
			}

			opts := app.CleanOptions{}
			if log {
				opts.LogFile = c.logFile
			}
			if cache {
				opts.JarCache = c.defaults.JarCache
			}
			return c.app.Clean(cmd.Context(), opts)
		},
	}

	cmd.Flags().Bool("log", false, "Remove the build log")
	cmd.Flags().Bool("cache", false, "Remove the shared artifact cache")

	return cmd
}
