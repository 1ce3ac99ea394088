// Package commands implements the CLI commands for bild.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/bild/internal/adapters/detector"
	"go.trai.ch/bild/internal/app"
	"go.trai.ch/bild/internal/build"
)

// CLI represents the command line interface for bild.
type CLI struct {
	app       Application
	defaults  Defaults
	rootCmd   *cobra.Command
	logFormat LogFormatter

	buildfile string
	logFile   string
	output    string
	json      bool
}

// LogFormatter switches diagnostics between pretty and JSON output.
type LogFormatter interface {
	SetJSON(enable bool)
}

// Application represents the application logic interface.
type Application interface {
	Run(ctx context.Context, target string, opts app.RunOptions) error
	Tasks(ctx context.Context, buildfile string) error
	Plan(ctx context.Context, buildfile, target string) error
	Clean(ctx context.Context, opts app.CleanOptions) error
}

// Defaults are the flag values used when a flag is not given, normally
// taken from the user's settings file.
type Defaults struct {
	Buildfile string
	LogFile   string
	JarCache  string
	Output    string
}

func (d Defaults) withFallbacks() Defaults {
	if d.Buildfile == "" {
		d.Buildfile = "bild.yaml"
	}
	if d.LogFile == "" {
		d.LogFile = "bild.log"
	}
	if d.Output == "" {
		d.Output = "auto"
	}
	return d
}

// New creates a new CLI instance with the given app.
func New(a Application, defaults Defaults) *CLI {
	c := &CLI{
		app:      a,
		defaults: defaults.withFallbacks(),
	}

	rootCmd := &cobra.Command{
		Use:   "bild [task]",
		Short: "A declarative build orchestrator",
		Long: "bild runs the tasks declared in a buildfile, each at most once per invocation,\n" +
			"after their prerequisites. Without a task it builds \"all\".",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
		RunE:          c.runBuild,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if err := detector.ValidateMode(c.output); err != nil {
				return err
			}
			if c.logFormat != nil {
				c.logFormat.SetJSON(c.json)
			}
			return nil
		},
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&c.buildfile, "file", "f", c.defaults.Buildfile, "Path to the buildfile")
	flags.StringVar(&c.logFile, "log-file", c.defaults.LogFile, "Path to the build log")
	flags.StringVarP(&c.output, "output", "o", c.defaults.Output, "Output mode: auto, linear, ci or quiet")
	flags.BoolVar(&c.json, "json", false, "Log diagnostics as JSON")

	c.rootCmd = rootCmd

	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newTasksCmd())
	rootCmd.AddCommand(c.newPlanCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetLogFormatter installs the logger the --json flag switches.
func (c *CLI) SetLogFormatter(f LogFormatter) {
	c.logFormat = f
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

func (c *CLI) runOptions() app.RunOptions {
	return app.RunOptions{
		Buildfile: c.buildfile,
		LogFile:   c.logFile,
		Output:    c.output,
	}
}

func (c *CLI) runBuild(cmd *cobra.Command, args []string) error {
	var target string
	if len(args) > 0 {
		target = args[0]
	}
	return c.app.Run(cmd.Context(), target, c.runOptions())
}
