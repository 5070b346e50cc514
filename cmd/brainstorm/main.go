package main

import (
	"fmt"
	"os"

	clay "github.com/go-go-golems/clay/pkg"
	"github.com/go-go-golems/brainstorm/cmd/brainstorm/cmds"
	"github.com/go-go-golems/glazed/pkg/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "brainstorm",
	Short: "brainstorm lets two LLM agents debate a problem and writes up their proposal",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// reinitialize the logger because we can now parse --log-level and co
		// from the command line flag
		err := clay.InitLogger()
		cobra.CheckErr(err)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	err := clay.InitViper("brainstorm", rootCmd)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error initializing config: %s\n", err)
		os.Exit(1)
	}
	err = clay.InitLogger()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error initializing logger: %s\n", err)
		os.Exit(1)
	}

	runCmd, err := cmds.NewRunCommand()
	cobra.CheckErr(err)
	command, err := cli.BuildCobraCommand(runCmd,
		cli.WithCobraMiddlewaresFunc(cmds.GetBrainstormMiddlewares),
	)
	cobra.CheckErr(err)
	rootCmd.AddCommand(command)

	cmds.RegisterTokenCommands(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cmds.ExitCode(err))
	}
}
