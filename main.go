package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/stilt-dev/stilt/cmd"
)

func main() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "stilt [subcommand]",
	Short:        "stilt\n a type-inference engine for Python-flavoured declaration sets",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(cmd.CheckCmd)
}
