package main

import (
	"os"

	"github.com/cottand/jinfer/cmd"
	"github.com/spf13/cobra"
)

func main() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "jinfer [subcommand]",
	Short:        "jinfer\n Java 8 generic method type inference (JLS 18), driven by scenario files",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(cmd.InferCmd)
	rootCmd.AddCommand(cmd.LubCmd)
}
