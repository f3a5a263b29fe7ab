package cmd

import (
	"fmt"

	"github.com/cottand/jinfer/frontend/lookup"
	"github.com/cottand/jinfer/frontend/scenario"
	"github.com/cottand/jinfer/frontend/types"
	"github.com/spf13/cobra"
)

var LubCmd = &cobra.Command{
	Use:          "lub type...",
	Short:        "Print the least upper bound and greatest lower bound of well-known Java types",
	RunE:         runLub,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

func init() {
	LubCmd.Flags().AddFlagSet(InferCmd.PersistentFlags())
}

func runLub(cmd *cobra.Command, args []string) error {
	setupLogging()
	env := lookup.NewEnvironment(types.NewTypeSystem())
	parsed, err := scenario.ParseTypes(env, args...)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if lub := env.LUB(parsed...); lub != nil {
		_, _ = fmt.Fprintf(out, "lub: %s\n", lub)
	} else {
		_, _ = fmt.Fprintln(out, "lub: none")
	}
	if glb := env.GLB(parsed...); glb != nil {
		_, _ = fmt.Fprintf(out, "glb: %s\n", glb)
	} else {
		_, _ = fmt.Fprintln(out, "glb: none")
	}
	return nil
}
