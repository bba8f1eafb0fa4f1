package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/finnhorvath/cutterd/internal/cutengine"
)

// argumentsCmd prints the render() entry point's recognised options table,
// the CLI surface of the library's arguments() introspection call.
var argumentsCmd = &cobra.Command{
	Use:   "arguments",
	Short: "List the options recognised by the cut engine",
	Run: func(cmd *cobra.Command, args []string) {
		w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
		fmt.Fprintln(w, "SHORT\tLONG\tDEFAULT\tREQUIRED\tDESCRIPTION")
		for _, a := range cutengine.Arguments() {
			fmt.Fprintf(w, "-%s\t--%s\t%s\t%v\t%s\n", a.ShortName, a.LongName, a.Default, a.Required, a.Description)
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(argumentsCmd)
}
