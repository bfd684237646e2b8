package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/platformbuilds/jitdirectives/internal/noise"
	"github.com/platformbuilds/jitdirectives/internal/signature"
)

func newParseCmd() *cobra.Command {
	var private bool
	cmd := &cobra.Command{
		Use:   "parse <signature>...",
		Short: "Show how raw method signatures are parsed and filtered",
		Example: `  jitdirectives parse 'System.Collections.Generic.List` + "`" + `1[System.__Canon]..ctor(System.Int32)'
  jitdirectives parse --private 'System.Linq.Enumerable.Where[System.__Canon](System.Func` + "`" + `2)'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := noise.New()
			out := cmd.OutOrStdout()
			for _, raw := range args {
				id := signature.Parse(raw)
				keep, reason := filter.Check(id, id.TypeName, noise.Access(private))
				_, generics := signature.SplitGenericGroup(id.MethodName)

				verdict := "keep"
				if !keep {
					verdict = "drop (" + string(reason) + ")"
				}
				fmt.Fprintln(out, raw)
				fmt.Fprintf(out, "  type:     %s\n", id.TypeName)
				fmt.Fprintf(out, "  method:   %s\n", id.MethodName)
				fmt.Fprintf(out, "  params:   %s\n", id.ParameterText)
				fmt.Fprintf(out, "  generics: %s\n", strings.Join(generics, ", "))
				fmt.Fprintf(out, "  verdict:  %s\n", verdict)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&private, "private", false, "evaluate the filter as for a private method")
	return cmd
}
