package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/funvibe/specnode/internal/dispatch"
	"github.com/funvibe/specnode/internal/prettyprinter"
	specnode "github.com/funvibe/specnode/pkg/embed"
)

func newRunCmd(a *app) *cobra.Command {
	var calls []string
	var trace bool
	cmd := &cobra.Command{
		Use:   "run <manifest> <operation> [arg...]",
		Short: "Execute an operation through one dispatch node",
		Long: `Executes the operation once with the positional arguments, then once per
--call (comma-separated arguments), all through the same node, and prints
the node's final shape.

Arguments are read as Int, BigInt, Double, Bool or String; quote a value
to force a string.`,
		Example: `  specnode run ops.yaml plus 1 2
  specnode run ops.yaml plus --call 1,2 --call 1.5,2 --call '"a","b"'`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var argLists [][]any
			if len(args) > 2 {
				argLists = append(argLists, parseArgs(args[2:]))
			}
			for _, c := range calls {
				argLists = append(argLists, parseArgs(splitCall(c)))
			}
			if len(argLists) == 0 {
				return fmt.Errorf("no arguments: pass them after the operation or with --call")
			}

			engine := specnode.New(specnode.WithConfig(a.config), specnode.WithLogger(a.logger))
			if err := engine.LoadFile(args[0]); err != nil {
				return err
			}
			node, err := engine.NewNode(args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if trace {
				node.Observe(func(e dispatch.ChangeEvent) {
					fmt.Fprintln(out, e.Render())
				})
			}
			for _, call := range argLists {
				result, err := node.Execute(cmd.Context(), call...)
				if err != nil {
					fmt.Fprintf(out, "%s%s %s\n", args[1], formatCall(call), a.paint(colorRed, err.Error()))
					continue
				}
				fmt.Fprintf(out, "%s%s = %v\n", args[1], formatCall(call), result)
			}
			fmt.Fprint(out, prettyprinter.Node(node))
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&calls, "call", nil, "Comma-separated arguments of one more call")
	cmd.Flags().BoolVar(&trace, "trace", false, "Print every specialization change")
	return cmd
}

func formatCall(args []any) string {
	parts := make([]string, len(args))
	for i, v := range args {
		if s, ok := v.(string); ok {
			parts[i] = fmt.Sprintf("%q", s)
		} else {
			parts[i] = fmt.Sprint(v)
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
