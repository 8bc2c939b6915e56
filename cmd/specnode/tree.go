package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/funvibe/specnode/internal/backend"
	"github.com/funvibe/specnode/internal/manifest"
	"github.com/funvibe/specnode/internal/pipeline"
)

func newTreeCmd(a *app) *cobra.Command {
	var backendName, operation string
	cmd := &cobra.Command{
		Use:   "tree [manifest]",
		Short: "Print the dispatch code of the manifest's operations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := backend.ByName(backendName)
			if err != nil {
				return err
			}
			path, err := a.manifestPath(args)
			if err != nil {
				return err
			}

			ctx := a.newContext(path)
			ctx = pipeline.Build(manifest.NewProcessor(nil), backend.NewEmitProcessor(b)).Run(ctx)
			out := cmd.OutOrStdout()
			for _, err := range ctx.Errors {
				fmt.Fprintln(cmd.ErrOrStderr(), a.paint(colorRed, err.Error()))
			}

			found := false
			for _, r := range ctx.Results {
				if operation != "" && r.Operation.Name != operation {
					continue
				}
				found = true
				if code, ok := r.Emitted[b.Name()]; ok {
					fmt.Fprintln(out, code)
				}
			}
			if operation != "" && !found {
				return fmt.Errorf("unknown operation %q", operation)
			}
			if len(ctx.Errors) > 0 {
				return errCheckFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&backendName, "backend", "b", backend.TreeName, "Backend: linear or tree")
	cmd.Flags().StringVarP(&operation, "op", "o", "", "Only this operation")
	return cmd
}
