package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/funvibe/specnode/internal/manifest"
	"github.com/funvibe/specnode/internal/pipeline"
)

var errCheckFailed = errors.New("check failed")

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check [manifest...]",
		Short: "Resolve every operation of the manifests and report diagnostics",
		Long: `Resolves and groups every operation. Without arguments the nearest
specnode.yaml is checked. Exits non-zero when any diagnostic is reported.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := args
			if len(paths) == 0 {
				path, err := a.manifestPath(nil)
				if err != nil {
					return err
				}
				paths = []string{path}
			}

			failed := false
			for _, path := range paths {
				if !a.check(cmd, path) {
					failed = true
				}
			}
			if failed {
				return errCheckFailed
			}
			return nil
		},
	}
}

// check runs the front-end, resolver and grouping over one manifest.
func (a *app) check(cmd *cobra.Command, path string) bool {
	out := cmd.OutOrStdout()
	ctx := a.newContext(path)
	ctx = pipeline.Build(manifest.NewProcessor(nil)).Run(ctx)

	for _, err := range ctx.Errors {
		fmt.Fprintln(out, a.paint(colorRed, err.Error()))
	}
	for _, r := range ctx.Results {
		if r.Failed() {
			continue
		}
		fmt.Fprintf(out, "%s %s: %s (predicted %d, bound %d)\n",
			a.paint(colorGreen, "OK"), r.Operation.Name,
			strings.Join(r.Resolution.IDs(), " < "),
			r.Resolution.PredictedShapes, r.Resolution.DepthBound)
	}
	return len(ctx.Errors) == 0
}

func (a *app) newContext(path string) *pipeline.PipelineContext {
	ctx := pipeline.NewPipelineContext(nil)
	ctx.FilePath = path
	ctx.Config = a.config
	ctx.Logger = a.logger
	return ctx
}
