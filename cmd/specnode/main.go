// Command specnode checks operation manifests, prints their dispatch code
// and runs operations through self-specializing nodes.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/funvibe/specnode/internal/config"
	"github.com/funvibe/specnode/internal/manifest"
)

// app holds the state shared by all commands.
type app struct {
	configPath string
	verbose    bool
	limit      int
	color      bool

	config *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "specnode",
		Short: "Specialization compiler and self-rewriting dispatch nodes",
		Long: `specnode resolves the specializations of operations declared in a
manifest, groups them into a decision tree and runs them through nodes that
rewrite themselves as they observe argument types.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Configuration file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Debug logging and shape rendering")
	root.PersistentFlags().IntVar(&a.limit, "limit", 0, "Polymorphic limit (overrides the configuration)")

	root.AddCommand(newCheckCmd(a))
	root.AddCommand(newTreeCmd(a))
	root.AddCommand(newRunCmd(a))
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg := config.Default()
	if a.configPath != "" {
		var err error
		if cfg, err = config.Load(a.configPath); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("limit") {
		cfg.PolymorphicLimit = a.limit
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
		cfg.Diagnostics.Verbose = true
	}
	a.config = cfg

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	a.color = isTerminal(cmd.OutOrStdout())
	return nil
}

// manifestPath returns the manifest argument, or the manifest found from the
// working directory upwards.
func (a *app) manifestPath(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	path, err := manifest.FindManifest(wd)
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", fmt.Errorf("no specnode%s found in %s or its parents", config.ManifestFileExt, wd)
	}
	return path, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

const (
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorReset = "\033[0m"
)

func (a *app) paint(color, s string) string {
	if !a.color {
		return s
	}
	return color + s + colorReset
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
