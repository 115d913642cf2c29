package main

import (
	"github.com/spf13/cobra"

	"github.com/fcanata061/pbuild/internal/config"
)

// newRootCmd builds the cobra command tree: one subcommand per top-level
// operation, with the staged build phases kept internal to "build" rather
// than split into separate top-level commands, to keep one state machine.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pbuild",
		Short:         "source-based package manager for LFS-style systems",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("repo", "", "recipe tree root (overrides $REPO)")
	root.PersistentFlags().String("jobs", "", "compile parallelism, or \"auto\" (overrides $JOBS)")
	root.PersistentFlags().String("compression", "", "xz|gz|bz2 (overrides $PKGCOMP)")
	root.PersistentFlags().String("color", "", "auto|always|never (overrides $COLOR)")
	root.PersistentFlags().Bool("strip", false, "strip ELF binaries in the stage root (overrides $STRIP)")

	root.AddCommand(
		newBuildCmd(),
		newInstallCmd(),
		newRemoveCmd(),
		newInfoCmd(),
		newSearchCmd(),
		newRevdepCmd(),
		newListCmd(),
		newGraphCmd(),
	)
	return root
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(cmd.Flags())
}
