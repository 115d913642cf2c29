package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fcanata061/pbuild/internal/hooks"
	"github.com/fcanata061/pbuild/internal/remove"
	"github.com/fcanata061/pbuild/internal/registry"
)

func newRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "remove an installed package using its manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			reg, err := registry.Open(cfg.Registro)
			if err != nil {
				return err
			}
			sink := hooks.Dir{Root: cfg.Hooks}

			res, err := remove.Remove(reg, args[0], sink)
			if err != nil {
				return err
			}
			for _, w := range res.Warnings {
				fmt.Fprintf(os.Stderr, "warning: %s: %v\n", w.Path, w.Err)
			}
			fmt.Fprintf(os.Stdout, "[ok] removed %s (%d files)\n", args[0], len(res.RemovedFiles))
			return nil
		},
	}
	return cmd
}
