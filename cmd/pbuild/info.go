package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fcanata061/pbuild/internal/pkgerrors"
	"github.com/fcanata061/pbuild/internal/recipe"
	"github.com/fcanata061/pbuild/internal/registry"
	"github.com/fcanata061/pbuild/internal/search"
)

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <pkg>",
		Short: "pretty-print a recipe's metadata and installed status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			path, err := recipe.FindByName(cfg.Repo, args[0])
			if err != nil {
				return pkgerrors.New(pkgerrors.UnknownPackageOnInfo, args[0])
			}
			r, err := recipe.Parse(path)
			if err != nil {
				return err
			}
			reg, err := registry.Open(cfg.Registro)
			if err != nil {
				return err
			}
			fmt.Fprint(os.Stdout, search.Info(r, reg.Has(r.Name)))
			return nil
		},
	}
	return cmd
}
