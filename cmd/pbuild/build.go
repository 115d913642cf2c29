package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fcanata061/pbuild/internal/logging"
	"github.com/fcanata061/pbuild/internal/pipeline"
	"github.com/fcanata061/pbuild/internal/pkgerrors"
	"github.com/fcanata061/pbuild/internal/recipe"
	"github.com/fcanata061/pbuild/internal/registry"
	"github.com/fcanata061/pbuild/internal/search"
)

func newBuildCmd() *cobra.Command {
	var withDeps bool
	var permissive bool
	var forceRefresh bool

	cmd := &cobra.Command{
		Use:   "build <pkg>",
		Short: "run the full build-and-install pipeline for a recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			name := args[0]

			names := []string{name}
			if withDeps {
				// Ambient CLI convenience: a plain DFS ahead of the core
				// pipeline, never inside it.
				order, err := search.Graph(cfg.Repo, name)
				if err != nil {
					return err
				}
				names = order
			}

			reg, err := registry.Open(cfg.Registro)
			if err != nil {
				return err
			}

			for _, n := range names {
				path, err := recipe.FindByName(cfg.Repo, n)
				if err != nil {
					return err
				}
				r, err := recipe.Parse(path)
				if err != nil {
					return err
				}

				log, err := logging.Open(cfg.TmpRoot, r.Name)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.BuildFailed, r.Name, err)
				}
				defer log.Close()

				fmt.Fprintf(os.Stdout, "[build] %s-%s (log: %s)\n", r.Name, r.Version, log.Path)
				pkgPath, err := pipeline.BuildAndInstall(context.Background(), cfg, reg, r, pipeline.Options{
					ForceRefresh:    forceRefresh,
					PermissiveCheck: permissive,
					Log:             log,
					Out:             os.Stdout,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stdout, "[ok] %s -> %s\n", r.Name, pkgPath)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&withDeps, "with-deps", false, "build Deps first, in topological order (ambient convenience, not core pipeline behavior)")
	cmd.Flags().BoolVar(&permissive, "permissive-check", false, "treat a failing check_cmd as a warning instead of fatal")
	cmd.Flags().BoolVar(&forceRefresh, "rebuild", false, "discard the work tree and re-extract (an already-downloaded source archive is reused)")
	return cmd
}
