package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fcanata061/pbuild/internal/install"
	"github.com/fcanata061/pbuild/internal/pkgerrors"
	"github.com/fcanata061/pbuild/internal/registry"
)

func newInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install <archive>",
		Short: "install a PackageArchive onto / and record its manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			archivePath := args[0]
			name, version, codec, err := parseArchiveName(archivePath)
			if err != nil {
				return err
			}

			reg, err := registry.Open(cfg.Registro)
			if err != nil {
				return err
			}

			if err := install.Install(context.Background(), reg, install.Options{
				ArchivePath: archivePath,
				Codec:       codec,
				Name:        name,
				Version:     version,
				Root:        "/",
				Strip:       cfg.Strip,
				Jobs:        cfg.Jobs,
			}); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "[ok] %s-%s installed from %s\n", name, version, archivePath)
			return nil
		},
	}
	return cmd
}

// parseArchiveName splits "{name}-{version}.tar.{codec}", the canonical
// package archive path convention.
func parseArchiveName(path string) (name, version, codec string, err error) {
	base := filepath.Base(path)
	for _, c := range []string{"xz", "gz", "bz2"} {
		suffix := ".tar." + c
		if strings.HasSuffix(base, suffix) {
			stem := strings.TrimSuffix(base, suffix)
			idx := strings.LastIndex(stem, "-")
			if idx < 0 {
				return "", "", "", pkgerrors.New(pkgerrors.UnsupportedArchive, path)
			}
			return stem[:idx], stem[idx+1:], c, nil
		}
	}
	return "", "", "", pkgerrors.New(pkgerrors.UnsupportedArchive, path)
}
