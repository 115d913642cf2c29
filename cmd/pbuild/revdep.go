package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fcanata061/pbuild/internal/logging"
	"github.com/fcanata061/pbuild/internal/registry"
	"github.com/fcanata061/pbuild/internal/revdep"
)

func newRevdepCmd() *cobra.Command {
	var fix bool
	var ldPathFlag string

	cmd := &cobra.Command{
		Use:   "revdep",
		Short: "scan ELF artifacts for missing shared libraries, optionally repair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			reg, err := registry.Open(cfg.Registro)
			if err != nil {
				return err
			}

			ldPath := splitLdPath(ldPathFlag)
			result, err := revdep.Check("/", ldPath)
			if err != nil {
				return err
			}
			if len(result.MissingSonames) == 0 {
				fmt.Fprintln(os.Stdout, "revdep: no missing shared libraries")
				return nil
			}
			for _, s := range result.MissingSonames {
				fmt.Fprintf(os.Stdout, "missing: %s (needed by %d file(s))\n", s, len(result.ReportedBy[s]))
			}

			if !fix {
				return nil
			}

			log, err := logging.Open(cfg.TmpRoot, "revdep")
			if err != nil {
				return err
			}
			defer log.Close()

			outcomes := revdep.Fix(context.Background(), cfg, reg, result.MissingSonames, log, os.Stdout)
			for _, oc := range outcomes {
				switch {
				case oc.Err != nil:
					fmt.Fprintf(os.Stderr, "fix %s: %v\n", oc.Soname, oc.Err)
				case oc.Owner == "":
					fmt.Fprintf(os.Stderr, "fix %s: no owning package found\n", oc.Soname)
				case oc.Rebuilt:
					fmt.Fprintf(os.Stdout, "fix %s: rebuilt %s\n", oc.Soname, oc.Owner)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "rebuild the owning package for each missing library")
	cmd.Flags().StringVar(&ldPathFlag, "ldpath", os.Getenv("LFSPKG_LDPATH"), "colon-separated library search path")
	return cmd
}

func splitLdPath(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}
