package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fcanata061/pbuild/internal/registry"
	"github.com/fcanata061/pbuild/internal/search"
)

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <term>",
		Short: "search the recipe tree by name",
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
			hits, err := search.Search(cfg.Repo, args[0], reg)
			if err != nil {
				return err
			}
			if len(hits) == 0 {
				fmt.Fprintf(os.Stderr, "nothing found for %q\n", args[0])
				return nil
			}
			for _, h := range hits {
				mark := "[ ]"
				if h.Installed {
					mark = "[x]"
				}
				fmt.Fprintf(os.Stdout, "%s %s (%s)\n", mark, h.Name, h.Path)
			}
			return nil
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list installed packages",
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
			names, err := search.List(reg)
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintf(os.Stdout, "[x] %s\n", n)
			}
			return nil
		},
	}
}

func newGraphCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "graph <pkg>",
		Short: "print a recipe's dependency build order (informational only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			order, err := search.Graph(cfg.Repo, args[0])
			if err != nil {
				return err
			}
			for i, n := range order {
				if i > 0 {
					fmt.Fprint(os.Stdout, " -> ")
				}
				fmt.Fprint(os.Stdout, n)
			}
			fmt.Fprintln(os.Stdout)
			return nil
		},
	}
}
