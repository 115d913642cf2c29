// Command pbuild is the CLI front end for the core build-and-install
// pipeline and installed-package registry. Argument parsing, help text,
// and flag routing live here and nowhere else; every other package stays
// free of cobra, and only internal/config touches pflag (to bind the flag
// set into its Config).
package main

import (
	"fmt"
	"os"

	"github.com/fcanata061/pbuild/internal/pkgerrors"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(pkgerrors.ExitCode(err))
	}
}
