// Package pipeline composes provisioning, building, packaging, and
// installation into a single pure function from (Recipe, BuildContext) to
// Registry writes, so the revdep engine can re-drive a build for recovery
// without any re-entrancy concerns: it shares no mutable state with revdep
// beyond the Registry itself.
package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/fcanata061/pbuild/internal/archive"
	"github.com/fcanata061/pbuild/internal/build"
	"github.com/fcanata061/pbuild/internal/config"
	"github.com/fcanata061/pbuild/internal/install"
	"github.com/fcanata061/pbuild/internal/logging"
	"github.com/fcanata061/pbuild/internal/pkgerrors"
	"github.com/fcanata061/pbuild/internal/provision"
	"github.com/fcanata061/pbuild/internal/recipe"
	"github.com/fcanata061/pbuild/internal/registry"
)

// Options tailor one run of the pipeline.
type Options struct {
	ForceRefresh    bool // discard the work tree and re-extract; an already-downloaded HTTP archive is reused
	PermissiveCheck bool
	Root            string // normally "/"
	Log             *logging.Invocation
	Out             io.Writer
}

// BuildAndInstall drives fetch->verify->extract->patch->build->check->
// install->package->install-onto-root->manifest, in that order, and
// returns the package archive path it produced.
func BuildAndInstall(ctx context.Context, cfg *config.Config, reg *registry.Registry, r *recipe.Recipe, opts Options) (string, error) {
	workDir := filepath.Join(cfg.TmpRoot, "build", r.Name+"-"+r.Version)
	if opts.ForceRefresh {
		_ = os.RemoveAll(workDir)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.BuildFailed, workDir, err)
	}

	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	if opts.Log != nil {
		out = opts.Log.TeeWriter(out)
	}

	prov := provision.New(cfg.Sources, opts.Log)
	srcResult, err := prov.Provision(ctx, r, workDir, opts.ForceRefresh)
	if err != nil {
		return "", err
	}

	stageRoot := filepath.Join(workDir, "destdir")
	bc := &build.Context{
		Recipe:          r,
		SourceTop:       srcResult.SourceTop,
		StageRoot:       stageRoot,
		Jobs:            cfg.Jobs,
		Strip:           cfg.Strip,
		Out:             out,
		Log:             opts.Log,
		PermissiveCheck: opts.PermissiveCheck,
	}
	if _, err := build.Run(ctx, bc); err != nil {
		return "", err
	}

	codec := cfg.Compression
	pkgPath := archive.PackagePath(cfg.PkgOut, r.Name, r.Version, codec)
	if err := (archive.Default{}).Compress(ctx, stageRoot, pkgPath, codec); err != nil {
		return "", err
	}
	if opts.Log != nil {
		opts.Log.Infof("[package] %s", pkgPath)
	}

	root := opts.Root
	if root == "" {
		root = "/"
	}
	instOpts := install.Options{
		ArchivePath: pkgPath,
		Codec:       codec,
		Name:        r.Name,
		Version:     r.Version,
		RecipePath:  r.Path,
		Strip:       cfg.Strip,
		Jobs:        cfg.Jobs,
		Root:        root,
	}
	if err := install.Install(ctx, reg, instOpts); err != nil {
		return "", err
	}
	if opts.Log != nil {
		opts.Log.Infof("[install] %s-%s installed", r.Name, r.Version)
	}

	return pkgPath, nil
}
