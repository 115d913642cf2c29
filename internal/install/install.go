// Package install implements the installer: extract a package archive
// onto "/", derive and persist the file manifest from the archive's table
// of contents, and write the metadata record.
package install

import (
	"context"
	"time"

	"github.com/fcanata061/pbuild/internal/archive"
	"github.com/fcanata061/pbuild/internal/pkgerrors"
	"github.com/fcanata061/pbuild/internal/registry"
)

// Options configures one Install call.
type Options struct {
	ArchivePath string
	Codec       string
	Name        string
	Version     string
	RecipePath  string
	Strip       bool
	Jobs        int
	Root        string // normally "/"; overridable for tests
	Extractor   archive.Extractor
}

// Install extracts archivePath onto opts.Root, then writes both registry
// records. The manifest is derived purely from the archive's table of
// contents: a live-filesystem diff would conflate concurrent work and
// suffer from timestamp granularity, so it is never consulted.
func Install(ctx context.Context, reg *registry.Registry, opts Options) error {
	extractor := opts.Extractor
	if extractor == nil {
		extractor = archive.Default{}
	}

	if err := extractor.Extract(ctx, opts.ArchivePath, opts.Root); err != nil {
		return pkgerrors.Wrap(pkgerrors.InstallFailed, opts.ArchivePath, err)
	}

	files, err := archive.TableOfContents(opts.ArchivePath, opts.Codec)
	if err != nil {
		return err
	}

	if err := reg.PutManifest(opts.Name, files); err != nil {
		return pkgerrors.Wrap(pkgerrors.RegistryCorrupt, opts.Name, err)
	}

	meta := registry.Metadata{
		Name:       opts.Name,
		Version:    opts.Version,
		RecipePath: opts.RecipePath,
		BuiltAt:    time.Now().UTC(),
		Strip:      opts.Strip,
		Jobs:       opts.Jobs,
	}
	if err := reg.PutMetadata(meta); err != nil {
		return pkgerrors.Wrap(pkgerrors.RegistryCorrupt, opts.Name, err)
	}
	return nil
}
