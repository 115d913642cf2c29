// Package provision implements source provisioning: fetch, verify,
// extract, and patch a recipe's source into a work tree.
package provision

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/fcanata061/pbuild/internal/archive"
	"github.com/fcanata061/pbuild/internal/checksum"
	"github.com/fcanata061/pbuild/internal/fetch"
	"github.com/fcanata061/pbuild/internal/logging"
	"github.com/fcanata061/pbuild/internal/pkgerrors"
	"github.com/fcanata061/pbuild/internal/recipe"
)

// Provisioner drives fetch+verify+extract+patch for one recipe.
type Provisioner struct {
	SourcesCache string
	Extractor    archive.Extractor
	Verifier     checksum.Verifier
	HTTP         *fetch.HTTP
	Git          fetch.Git
	Log          *logging.Invocation
}

func New(sourcesCache string, log *logging.Invocation) *Provisioner {
	return &Provisioner{
		SourcesCache: sourcesCache,
		Extractor:    archive.Default{},
		Verifier:     checksum.SHA256{},
		HTTP:         fetch.NewHTTP(),
		Log:          log,
	}
}

// Result is the resolved source location after provisioning.
type Result struct {
	SourceTop string // {work}/src/{source_dir}
}

var doubleExtRe = regexp.MustCompile(`\.(tar\.(gz|bz2|xz|zst)|tgz|tbz2|txz|zip)$`)

// Provision ensures r's source tree is present under workDir/src/<source_dir>
// with every patch applied: acquire, verify, extract, patch.
func (p *Provisioner) Provision(ctx context.Context, r *recipe.Recipe, workDir string, forceRefresh bool) (*Result, error) {
	srcRoot := filepath.Join(workDir, "src")
	if err := os.MkdirAll(srcRoot, 0o755); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.FetchFailed, srcRoot, err)
	}

	archivePath, err := p.acquire(ctx, r)
	if err != nil {
		return nil, err
	}

	if r.Checksum != "" {
		ok, err := p.Verifier.Verify(archivePath, r.Checksum)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.ChecksumMismatch, archivePath, err)
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.ChecksumMismatch, archivePath)
		}
	}

	sourceDir := r.SourceDir
	if sourceDir == "" {
		sourceDir = deduceSourceDir(archivePath, r.VCS)
	}
	sourceTop := filepath.Join(srcRoot, sourceDir)

	if forceRefresh {
		_ = os.RemoveAll(sourceTop)
	}
	extracted := false
	if _, err := os.Stat(sourceTop); err != nil || forceRefresh {
		if err := p.Extractor.Extract(ctx, archivePath, srcRoot); err != nil {
			return nil, err
		}
		extracted = true
	}

	// A reused tree was patched when it was extracted.
	if extracted {
		for _, patch := range r.Patches {
			if err := p.applyPatch(ctx, patch, sourceTop); err != nil {
				return nil, err
			}
		}
	}

	return &Result{SourceTop: sourceTop}, nil
}

func (p *Provisioner) acquire(ctx context.Context, r *recipe.Recipe) (string, error) {
	if r.VCS == recipe.VCSGit {
		scratch := filepath.Join(p.SourcesCache, "git", r.Name+"-"+r.Version)
		if err := p.Git.Clone(ctx, r.SourceURL, r.VCSBranch, scratch); err != nil {
			return "", err
		}
		archivePath := filepath.Join(p.SourcesCache, r.Name+"-"+r.Version+".tar")
		if err := p.Git.Archive(ctx, scratch, archivePath); err != nil {
			return "", err
		}
		return archivePath, nil
	}

	if p.Log != nil {
		p.Log.Infof("fetch %s", r.SourceURL)
	}
	return p.HTTP.Fetch(ctx, r.SourceURL, p.SourcesCache)
}

// deduceSourceDir is the basename of the URL with its outermost two
// extensions stripped. For a git-produced archive, the basename is
// already "<name>-<version>" with a single ".tar" extension, so only that
// suffix is trimmed (the regex does not match a bare ".tar").
func deduceSourceDir(archivePath string, vcs recipe.VCS) string {
	base := filepath.Base(archivePath)
	if vcs == recipe.VCSGit {
		return strings.TrimSuffix(base, ".tar")
	}
	return doubleExtRe.ReplaceAllString(base, "")
}

func (p *Provisioner) applyPatch(ctx context.Context, patchName, sourceTop string) error {
	patchPath := filepath.Join(p.SourcesCache, patchName)
	if _, err := os.Stat(patchPath); err != nil {
		return pkgerrors.New(pkgerrors.PatchFailed, patchName)
	}
	cmd := exec.CommandContext(ctx, "patch", "-p1", "-i", patchPath)
	cmd.Dir = sourceTop
	if out, err := cmd.CombinedOutput(); err != nil {
		if p.Log != nil {
			p.Log.Errorf("patch %s failed: %s", patchName, string(out))
		}
		return pkgerrors.Wrap(pkgerrors.PatchFailed, patchName, fmt.Errorf("%s", out))
	}
	return nil
}
