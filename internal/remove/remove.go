// Package remove reverses the installer's effect using the registered
// manifest, then prunes emptied directories.
package remove

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fcanata061/pbuild/internal/hooks"
	"github.com/fcanata061/pbuild/internal/pkgerrors"
	"github.com/fcanata061/pbuild/internal/registry"
)

// Warning is a non-fatal failure encountered while removing one file or
// pruning one directory.
type Warning struct {
	Path string
	Err  error
}

// Result reports what Remove actually did, for callers that want to show
// or log the non-fatal warnings it collected along the way.
type Result struct {
	RemovedFiles []string
	Warnings     []Warning
}

// Remove deletes every file the registry's manifest for name lists, prunes
// directories left empty, drops the registry records, and emits a
// RemovedEvent to sink. Missing files are warnings, not errors; a partial
// remove is better than a stuck system.
func Remove(reg *registry.Registry, name string, sink hooks.Sink) (*Result, error) {
	if !reg.Has(name) {
		return nil, pkgerrors.New(pkgerrors.UnknownPackage, name)
	}
	paths, err := reg.GetManifest(name)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.UnknownPackage, name)
	}

	res := &Result{}
	dirs := map[string]bool{}

	for _, p := range paths {
		info, statErr := os.Lstat(p)
		if statErr != nil {
			res.Warnings = append(res.Warnings, Warning{Path: p, Err: statErr})
			continue
		}
		if info.Mode().IsRegular() || info.Mode()&os.ModeSymlink != 0 {
			if err := os.Remove(p); err != nil {
				res.Warnings = append(res.Warnings, Warning{Path: p, Err: err})
				continue
			}
			res.RemovedFiles = append(res.RemovedFiles, p)
			dirs[filepath.Dir(p)] = true
		}
	}

	pruneDirectories(dirs, res)

	if err := reg.Drop(name); err != nil {
		return res, pkgerrors.Wrap(pkgerrors.RegistryCorrupt, name, err)
	}

	if sink != nil {
		if err := sink.Emit(hooks.RemovedEvent{Name: name}); err != nil {
			res.Warnings = append(res.Warnings, Warning{Path: "<hook>", Err: err})
		}
	}

	return res, nil
}

// pruneDirectories attempts, in reverse depth order, to remove every
// distinct parent directory of a deleted file, succeeding silently only
// when empty — this never deletes a directory holding another package's
// content, and correctly reaches nested empty directories more than one
// level deep, unlike a single strip-last-component pass.
func pruneDirectories(dirs map[string]bool, res *Result) {
	ordered := make([]string, 0, len(dirs))
	for d := range dirs {
		ordered = append(ordered, d)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return depth(ordered[i]) > depth(ordered[j])
	})

	seen := map[string]bool{}
	for _, d := range ordered {
		pruneUp(d, seen, res)
	}
}

func pruneUp(dir string, seen map[string]bool, res *Result) {
	for {
		if dir == "" || dir == "/" || seen[dir] {
			return
		}
		ents, err := os.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				res.Warnings = append(res.Warnings, Warning{Path: dir, Err: err})
			}
			return
		}
		if len(ents) != 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			res.Warnings = append(res.Warnings, Warning{Path: dir, Err: err})
			return
		}
		seen[dir] = true
		dir = filepath.Dir(dir)
	}
}

func depth(p string) int {
	return strings.Count(filepath.Clean(p), string(filepath.Separator))
}
