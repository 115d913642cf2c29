// Package revdep implements the reverse-dependency engine: check mode scans live
// ELF artifacts for unresolved DT_NEEDED entries, fix mode maps misses back
// to owning packages and re-drives the build pipeline for them.
package revdep

import (
	"debug/elf"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/fcanata061/pbuild/internal/pkgerrors"
	"github.com/fcanata061/pbuild/internal/registry"
)

// CheckResult is the deduplicated output of a check pass.
type CheckResult struct {
	MissingSonames []string            // sorted, deduplicated
	ReportedBy     map[string][]string // soname -> files that reported it
}

// defaultLdPath mirrors /etc/ld.so.conf's baseline search path when
// $LFSPKG_LDPATH is unset. ld.so.cache itself is never parsed; this is a
// deliberately scoped-down model of the dynamic linker.
var defaultLdPath = []string{"/lib", "/usr/lib", "/lib64", "/usr/lib64"}

// Check walks every ELF executable and shared object under root, bounded
// to root's own device (skipping virtual filesystems mounted elsewhere,
// e.g. /proc, /sys), and records any DT_NEEDED soname that fails to
// resolve against DT_RUNPATH/DT_RPATH (with $ORIGIN expansion) and ldPath.
func Check(root string, ldPath []string) (*CheckResult, error) {
	if len(ldPath) == 0 {
		ldPath = defaultLdPath
	}

	var rootDev uint64
	if st, err := os.Stat(root); err == nil {
		if sys, ok := st.Sys().(*syscall.Stat_t); ok {
			rootDev = uint64(sys.Dev)
		}
	}

	result := &CheckResult{ReportedBy: map[string][]string{}}
	missing := map[string]bool{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if crossesDevice(path, rootDev) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		f, openErr := elf.Open(path)
		if openErr != nil {
			return nil // not an ELF file, or unreadable: not our concern
		}
		defer f.Close()

		needed, _ := f.DynString(elf.DT_NEEDED)
		if len(needed) == 0 {
			return nil
		}
		runpath := firstDynString(f, elf.DT_RUNPATH)
		rpath := firstDynString(f, elf.DT_RPATH)
		search := expandSearchPath(append(splitColon(runpath), splitColon(rpath)...), filepath.Dir(path))
		search = append(search, ldPath...)

		for _, soname := range needed {
			if !resolves(soname, search) {
				missing[soname] = true
				result.ReportedBy[soname] = append(result.ReportedBy[soname], path)
			}
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.RegistryCorrupt, root, err)
	}

	for s := range missing {
		result.MissingSonames = append(result.MissingSonames, s)
		sort.Strings(result.ReportedBy[s])
	}
	sort.Strings(result.MissingSonames)
	return result, nil
}

func crossesDevice(path string, rootDev uint64) bool {
	if rootDev == 0 {
		return false
	}
	st, err := os.Stat(path)
	if err != nil {
		return false
	}
	sys, ok := st.Sys().(*syscall.Stat_t)
	if !ok {
		return false
	}
	return uint64(sys.Dev) != rootDev
}

func firstDynString(f *elf.File, tag elf.DynTag) string {
	vals, _ := f.DynString(tag)
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

func splitColon(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ":")
}

func expandSearchPath(paths []string, origin string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, strings.ReplaceAll(p, "$ORIGIN", origin))
	}
	return out
}

func resolves(soname string, search []string) bool {
	for _, dir := range search {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, soname)); err == nil {
			return true
		}
	}
	return false
}

// Owner maps a soname to the package registry key whose manifest contains
// a file with that basename, via first-match lexicographic-by-registry-key
// tie-break: when two packages both ship a file with that name, the one
// sorting first by name wins, deterministically.
func Owner(reg *registry.Registry, soname string) (string, error) {
	entries, err := reg.IterManifests()
	if err != nil {
		return "", err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	for _, e := range entries {
		for _, p := range e.Paths {
			if filepath.Base(p) == soname {
				return e.Name, nil
			}
		}
	}
	return "", nil
}
