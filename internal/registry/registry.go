// Package registry is the on-disk store of per-package metadata and file
// manifests: one "{name}.META" and one "{name}.files" per package under
// the registry directory.
package registry

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fcanata061/pbuild/internal/pkgerrors"
)

// Metadata is the per-package metadata record.
type Metadata struct {
	Name        string
	Version     string
	RecipePath  string
	BuiltAt     time.Time
	Strip       bool
	Jobs        int
}

// Registry is a single-writer, on-disk key/value store keyed by package
// name. Concurrent mutation from multiple invocations is undefined; pbuild
// assumes one invocation touches the registry at a time.
type Registry struct {
	dir string
}

func Open(dir string) (*Registry, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.RegistryCorrupt, dir, err)
	}
	return &Registry{dir: dir}, nil
}

func (r *Registry) metaPath(name string) string     { return filepath.Join(r.dir, name+".META") }
func (r *Registry) filesPath(name string) string    { return filepath.Join(r.dir, name+".files") }

// Has reports whether a metadata record exists for name.
func (r *Registry) Has(name string) bool {
	_, err := os.Stat(r.metaPath(name))
	return err == nil
}

// PutMetadata writes "{name}.META" as key=value lines, one per field.
func (r *Registry) PutMetadata(m Metadata) error {
	lines := []string{
		"name=" + m.Name,
		"version=" + m.Version,
		"recipe_path=" + m.RecipePath,
		"built_at=" + m.BuiltAt.UTC().Format(time.RFC3339),
		"strip=" + strconv.FormatBool(m.Strip),
		"jobs=" + strconv.Itoa(m.Jobs),
	}
	return writeLines(r.metaPath(m.Name), lines)
}

// GetMetadata reads "{name}.META" back into a Metadata record.
func (r *Registry) GetMetadata(name string) (Metadata, error) {
	m := Metadata{Name: name}
	f, err := os.Open(r.metaPath(name))
	if err != nil {
		return m, pkgerrors.New(pkgerrors.UnknownPackage, name)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch k {
		case "name":
			m.Name = v
		case "version":
			m.Version = v
		case "recipe_path":
			m.RecipePath = v
		case "built_at":
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				m.BuiltAt = t
			}
		case "strip":
			m.Strip, _ = strconv.ParseBool(v)
		case "jobs":
			m.Jobs, _ = strconv.Atoi(v)
		}
	}
	return m, sc.Err()
}

// PutManifest writes "{name}.files": a sorted, deduplicated, newline
// separated list of absolute paths.
func (r *Registry) PutManifest(name string, paths []string) error {
	sorted := sortedUnique(paths)
	return writeLines(r.filesPath(name), sorted)
}

// GetManifest reads "{name}.files" back.
func (r *Registry) GetManifest(name string) ([]string, error) {
	f, err := os.Open(r.filesPath(name))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.UnknownPackage, name)
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			out = append(out, line)
		}
	}
	return out, sc.Err()
}

// Drop removes both records for name. Individual removal failures that are
// not "file does not exist" are reported, but a missing file never blocks
// removal of the other record.
func (r *Registry) Drop(name string) error {
	e1 := os.Remove(r.metaPath(name))
	e2 := os.Remove(r.filesPath(name))
	if e1 != nil && !os.IsNotExist(e1) {
		return pkgerrors.Wrap(pkgerrors.RegistryCorrupt, name, e1)
	}
	if e2 != nil && !os.IsNotExist(e2) {
		return pkgerrors.Wrap(pkgerrors.RegistryCorrupt, name, e2)
	}
	return nil
}

// Keys returns every package name with a metadata record, sorted.
func (r *Registry) Keys() ([]string, error) {
	ents, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.RegistryCorrupt, r.dir, err)
	}
	var names []string
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ".META") {
			names = append(names, strings.TrimSuffix(e.Name(), ".META"))
		}
	}
	sort.Strings(names)
	return names, nil
}

// ManifestEntry pairs a package name with its manifest, for IterManifests.
type ManifestEntry struct {
	Name  string
	Paths []string
}

// IterManifests returns every (name, paths) pair in sorted-by-name order,
// the stream revdep consumes for lexicographic tie-breaking.
func (r *Registry) IterManifests() ([]ManifestEntry, error) {
	names, err := r.Keys()
	if err != nil {
		return nil, err
	}
	var out []ManifestEntry
	for _, n := range names {
		paths, err := r.GetManifest(n)
		if err != nil {
			continue // a package with metadata but no manifest is skipped, not fatal
		}
		out = append(out, ManifestEntry{Name: n, Paths: paths})
	}
	return out, nil
}

func sortedUnique(paths []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

func writeLines(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.RegistryCorrupt, path, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return w.Flush()
}
