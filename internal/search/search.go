// Package search implements recipe-tree text search and metadata
// pretty-print, plus the informational topological graph listing (never
// consulted by the core build path).
package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fcanata061/pbuild/internal/recipe"
	"github.com/fcanata061/pbuild/internal/registry"
)

// Hit is one search match.
type Hit struct {
	Name      string
	Path      string
	Installed bool
}

// Search walks repoRoot for "*.pbuild" files whose basename contains term
// (case-insensitive), marking each as installed or not.
func Search(repoRoot, term string, reg *registry.Registry) ([]Hit, error) {
	term = strings.ToLower(term)
	var hits []Hit
	err := recipe.WalkAll(repoRoot, func(path string) error {
		base := strings.TrimSuffix(pathBase(path), ".pbuild")
		if strings.Contains(strings.ToLower(base), term) {
			hits = append(hits, Hit{
				Name:      base,
				Path:      path,
				Installed: reg.Has(base),
			})
		}
		return nil
	})
	sort.Slice(hits, func(i, j int) bool { return hits[i].Name < hits[j].Name })
	return hits, err
}

func pathBase(p string) string {
	i := strings.LastIndexByte(p, '/')
	if i < 0 {
		return p
	}
	return p[i+1:]
}

// Info formats a recipe's metadata for the "info" command.
func Info(r *recipe.Recipe, installed bool) string {
	mark := "[ ]"
	if installed {
		mark = "[x]"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s\n", mark, r.Name, r.Version)
	if r.Description != "" {
		fmt.Fprintln(&b, r.Description)
	}
	fmt.Fprintf(&b, "Source: %s %s\n", r.VCS, r.SourceURL)
	if len(r.Deps) > 0 {
		fmt.Fprintf(&b, "Deps: %s\n", strings.Join(r.Deps, ", "))
	}
	return b.String()
}

// Graph returns target's dependencies in build order. Informational only:
// the core build pipeline performs no graph resolution on its own — this
// exists solely for "pbuild graph <pkg>" reporting and the opt-in
// --with-deps CLI convenience.
func Graph(repoRoot, target string) ([]string, error) {
	seen := map[string]bool{}
	var order []string
	var dfs func(string) error
	dfs = func(name string) error {
		if seen[name] {
			return nil
		}
		seen[name] = true
		path, err := recipe.FindByName(repoRoot, name)
		if err != nil {
			return err
		}
		r, err := recipe.Parse(path)
		if err != nil {
			return err
		}
		for _, d := range r.Deps {
			if err := dfs(d); err != nil {
				return err
			}
		}
		order = append(order, name)
		return nil
	}
	if err := dfs(target); err != nil {
		return nil, err
	}
	return order, nil
}

// List returns every installed package name, sorted.
func List(reg *registry.Registry) ([]string, error) {
	return reg.Keys()
}
