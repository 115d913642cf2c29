package recipe

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// WalkAll visits every "*.pbuild" file under root in lexicographic order.
func WalkAll(root string, visit func(path string) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".pbuild") {
			return nil
		}
		return visit(path)
	})
}

// walkRecipes visits every file under root in lexicographic order, calling
// visit(path) for each; visit returns true to stop the walk early.
func walkRecipes(root string, visit func(path string) bool) error {
	stop := false
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if stop {
			return filepath.SkipAll
		}
		if d.IsDir() {
			return nil
		}
		if visit(path) {
			stop = true
		}
		return nil
	})
	return err
}
