// Package hooks is the external hook-sink collaborator the Remover emits a
// RemovedEvent to. Hook discovery/execution is itself out of core scope;
// this package is the narrow interface plus one concrete default adapter.
package hooks

import (
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/fcanata061/pbuild/internal/pkgerrors"
)

// RemovedEvent is emitted after a package's files and registry records
// have been removed.
type RemovedEvent struct {
	Name string
}

// Sink consumes RemovedEvents. A hook failure is a warning (HookFailed),
// never fatal.
type Sink interface {
	Emit(ev RemovedEvent) error
}

// Dir runs every executable file directly under "<Root>/remove.d/" with
// the removed package's name as $1: arbitrary executables run after
// removal, discovered and ordered lexicographically.
type Dir struct {
	Root string
}

func (d Dir) Emit(ev RemovedEvent) error {
	if d.Root == "" {
		return nil
	}
	dir := filepath.Join(d.Root, "remove.d")
	ents, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.HookFailed, dir, err)
	}

	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var firstErr error
	for _, n := range names {
		path := filepath.Join(dir, n)
		info, err := os.Stat(path)
		if err != nil || info.Mode()&0o111 == 0 {
			continue
		}
		cmd := exec.Command(path, ev.Name)
		if err := cmd.Run(); err != nil && firstErr == nil {
			firstErr = pkgerrors.Wrap(pkgerrors.HookFailed, path, err)
		}
	}
	return firstErr
}
