// Package build implements the build driver: the
// Configured -> Built -> Tested -> Staged state machine.
package build

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/fcanata061/pbuild/internal/logging"
	"github.com/fcanata061/pbuild/internal/pkgerrors"
	"github.com/fcanata061/pbuild/internal/recipe"
	"github.com/fcanata061/pbuild/internal/shell"
)

// Context is the per-invocation BuildContext: the parsed Recipe plus the
// paths and settings a build needs, threaded explicitly so no component
// has to read process-global configuration itself.
type Context struct {
	Recipe      *recipe.Recipe
	SourceTop   string // {source_top}; Run adds build_subdir to get the working directory
	StageRoot   string // per-build DESTDIR
	Jobs        int
	Strip       bool
	Out         io.Writer // tee'd terminal+log writer
	Log         *logging.Invocation
	PermissiveCheck bool // if true, a failing check_cmd is a warning, not fatal
}

// State is the build driver's current stage.
type State int

const (
	Configured State = iota
	Built
	Tested
	Staged
)

// PreInstallAnchor is a timestamp recorded immediately before the install
// step runs, so callers can reason about what changed after it.
type PreInstallAnchor struct {
	At time.Time
}

// Run drives the full Configured->Staged pipeline and returns the
// pre-install anchor, for callers that need it (pipeline.BuildAndInstall
// discards it; the Installer does not take it).
func Run(ctx context.Context, bc *Context) (*PreInstallAnchor, error) {
	workdir := filepath.Join(bc.SourceTop, bc.Recipe.BuildSubdir)
	env := bc.environment()

	if strings.TrimSpace(bc.Recipe.BuildCmd) != "" {
		if err := runPhase(ctx, "build", bc.Recipe.BuildCmd, env, workdir, bc); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.BuildFailed, bc.logPathHint(), err)
		}
	}

	if strings.TrimSpace(bc.Recipe.CheckCmd) != "" {
		if err := runPhase(ctx, "check", bc.Recipe.CheckCmd, env, workdir, bc); err != nil {
			kind := pkgerrors.TestFailed
			if bc.PermissiveCheck {
				if bc.Log != nil {
					bc.Log.Warnf("check_cmd failed (permissive mode): %v", err)
				}
			} else {
				return nil, pkgerrors.Wrap(kind, bc.logPathHint(), err)
			}
		}
	}

	anchor := &PreInstallAnchor{At: time.Now().UTC()}

	installEnv := bc.environment()
	installEnv["DESTDIR"] = bc.StageRoot
	if err := os.MkdirAll(bc.StageRoot, 0o755); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.InstallFailed, bc.StageRoot, err)
	}
	if err := runPhaseShimmed(ctx, bc.Recipe.InstallCmd, installEnv, workdir, bc); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.InstallFailed, bc.logPathHint(), err)
	}

	if bc.Strip {
		warnings := StripTree(ctx, bc.StageRoot)
		for _, w := range warnings {
			if bc.Log != nil {
				bc.Log.Warnf("strip: %v", w)
			}
		}
	}

	return anchor, nil
}

func (bc *Context) environment() map[string]string {
	env := map[string]string{
		"MAKEFLAGS": computeMakeflags(bc.Recipe.ExtraMakeFlags, bc.Jobs),
	}
	for k, v := range bc.Recipe.Env {
		env[k] = v
	}
	return env
}

// computeMakeflags starts from inherited MAKEFLAGS, then appends
// extra_make_flags if any, else falls back to "-jN" if neither was
// otherwise specified.
func computeMakeflags(extra string, jobs int) string {
	inherited := os.Getenv("MAKEFLAGS")
	parts := []string{}
	if inherited != "" {
		parts = append(parts, inherited)
	}
	if extra != "" {
		parts = append(parts, extra)
	} else if inherited == "" {
		parts = append(parts, fmt.Sprintf("-j%d", jobs))
	}
	return strings.Join(parts, " ")
}

func (bc *Context) logPathHint() string {
	if bc.Log != nil {
		return bc.Log.Path
	}
	return ""
}

func runPhase(ctx context.Context, label, cmdStr string, env map[string]string, workdir string, bc *Context) error {
	if bc.Log != nil {
		bc.Log.Infof("[%s] %s-%s", label, bc.Recipe.Name, bc.Recipe.Version)
	}
	return shell.Run(ctx, cmdStr, env, workdir, bc.Out)
}

// runPhaseShimmed wraps the install phase with a fakeroot-style
// privilege-emulation shim if one is on $PATH, so the tarball preserves
// plausible root ownership without requiring root to build. The shim
// wraps only install_cmd, never build/check.
func runPhaseShimmed(ctx context.Context, cmdStr string, env map[string]string, workdir string, bc *Context) error {
	if bc.Log != nil {
		bc.Log.Infof("[install] %s-%s", bc.Recipe.Name, bc.Recipe.Version)
	}
	var prefix []string
	if path, err := exec.LookPath("fakeroot"); err == nil {
		prefix = []string{path}
	} else if bc.Log != nil {
		bc.Log.Warnf("fakeroot not found on PATH, installing unwrapped")
	}
	return shell.RunWith(ctx, prefix, cmdStr, env, workdir, bc.Out)
}

// StripTree walks root and strips unneeded symbols from every ELF file
// that is executable or matches a shared-object name pattern. Failures
// are collected per-file as non-fatal warnings.
func StripTree(ctx context.Context, root string) []error {
	stripPath, err := exec.LookPath("strip")
	if err != nil {
		return []error{fmt.Errorf("strip not found on PATH, skipping")}
	}
	var warnings []error
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if !looksStrippable(path, info) {
			return nil
		}
		if !isELF(path) {
			return nil
		}
		cmd := exec.CommandContext(ctx, stripPath, "--strip-unneeded", path)
		if out, err := cmd.CombinedOutput(); err != nil {
			warnings = append(warnings, fmt.Errorf("%s: %v: %s", path, err, out))
		}
		return nil
	})
	return warnings
}

func looksStrippable(path string, info fs.FileInfo) bool {
	if !info.Mode().IsRegular() {
		return false
	}
	if info.Mode().Perm()&0o111 != 0 {
		return true
	}
	base := filepath.Base(path)
	return strings.Contains(base, ".so")
}

func isELF(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	var magic [4]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil {
		return false
	}
	return magic == [4]byte{0x7f, 'E', 'L', 'F'}
}
