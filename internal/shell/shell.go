// Package shell hands recipe-authored command strings to a shell
// interpreter verbatim: parsing or splitting them ourselves would break
// real recipes that rely on shell syntax like "&&" and pipes.
package shell

import (
	"context"
	"io"
	"os"
	"os/exec"
)

// Run executes cmd under /bin/sh -c in workdir, with env appended to the
// inherited environment, streaming stdout/stderr to out.
func Run(ctx context.Context, cmd string, env map[string]string, workdir string, out io.Writer) error {
	return RunWith(ctx, nil, cmd, env, workdir, out)
}

// RunWith is Run with an optional leading argv prefix (e.g. a fakeroot
// shim) spliced in front of "/bin/sh -c cmd", so build's install phase can
// reuse the same env-merge and streaming behavior without duplicating it.
func RunWith(ctx context.Context, prefix []string, cmd string, env map[string]string, workdir string, out io.Writer) error {
	if cmd == "" {
		return nil
	}
	argv := append(append([]string{}, prefix...), "/bin/sh", "-c", cmd)
	c := exec.CommandContext(ctx, argv[0], argv[1:]...)
	c.Dir = workdir
	c.Stdout = out
	c.Stderr = out
	c.Env = mergeEnv(os.Environ(), env)
	return c.Run()
}

func mergeEnv(base []string, extra map[string]string) []string {
	out := append([]string{}, base...)
	for k, v := range extra {
		out = append(out, k+"="+v)
	}
	return out
}
