// Package logging provides the per-invocation logfmt log file and the
// terminal writer that every external command's output is tee'd to.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	kitlog "github.com/go-kit/kit/log"
)

// Invocation is one build/install/remove/revdep run's logging context: a
// structured logfmt sink to its log file, plus the raw file handle so
// child-process output can be tee'd to it verbatim alongside the terminal.
type Invocation struct {
	Logger  kitlog.Logger
	Path    string
	file    *os.File
}

// Open creates "<tmpRoot>/logs/<name>-<timestamp>.log" and returns an
// Invocation wrapping it. Callers must Close when the run finishes.
func Open(tmpRoot, name string) (*Invocation, error) {
	dir := filepath.Join(tmpRoot, "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%d.log", name, time.Now().UnixNano()))
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(f))
	logger = kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC)
	return &Invocation{Logger: logger, Path: path, file: f}, nil
}

// TeeWriter returns an io.Writer that duplicates child-process output to
// both the terminal stream given and this invocation's log file, matching
// the "streamed to both the caller's terminal and the per-invocation log
// file" requirement.
func (iv *Invocation) TeeWriter(terminal io.Writer) io.Writer {
	return io.MultiWriter(terminal, iv.file)
}

func (iv *Invocation) Close() error {
	return iv.file.Close()
}

// Infof, Warnf and Errorf log a structured "level"+"msg" record at the
// given level, in addition to whatever the caller also prints to the
// terminal (cmd/pbuild prints plain, uncolored lines there).
func (iv *Invocation) Infof(format string, a ...any) {
	_ = iv.Logger.Log("level", "info", "msg", fmt.Sprintf(format, a...))
}

func (iv *Invocation) Warnf(format string, a ...any) {
	_ = iv.Logger.Log("level", "warn", "msg", fmt.Sprintf(format, a...))
}

func (iv *Invocation) Errorf(format string, a ...any) {
	_ = iv.Logger.Log("level", "error", "msg", fmt.Sprintf(format, a...))
}
