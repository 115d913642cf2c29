// Package config gathers every environment variable and flag pbuild
// recognizes into one immutable record at process start. One exception
// remains outside this package: internal/build reads MAKEFLAGS from the
// process environment itself when it computes each phase's MAKEFLAGS.
package config

import (
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Color modes accepted by COLOR / --color.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config is the immutable, fully-resolved configuration for one invocation.
type Config struct {
	TmpRoot string // LFSPKG build workspace root
	Repo    string // recipe tree root
	Sources string // fetched archive cache
	Registro string // registry directory
	PkgOut  string // output package directory
	Hooks   string // external hook directory
	MakeFlags string // inherited MAKEFLAGS as loaded; internal/build does not read this field
	Jobs    int    // resolved job count, never "auto"
	Strip   bool
	Compression string // xz | gz | bz2
	Color   string      // auto | always | never
}

// Load binds environment variables and the given flag set, then resolves
// every default and the "auto" jobs sentinel into a concrete Config.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()

	v.SetDefault("TMPROOT", "/var/tmp/pbuild")
	v.SetDefault("REPO", "./recipes")
	v.SetDefault("SOURCES", "/var/cache/pbuild/src")
	v.SetDefault("REGISTRO", "/var/lib/pbuild")
	v.SetDefault("PKGOUT", "/var/cache/pbuild/pkgs")
	v.SetDefault("HOOKS", "/etc/pbuild/hooks.d")
	v.SetDefault("MAKEFLAGS", "")
	v.SetDefault("JOBS", "auto")
	v.SetDefault("STRIP", "no")
	v.SetDefault("PKGCOMP", "xz")
	v.SetDefault("COLOR", ColorAuto)

	if flags != nil {
		_ = v.BindPFlag("REPO", flags.Lookup("repo"))
		_ = v.BindPFlag("STRIP", flags.Lookup("strip"))
		_ = v.BindPFlag("JOBS", flags.Lookup("jobs"))
		_ = v.BindPFlag("PKGCOMP", flags.Lookup("compression"))
		_ = v.BindPFlag("COLOR", flags.Lookup("color"))
	}

	jobs, err := resolveJobs(v.GetString("JOBS"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		TmpRoot:     v.GetString("TMPROOT"),
		Repo:        v.GetString("REPO"),
		Sources:     v.GetString("SOURCES"),
		Registro:    v.GetString("REGISTRO"),
		PkgOut:      v.GetString("PKGOUT"),
		Hooks:       v.GetString("HOOKS"),
		MakeFlags:   v.GetString("MAKEFLAGS"),
		Jobs:        jobs,
		Strip:       parseBool(v.GetString("STRIP")),
		Compression: strings.ToLower(v.GetString("PKGCOMP")),
		Color:       strings.ToLower(v.GetString("COLOR")),
	}
	return cfg, nil
}

func resolveJobs(raw string) (int, error) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" || raw == "auto" {
		return runtime.NumCPU(), nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return runtime.NumCPU(), nil
	}
	return n, nil
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "yes", "true", "on":
		return true
	default:
		return false
	}
}
