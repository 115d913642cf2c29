// Package recipe parses one pbuild recipe file into a validated, immutable
// Recipe record. Parsing performs no shell expansion and executes nothing —
// command strings are carried as opaque values for the build driver to
// hand to a shell verbatim.
package recipe

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/fcanata061/pbuild/internal/pkgerrors"
)

// VCS tags the acquisition mode of Recipe.SourceURL.
type VCS string

const (
	VCSHTTP VCS = "http"
	VCSGit  VCS = "git"
)

var nameRe = regexp.MustCompile(`^[A-Za-z0-9._+-]+$`)

// Recipe is the immutable, parsed form of one recipe file.
type Recipe struct {
	Path string // absolute path this Recipe was parsed from

	Name       string
	Version    string
	SourceURL  string
	Checksum   string
	BuildCmd   string
	CheckCmd   string
	InstallCmd string
	SourceDir  string
	Patches    []string
	VCS        VCS
	VCSBranch  string
	ExtraMakeFlags string
	BuildSubdir    string
	Toolchain      bool

	Deps        []string          // informational only: the core pipeline never resolves this itself
	Env         map[string]string
	Description string
}

// Parse reads path and returns a validated Recipe, or an *pkgerrors.Error
// of kind InvalidRecipe.
func Parse(path string) (*Recipe, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.InvalidRecipe, path, err)
	}
	defer f.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	r := &Recipe{Path: abs, Env: map[string]string{}}

	lineNo := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		key, value, ok := splitKeyValue(trimmed)
		if !ok {
			return nil, pkgerrors.New(pkgerrors.InvalidRecipe,
				fmt.Sprintf("%s:%d: malformed line, want key=[value]", path, lineNo))
		}
		if err := assign(r, key, value); err != nil {
			return nil, pkgerrors.New(pkgerrors.InvalidRecipe,
				fmt.Sprintf("%s:%d: %s", path, lineNo, err))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.InvalidRecipe, path, err)
	}

	if err := validate(r); err != nil {
		return nil, err
	}
	return r, nil
}

// splitKeyValue parses "key=[value]" where value may contain any character
// except the closing ']' at end-of-value. No shell/variable expansion.
func splitKeyValue(line string) (key, value string, ok bool) {
	eq := strings.Index(line, "=[")
	if eq < 0 {
		return "", "", false
	}
	if !strings.HasSuffix(line, "]") {
		return "", "", false
	}
	key = strings.TrimSpace(line[:eq])
	value = line[eq+2 : len(line)-1]
	if key == "" {
		return "", "", false
	}
	return key, value, true
}

func assign(r *Recipe, key, value string) error {
	switch key {
	case "name":
		r.Name = value
	case "version":
		r.Version = value
	case "source_url":
		r.SourceURL = value
	case "checksum":
		r.Checksum = value
	case "build_cmd":
		r.BuildCmd = value
	case "check_cmd":
		r.CheckCmd = value
	case "install_cmd":
		r.InstallCmd = value
	case "source_dir":
		r.SourceDir = value
	case "patches":
		r.Patches = splitList(value)
	case "vcs":
		switch value {
		case "http", "":
			r.VCS = VCSHTTP
		case "git":
			r.VCS = VCSGit
		default:
			return fmt.Errorf("illegal vcs value %q", value)
		}
	case "vcs_branch":
		r.VCSBranch = value
	case "extra_make_flags":
		r.ExtraMakeFlags = value
	case "build_subdir":
		r.BuildSubdir = value
	case "toolchain":
		r.Toolchain = strings.EqualFold(value, "yes") || value == "1" || strings.EqualFold(value, "true")
	case "deps":
		r.Deps = splitList(value)
	case "description":
		r.Description = value
	default:
		if strings.HasPrefix(key, "env.") {
			r.Env[strings.TrimPrefix(key, "env.")] = value
			return nil
		}
		// Unknown key: silently ignored for forward compatibility.
	}
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, p := range strings.Split(value, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func validate(r *Recipe) error {
	var missing []string
	if r.Name == "" {
		missing = append(missing, "name")
	}
	if r.Version == "" {
		missing = append(missing, "version")
	}
	if r.SourceURL == "" {
		missing = append(missing, "source_url")
	}
	if r.InstallCmd == "" {
		missing = append(missing, "install_cmd")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.InvalidRecipe,
			fmt.Sprintf("%s: missing required field(s): %s", r.Path, strings.Join(missing, ", ")))
	}
	if r.Name != "" && !nameRe.MatchString(r.Name) {
		return pkgerrors.New(pkgerrors.InvalidRecipe,
			fmt.Sprintf("%s: name %q does not match [A-Za-z0-9._+-]+", r.Path, r.Name))
	}
	if r.VCS == "" {
		r.VCS = inferVCS(r.SourceURL)
	}
	return nil
}

func inferVCS(url string) VCS {
	if strings.HasSuffix(url, ".git") || strings.HasPrefix(url, "git://") || strings.HasPrefix(url, "git@") {
		return VCSGit
	}
	return VCSHTTP
}

// FindByName walks repoRoot for a file named "<name>.pbuild", returning the
// first match (directory entries are visited in filepath.WalkDir's
// lexicographic order, which is deterministic).
func FindByName(repoRoot, name string) (string, error) {
	var found string
	err := walkRecipes(repoRoot, func(path string) bool {
		if filepath.Base(path) == name+".pbuild" {
			found = path
			return true
		}
		return false
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", pkgerrors.New(pkgerrors.InvalidRecipe,
			fmt.Sprintf("recipe %q not found under %s", name, repoRoot))
	}
	return found, nil
}
