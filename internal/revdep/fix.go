package revdep

import (
	"context"
	"io"

	"github.com/fcanata061/pbuild/internal/config"
	"github.com/fcanata061/pbuild/internal/logging"
	"github.com/fcanata061/pbuild/internal/pipeline"
	"github.com/fcanata061/pbuild/internal/recipe"
	"github.com/fcanata061/pbuild/internal/registry"
)

// FixOutcome records what happened attempting to recover one soname.
type FixOutcome struct {
	Soname  string
	Owner   string
	Rebuilt bool
	Err     error
}

// Fix takes a CheckResult's missing set and, for each soname, finds the
// candidate owner (first-match lexicographic by registry key), locates its
// recipe in the repo tree, and re-drives the build pipeline with a rebuild
// flag set. A single candidate failing is non-fatal: Fix keeps going and
// records the error against that soname's outcome.
func Fix(ctx context.Context, cfg *config.Config, reg *registry.Registry, missing []string, log *logging.Invocation, out io.Writer) []FixOutcome {
	outcomes := make([]FixOutcome, 0, len(missing))
	for _, soname := range missing {
		oc := FixOutcome{Soname: soname}
		owner, err := Owner(reg, soname)
		if err != nil {
			oc.Err = err
			outcomes = append(outcomes, oc)
			continue
		}
		if owner == "" {
			if log != nil {
				log.Warnf("revdep: no package owns a file named %s, skipping", soname)
			}
			outcomes = append(outcomes, oc)
			continue
		}
		oc.Owner = owner

		recipePath, err := recipe.FindByName(cfg.Repo, owner)
		if err != nil {
			oc.Err = err
			outcomes = append(outcomes, oc)
			continue
		}
		r, err := recipe.Parse(recipePath)
		if err != nil {
			oc.Err = err
			outcomes = append(outcomes, oc)
			continue
		}

		_, err = pipeline.BuildAndInstall(ctx, cfg, reg, r, pipeline.Options{
			ForceRefresh: true,
			Log:          log,
			Out:          out,
		})
		if err != nil {
			oc.Err = err
		} else {
			oc.Rebuilt = true
		}
		outcomes = append(outcomes, oc)
	}
	return outcomes
}
