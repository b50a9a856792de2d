// Package ecosystem implements the BazBOM Ecosystem Detector (C1): a
// signature-based walk of a workspace root that reports which package
// ecosystems are present, generalized from claircore's indexer.Ecosystem
// grouping concept (indexer/ecosystem.go) — there the grouping keys a set of
// compiled-in scanners; here it keys a manifest filename signature found on
// disk.
package ecosystem

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/bazbom/bazbom"
	"github.com/bazbom/bazbom/internal/obslog"
)

// signature is one (ecosystem, filename) detection rule. A workspace
// directory belongs to an ecosystem if it contains any file matching one of
// that ecosystem's signatures.
type signature struct {
	ecosystem bazbom.Ecosystem
	filename  string
}

// signatures is the static detection table, per spec.md §4.1. Order is
// insertion order; output is sorted independently so table order has no
// observable effect.
var signatures = []signature{
	{bazbom.EcosystemMaven, "pom.xml"},
	{bazbom.EcosystemNpm, "package-lock.json"},
	{bazbom.EcosystemPyPI, "requirements.txt"},
	{bazbom.EcosystemPyPI, "poetry.lock"},
	{bazbom.EcosystemPyPI, "Pipfile.lock"},
	{bazbom.EcosystemGoModules, "go.mod"},
	{bazbom.EcosystemCargo, "Cargo.lock"},
	{bazbom.EcosystemRubyGems, "Gemfile.lock"},
	{bazbom.EcosystemComposer, "composer.lock"},
}

// defaultExcludes lists the vendor/build-output directory names spec.md
// §4.1 requires the detector to skip "by default (configurable via
// excludes)" — every ecosystem's own dependency-vendoring or build-cache
// convention, so a workspace's own copy of its dependencies is never
// mistaken for a second manifest of that ecosystem.
var defaultExcludes = []string{
	".git",
	"vendor",
	"node_modules",
	"target",
	"dist",
	"build",
	".venv",
	"venv",
	"__pycache__",
	".bundle",
}

// Detection is one ecosystem found in a workspace, with the directory it was
// found in (relative to the workspace root) so internal/scanner adapters
// know where to read from.
type Detection struct {
	Ecosystem bazbom.Ecosystem
	Dir       string
	// ManifestFile is the filename that triggered detection, relative to
	// Dir.
	ManifestFile string
}

// Detect walks root and returns every ecosystem signature match found,
// skipping any path matching an Excludes pattern (gitignore-style, matched
// against the slash-separated path relative to root, and against its last
// element, via [path.Match] — the same
// stdlib-only matching claircore's own internal/filterfs and pkg/path use,
// since no third-party glob library appears anywhere in the retrieved
// pack), plus every defaultExcludes entry, which always applies regardless
// of what the caller passes. Output is sorted by (Dir, Ecosystem) for
// deterministic ordering across runs, per spec.md §4.1 invariant.
func Detect(ctx context.Context, root string, excludes []string) ([]Detection, error) {
	ctx = obslog.With(ctx, "component", "ecosystem.Detect", "root", root)
	slog.DebugContext(ctx, "walking workspace", "excludes", excludes)

	if _, err := os.Stat(root); err != nil {
		return nil, bazbom.Wrap("ecosystem.Detect", bazbom.ErrNotFound, err)
	}

	excludes = append(append([]string{}, defaultExcludes...), excludes...)

	var out []Detection
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		if d.IsDir() {
			if rel != "." && excluded(rel, excludes) {
				return filepath.SkipDir
			}
			return nil
		}
		if excluded(rel, excludes) {
			return nil
		}
		name := d.Name()
		for _, sig := range signatures {
			if name == sig.filename {
				out = append(out, Detection{
					Ecosystem:    sig.ecosystem,
					Dir:          filepath.Dir(rel),
					ManifestFile: name,
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, bazbom.Wrap("ecosystem.Detect", bazbom.ErrInternal, err)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Dir != out[j].Dir {
			return out[i].Dir < out[j].Dir
		}
		return out[i].Ecosystem < out[j].Ecosystem
	})
	return out, nil
}

// excluded reports whether rel (workspace-root-relative, slash-separated on
// every platform courtesy of path.Clean/ToSlash) matches any of the
// gitignore-style patterns in excludes.
func excluded(rel string, excludes []string) bool {
	rel = filepath.ToSlash(rel)
	for _, pat := range excludes {
		if ok, _ := path.Match(pat, rel); ok {
			return true
		}
		if ok, _ := path.Match(pat, path.Base(rel)); ok {
			return true
		}
	}
	return false
}
