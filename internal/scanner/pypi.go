package scanner

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bazbom/bazbom"
	"github.com/bazbom/bazbom/internal/license"
	"github.com/bazbom/bazbom/internal/scanner/pep440"
)

// pypiAdapter reads a pip requirements.txt pinned with "=="  — the only
// requirements.txt form that names a concrete, resolved version rather than
// a range, which is what bazbom.Package.Version requires (spec.md §3
// invariant I1: Version is always concrete). Lines using any other
// specifier (e.g. ">=1.0") are skipped: they name an applicability range,
// not a resolved package, and belong to a lockfile format bazbom doesn't
// synthesize resolution for.
type pypiAdapter struct {
	licenses *license.Cache
}

func newPyPI(licenses *license.Cache) Adapter { return &pypiAdapter{licenses: licenses} }

func (pypiAdapter) Ecosystem() bazbom.Ecosystem { return bazbom.EcosystemPyPI }

// TransitivesUnresolved implements scanner.PartialTransitiveAdapter: a
// requirements.txt lists only what the developer declared with "==", never
// pip's resolved dependency graph, so every package this adapter emits is
// marked Direct regardless of its true position in the dependency tree, per
// spec.md §4.2.
func (pypiAdapter) TransitivesUnresolved() bool { return true }

func (a *pypiAdapter) Scan(ctx context.Context, dir, manifestFile string) ([]bazbom.Package, error) {
	path := filepath.Join(dir, manifestFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, bazbom.Wrap("scanner.pypi.Scan", bazbom.ErrMalformedManifest, err)
	}
	defer f.Close()

	var out []bazbom.Package
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		name, version, ok := splitPinned(line)
		if !ok {
			continue
		}
		if _, err := pep440.Parse(version); err != nil {
			return nil, bazbom.Wrap("scanner.pypi.Scan", bazbom.ErrMalformedManifest, err)
		}
		lic, err := a.licenses.Get(ctx, license.Key{Ecosystem: "pypi", Name: name, Version: version}, func(_ context.Context, _ license.Key) (string, error) {
			return "", nil // requirements.txt carries no license metadata
		})
		if err != nil {
			return nil, bazbom.Wrap("scanner.pypi.Scan", bazbom.ErrInternal, err)
		}
		out = append(out, bazbom.Package{
			Ecosystem:  bazbom.EcosystemPyPI,
			Name:       name,
			Version:    version,
			Direct:     true,
			SourcePath: manifestFile,
			License:    lic,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, bazbom.Wrap("scanner.pypi.Scan", bazbom.ErrMalformedManifest, err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// splitPinned splits a requirements.txt line on "==", stripping any
// trailing environment marker (the part after a semicolon) and extras
// (the "[extra]" suffix on the name).
func splitPinned(line string) (name, version string, ok bool) {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	i := strings.Index(line, "==")
	if i < 0 {
		return "", "", false
	}
	name = strings.TrimSpace(line[:i])
	version = strings.TrimSpace(line[i+2:])
	if j := strings.IndexByte(name, '['); j >= 0 {
		name = name[:j]
	}
	if name == "" || version == "" {
		return "", "", false
	}
	return name, version, true
}
