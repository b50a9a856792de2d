package scanner

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/bazbom/bazbom"
	"github.com/bazbom/bazbom/internal/license"
)

// composerAdapter reads PHP's composer.lock, a plain JSON document, via
// encoding/json — no third-party JSON library appears anywhere in the
// retrieved pack for any ecosystem, so stdlib is the grounded choice here
// too (see DESIGN.md).
type composerAdapter struct {
	licenses *license.Cache
}

func newComposer(licenses *license.Cache) Adapter { return &composerAdapter{licenses: licenses} }

func (composerAdapter) Ecosystem() bazbom.Ecosystem { return bazbom.EcosystemComposer }

type composerLock struct {
	Packages    []composerPackage `json:"packages"`
	PackagesDev []composerPackage `json:"packages-dev"`
}

type composerPackage struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	License []string `json:"license"`
}

func (a *composerAdapter) Scan(ctx context.Context, dir, manifestFile string) ([]bazbom.Package, error) {
	path := filepath.Join(dir, manifestFile)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, bazbom.Wrap("scanner.composer.Scan", bazbom.ErrMalformedManifest, err)
	}
	var lock composerLock
	if err := json.Unmarshal(b, &lock); err != nil {
		return nil, bazbom.Wrap("scanner.composer.Scan", bazbom.ErrMalformedManifest, err)
	}

	all := make([]composerPackage, 0, len(lock.Packages)+len(lock.PackagesDev))
	all = append(all, lock.Packages...)
	all = append(all, lock.PackagesDev...)

	var out []bazbom.Package
	for _, p := range all {
		if p.Name == "" || p.Version == "" {
			continue
		}
		spdx := ""
		if len(p.License) > 0 {
			spdx = p.License[0]
		}
		lic, err := a.licenses.Get(ctx, license.Key{Ecosystem: "composer", Name: p.Name, Version: p.Version}, func(_ context.Context, _ license.Key) (string, error) {
			return spdx, nil
		})
		if err != nil {
			return nil, bazbom.Wrap("scanner.composer.Scan", bazbom.ErrInternal, err)
		}
		out = append(out, bazbom.Package{
			Ecosystem:  bazbom.EcosystemComposer,
			Name:       p.Name,
			Version:    p.Version,
			Direct:     true, // composer.lock's "packages" list isn't split direct/transitive
			SourcePath: manifestFile,
			License:    lic,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
