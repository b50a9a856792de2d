package scanner

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"

	"github.com/bazbom/bazbom"
	"github.com/bazbom/bazbom/internal/license"
)

// goModulesAdapter reads go.mod directly via golang.org/x/mod/modfile rather
// than go.sum: go.mod's require block already distinguishes direct from
// indirect requirements (the "// indirect" comment modfile parses into
// Require.Indirect), which go.sum's flat hash listing does not. This
// adapter is also the one ReachabilityScanner implementation in the
// package — see internal/reachability's doc comment for why Go is the only
// source-analyzable ecosystem here.
type goModulesAdapter struct {
	licenses *license.Cache
}

func newGoModules(licenses *license.Cache) Adapter { return &goModulesAdapter{licenses: licenses} }

func (goModulesAdapter) Ecosystem() bazbom.Ecosystem { return bazbom.EcosystemGoModules }

func (a *goModulesAdapter) Scan(ctx context.Context, dir, manifestFile string) ([]bazbom.Package, error) {
	path := filepath.Join(dir, manifestFile)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, bazbom.Wrap("scanner.gomod.Scan", bazbom.ErrMalformedManifest, err)
	}
	f, err := modfile.Parse(path, b, nil)
	if err != nil {
		return nil, bazbom.Wrap("scanner.gomod.Scan", bazbom.ErrMalformedManifest, err)
	}

	var out []bazbom.Package
	for _, r := range f.Require {
		v := module.Version{Path: r.Mod.Path, Version: r.Mod.Version}
		if err := module.Check(v.Path, v.Version); err != nil {
			continue // replaced/local modules (e.g. "../foo") don't carry a checkable version
		}
		lic, err := a.licenses.Get(ctx, license.Key{Ecosystem: "gomod", Name: r.Mod.Path, Version: r.Mod.Version}, func(_ context.Context, _ license.Key) (string, error) {
			return "", nil // go.mod carries no license metadata
		})
		if err != nil {
			return nil, bazbom.Wrap("scanner.gomod.Scan", bazbom.ErrInternal, err)
		}
		out = append(out, bazbom.Package{
			Ecosystem:  bazbom.EcosystemGoModules,
			Name:       r.Mod.Path,
			Version:    r.Mod.Version,
			Direct:     !r.Indirect,
			SourcePath: manifestFile,
			License:    lic,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ArtifactsForReachability implements scanner.ReachabilityScanner: the
// module's source root is the only artifact the Call-Graph Builder needs,
// since golang.org/x/tools/go/packages loads a module by directory, not by
// an enumerated file list.
func (a *goModulesAdapter) ArtifactsForReachability(ctx context.Context, dir string) ([]string, error) {
	return []string{dir}, nil
}
