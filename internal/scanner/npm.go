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

// npmAdapter reads npm's package-lock.json v2/v3 format (the "packages" map
// keyed by node_modules path, introduced in npm 7). v1's "dependencies" tree
// format is not supported — spec.md §4.1 scopes npm to "package-lock.json",
// and v2/v3 is what every actively maintained npm project produces.
type npmAdapter struct {
	licenses *license.Cache
}

func newNpm(licenses *license.Cache) Adapter { return &npmAdapter{licenses: licenses} }

func (npmAdapter) Ecosystem() bazbom.Ecosystem { return bazbom.EcosystemNpm }

type npmLockfile struct {
	Name     string                      `json:"name"`
	Version  string                      `json:"version"`
	Packages map[string]npmLockfileEntry `json:"packages"`
}

type npmLockfileEntry struct {
	Version  string `json:"version"`
	Dev      bool   `json:"dev"`
	License  string `json:"license"`
	Resolved string `json:"resolved"`
}

func (a *npmAdapter) Scan(ctx context.Context, dir, manifestFile string) ([]bazbom.Package, error) {
	path := filepath.Join(dir, manifestFile)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, bazbom.Wrap("scanner.npm.Scan", bazbom.ErrMalformedManifest, err)
	}
	var lock npmLockfile
	if err := json.Unmarshal(b, &lock); err != nil {
		return nil, bazbom.Wrap("scanner.npm.Scan", bazbom.ErrMalformedManifest, err)
	}

	var out []bazbom.Package
	for key, entry := range lock.Packages {
		if key == "" || entry.Version == "" {
			continue // the root project entry, or a link-only entry with no version
		}
		name := npmNameFromPath(key)
		lic, err := a.licenses.Get(ctx, license.Key{Ecosystem: "npm", Name: name, Version: entry.Version}, func(_ context.Context, _ license.Key) (string, error) {
			return entry.License, nil
		})
		if err != nil {
			return nil, bazbom.Wrap("scanner.npm.Scan", bazbom.ErrInternal, err)
		}
		out = append(out, bazbom.Package{
			Ecosystem:  bazbom.EcosystemNpm,
			Name:       name,
			Version:    entry.Version,
			Direct:     isTopLevelNodeModule(key),
			SourcePath: manifestFile,
			License:    lic,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Version < out[j].Version
	})
	return out, nil
}

// npmNameFromPath extracts a package name from a package-lock.json v2/v3
// "packages" key, e.g. "node_modules/lodash" -> "lodash", and
// "node_modules/foo/node_modules/@scope/bar" -> "@scope/bar" (the innermost
// segment, npm's own nested-dependency resolution rule).
func npmNameFromPath(key string) string {
	const marker = "node_modules/"
	idx := -1
	for {
		next := indexFrom(key, marker, idx+1)
		if next == -1 {
			break
		}
		idx = next
	}
	if idx == -1 {
		return key
	}
	return key[idx+len(marker):]
}

func isTopLevelNodeModule(key string) bool {
	const marker = "node_modules/"
	return indexFrom(key, marker, len(marker)) == -1 && len(key) > len(marker)
}

// indexFrom finds the next occurrence of sub in s starting at offset start,
// returning the absolute index or -1. A tiny helper so npmNameFromPath
// doesn't need strings.LastIndex special-cased for overlapping markers.
func indexFrom(s, sub string, start int) int {
	if start > len(s) {
		return -1
	}
	rel := indexOf(s[start:], sub)
	if rel == -1 {
		return -1
	}
	return start + rel
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
