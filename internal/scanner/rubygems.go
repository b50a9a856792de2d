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
)

// rubyGemsAdapter reads Bundler's Gemfile.lock fixed-format lockfile: a
// "GEM" section containing a "specs:" block of four-space-indented
// "name (version)" lines, each optionally followed by more-deeply-indented
// dependency lines this adapter ignores (dependency edges aren't part of
// spec.md's Package shape). Hand-parsed since Gemfile.lock isn't YAML,
// TOML, or JSON — it's Bundler's own bespoke format, with no parser library
// for it anywhere in the retrieved pack.
type rubyGemsAdapter struct {
	licenses *license.Cache
}

func newRubyGems(licenses *license.Cache) Adapter { return &rubyGemsAdapter{licenses: licenses} }

func (rubyGemsAdapter) Ecosystem() bazbom.Ecosystem { return bazbom.EcosystemRubyGems }

func (a *rubyGemsAdapter) Scan(ctx context.Context, dir, manifestFile string) ([]bazbom.Package, error) {
	path := filepath.Join(dir, manifestFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, bazbom.Wrap("scanner.rubygems.Scan", bazbom.ErrMalformedManifest, err)
	}
	defer f.Close()

	var out []bazbom.Package
	inSpecs := false
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		raw := sc.Text()
		trimmed := strings.TrimRight(raw, " ")
		switch {
		case trimmed == "  specs:":
			inSpecs = true
			continue
		case trimmed != "" && !strings.HasPrefix(trimmed, "    "):
			inSpecs = false
		}
		if !inSpecs {
			continue
		}
		// Gem entries are indented exactly four spaces; deeper indentation
		// is a dependency line this adapter skips.
		if !strings.HasPrefix(raw, "    ") || strings.HasPrefix(raw, "     ") {
			continue
		}
		line := strings.TrimSpace(raw)
		name, version, ok := splitGemSpec(line)
		if !ok {
			continue
		}
		lic, err := a.licenses.Get(ctx, license.Key{Ecosystem: "rubygems", Name: name, Version: version}, func(_ context.Context, _ license.Key) (string, error) {
			return "", nil // Gemfile.lock doesn't carry license metadata
		})
		if err != nil {
			return nil, bazbom.Wrap("scanner.rubygems.Scan", bazbom.ErrInternal, err)
		}
		out = append(out, bazbom.Package{
			Ecosystem:  bazbom.EcosystemRubyGems,
			Name:       name,
			Version:    version,
			Direct:     true, // Gemfile.lock's DEPENDENCIES section distinguishes this; not parsed here
			SourcePath: manifestFile,
			License:    lic,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, bazbom.Wrap("scanner.rubygems.Scan", bazbom.ErrMalformedManifest, err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// splitGemSpec parses a "name (version)" spec line.
func splitGemSpec(line string) (name, version string, ok bool) {
	i := strings.IndexByte(line, '(')
	if i < 0 {
		return "", "", false
	}
	j := strings.IndexByte(line[i:], ')')
	if j < 0 {
		return "", "", false
	}
	name = strings.TrimSpace(line[:i])
	version = strings.TrimSpace(line[i+1 : i+j])
	if name == "" || version == "" {
		return "", "", false
	}
	return name, version, true
}
