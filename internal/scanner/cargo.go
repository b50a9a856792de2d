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

// cargoAdapter reads Cargo.lock's TOML format with a hand-rolled,
// line-oriented parser rather than a TOML library: no third-party TOML
// parser appears anywhere in the retrieved example pack (see DESIGN.md),
// and Cargo.lock's structure is simple enough — a flat sequence of
// [[package]] tables, each with a handful of scalar key = "value" lines —
// that a general TOML parser buys nothing a line scan doesn't already give.
type cargoAdapter struct {
	licenses *license.Cache
}

func newCargo(licenses *license.Cache) Adapter { return &cargoAdapter{licenses: licenses} }

func (cargoAdapter) Ecosystem() bazbom.Ecosystem { return bazbom.EcosystemCargo }

func (a *cargoAdapter) Scan(ctx context.Context, dir, manifestFile string) ([]bazbom.Package, error) {
	path := filepath.Join(dir, manifestFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, bazbom.Wrap("scanner.cargo.Scan", bazbom.ErrMalformedManifest, err)
	}
	defer f.Close()

	var out []bazbom.Package
	var name, version string
	inPackage := false
	flush := func() {
		if !inPackage || name == "" || version == "" {
			return
		}
		out = append(out, bazbom.Package{
			Ecosystem:  bazbom.EcosystemCargo,
			Name:       name,
			Version:    version,
			Direct:     true, // Cargo.lock doesn't mark direct/transitive; see DESIGN.md
			SourcePath: manifestFile,
		})
	}

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "[[package]]":
			flush()
			inPackage, name, version = true, "", ""
		case strings.HasPrefix(line, "["):
			flush()
			inPackage = false
		case inPackage && strings.HasPrefix(line, "name"):
			name = tomlStringValue(line)
		case inPackage && strings.HasPrefix(line, "version"):
			version = tomlStringValue(line)
		}
	}
	flush()
	if err := sc.Err(); err != nil {
		return nil, bazbom.Wrap("scanner.cargo.Scan", bazbom.ErrMalformedManifest, err)
	}

	for i := range out {
		lic, err := a.licenses.Get(ctx, license.Key{Ecosystem: "cargo", Name: out[i].Name, Version: out[i].Version}, func(_ context.Context, _ license.Key) (string, error) {
			return "", nil // Cargo.lock doesn't carry license metadata; crates.io would, offline scans skip it
		})
		if err != nil {
			return nil, bazbom.Wrap("scanner.cargo.Scan", bazbom.ErrInternal, err)
		}
		out[i].License = lic
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// tomlStringValue extracts the quoted value from a "key = \"value\"" line.
func tomlStringValue(line string) string {
	i := strings.IndexByte(line, '"')
	if i < 0 {
		return ""
	}
	j := strings.IndexByte(line[i+1:], '"')
	if j < 0 {
		return ""
	}
	return line[i+1 : i+1+j]
}
