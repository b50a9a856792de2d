package scanner

import (
	"context"
	"encoding/xml"
	"os"
	"path/filepath"
	"sort"

	"github.com/bazbom/bazbom"
	"github.com/bazbom/bazbom/internal/license"
)

// mavenAdapter reads a Maven pom.xml's declared dependencies. Unlike
// package-lock.json or go.sum, a pom.xml alone doesn't carry resolved
// transitive versions — those come from Maven's own dependency-mediation
// algorithm walking the full reactor, which this module doesn't run. The
// Maven adapter reports only the pom's directly-declared, non-test-scope
// dependencies (Direct=true). A <dependencyManagement> entry in the same
// file only supplies the version of a declared dependency that omits one;
// managed entries that are not also declared are not reported, and no
// transitive dependency is reported.
type mavenAdapter struct {
	licenses *license.Cache
}

func newMaven(licenses *license.Cache) Adapter { return &mavenAdapter{licenses: licenses} }

func (mavenAdapter) Ecosystem() bazbom.Ecosystem { return bazbom.EcosystemMaven }

type mavenPOM struct {
	XMLName           xml.Name        `xml:"project"`
	Dependencies      mavenDepList    `xml:"dependencies"`
	DependencyMgmt    mavenDepMgmt    `xml:"dependencyManagement"`
	Licenses          mavenLicenses   `xml:"licenses"`
}

type mavenDepList struct {
	Dependency []mavenDependency `xml:"dependency"`
}

type mavenDepMgmt struct {
	Dependencies mavenDepList `xml:"dependencies"`
}

type mavenDependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
	Scope      string `xml:"scope"`
}

type mavenLicenses struct {
	License []struct {
		Name string `xml:"name"`
	} `xml:"license"`
}

func (a *mavenAdapter) Scan(ctx context.Context, dir, manifestFile string) ([]bazbom.Package, error) {
	path := filepath.Join(dir, manifestFile)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, bazbom.Wrap("scanner.maven.Scan", bazbom.ErrMalformedManifest, err)
	}
	var pom mavenPOM
	if err := xml.Unmarshal(b, &pom); err != nil {
		return nil, bazbom.Wrap("scanner.maven.Scan", bazbom.ErrMalformedManifest, err)
	}

	moduleLicense := ""
	if len(pom.Licenses.License) > 0 {
		moduleLicense = pom.Licenses.License[0].Name
	}

	// Direct dependencies with a literal version take priority; a pinned
	// <dependencyManagement> version fills in for a direct dependency that
	// inherits its version from there (Version == "").
	managed := make(map[string]string, len(pom.DependencyMgmt.Dependencies.Dependency))
	for _, d := range pom.DependencyMgmt.Dependencies.Dependency {
		managed[d.GroupID+":"+d.ArtifactID] = d.Version
	}

	var out []bazbom.Package
	for _, d := range pom.Dependencies.Dependency {
		if d.Scope == "test" {
			continue
		}
		version := d.Version
		if version == "" {
			version = managed[d.GroupID+":"+d.ArtifactID]
		}
		if version == "" {
			continue // version comes from a parent POM or BOM import this adapter doesn't resolve
		}
		lic, err := a.licenses.Get(ctx, license.Key{Ecosystem: "maven", Name: d.ArtifactID, Version: version}, func(_ context.Context, _ license.Key) (string, error) {
			return moduleLicense, nil
		})
		if err != nil {
			return nil, bazbom.Wrap("scanner.maven.Scan", bazbom.ErrInternal, err)
		}
		out = append(out, bazbom.Package{
			Ecosystem:  bazbom.EcosystemMaven,
			Name:       d.ArtifactID,
			Version:    version,
			Direct:     true,
			SourcePath: manifestFile,
			Coordinate: d.GroupID,
			License:    lic,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Coordinate != out[j].Coordinate {
			return out[i].Coordinate < out[j].Coordinate
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}
