package bazbom

import (
	"fmt"

	"github.com/package-url/packageurl-go"
)

// Ecosystem identifies a package-management universe. Adapter
// implementations (internal/scanner) register against one of these
// identifiers.
type Ecosystem string

// Ecosystems recognised by this module. Each corresponds to one
// internal/scanner adapter.
const (
	EcosystemMaven     Ecosystem = "maven"
	EcosystemNpm       Ecosystem = "npm"
	EcosystemPyPI      Ecosystem = "pypi"
	EcosystemGoModules Ecosystem = "gomod"
	EcosystemCargo     Ecosystem = "cargo"
	EcosystemRubyGems  Ecosystem = "rubygems"
	EcosystemComposer  Ecosystem = "composer"
)

// purlType maps an Ecosystem onto the package-url "type" component, per the
// purl spec (https://github.com/package-url/purl-spec). Spelled out as
// literal strings rather than packageurl-go's Type* constants since this
// module's Ecosystem set (application package managers) only partially
// overlaps the library's predefined constant set.
var purlType = map[Ecosystem]string{
	EcosystemMaven:     "maven",
	EcosystemNpm:       "npm",
	EcosystemPyPI:      "pypi",
	EcosystemGoModules: "golang",
	EcosystemCargo:     "cargo",
	EcosystemRubyGems:  "gem",
	EcosystemComposer:  "composer",
}

// Package is a single resolved dependency, uniquely keyed by
// (Ecosystem, Name, Version) per spec.md §3 invariant I1.
//
// A Package is created by an internal/scanner Adapter and never mutated
// after handoff to the Orchestrator.
type Package struct {
	// Ecosystem this package belongs to.
	Ecosystem Ecosystem `json:"ecosystem"`
	// Name of the package, in the ecosystem's native form (e.g.
	// "artifact" for Maven, with Coordinate carrying the group; bare name
	// for npm/PyPI/Cargo/RubyGems/Composer; module path for Go modules).
	Name string `json:"name"`
	// Version is a concrete, resolved version string — never a range.
	Version string `json:"version"`
	// Direct is true if this package is declared directly by the
	// workspace's manifest, false if it was pulled in transitively.
	Direct bool `json:"direct"`
	// SourcePath is the lockfile or manifest path this package was
	// resolved from, relative to the workspace root.
	SourcePath string `json:"source_path"`
	// Coordinate is an opaque, ecosystem-native identifier distinct from
	// Name when the ecosystem's own addressing scheme needs more than a
	// bare name (e.g. a Maven group). An npm scope stays part of Name, as in
	// "@scope/bar".
	Coordinate string `json:"coordinate,omitempty"`
	// License is populated by an Adapter consulting the shared License
	// Cache (internal/license), and may be empty if unknown.
	License string `json:"license,omitempty"`
}

// PackageURL is the canonical string form of a Package's identity, per
// spec.md §3. It is the join key used by internal/resolver and
// internal/reachability.
type PackageURL string

// PURL returns the canonical PackageURL string identity for this Package.
// Grounded on claircore's purl.Registry, which performs the equivalent
// generation step against package-url/packageurl-go.
func (p *Package) PURL() (PackageURL, error) {
	typ, ok := purlType[p.Ecosystem]
	if !ok {
		return "", fmt.Errorf("bazbom: no purl type registered for ecosystem %q", p.Ecosystem)
	}
	namespace, name := splitCoordinate(p.Ecosystem, p.Name, p.Coordinate)
	instance := packageurl.NewPackageURL(typ, namespace, name, p.Version, nil, "")
	return PackageURL(instance.ToString()), nil
}

// splitCoordinate derives a purl namespace/name pair from a Package's Name
// and Coordinate fields, per-ecosystem.
func splitCoordinate(eco Ecosystem, name, coordinate string) (namespace, shortName string) {
	switch eco {
	case EcosystemMaven:
		// Maven coordinates are "group:artifact"; Name is the artifact
		// alone, Coordinate carries the group.
		return coordinate, name
	default:
		return coordinate, name
	}
}
