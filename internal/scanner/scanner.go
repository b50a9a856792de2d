// Package scanner implements the BazBOM Ecosystem Scanner adapters (C2):
// one lockfile/manifest reader per ecosystem, each producing a []bazbom.
// Package for the Orchestrator.
//
// The Adapter interface is grounded on claircore's indexer.VersionedScanner
// + indexer.PackageScanner pairing: a small capability interface identified
// by name, plus a single Scan method. BazBOM scans a workspace directory
// rather than a container layer, so Scan takes a directory and a manifest
// filename instead of a claircore.Layer.
package scanner

import (
	"context"

	"github.com/bazbom/bazbom"
	"github.com/bazbom/bazbom/internal/license"
)

// Adapter reads one ecosystem's lockfile/manifest format and produces
// resolved packages.
type Adapter interface {
	// Ecosystem this Adapter reads.
	Ecosystem() bazbom.Ecosystem
	// Scan reads the manifest at filepath.Join(dir, manifestFile) (and any
	// sibling files the format requires; every built-in adapter reads only
	// the manifest itself) and returns every resolved package.
	Scan(ctx context.Context, dir, manifestFile string) ([]bazbom.Package, error)
}

// ReachabilityScanner is an optional capability an Adapter can implement
// when its ecosystem has a Reachability Engine (internal/reachability)
// binding. Only the Go modules adapter implements this at present — see
// internal/reachability's package doc for why source-level call-graph
// construction is Go-only in this module.
type ReachabilityScanner interface {
	// ArtifactsForReachability returns the set of source directories
	// internal/reachability should load to build a call graph for this
	// workspace.
	ArtifactsForReachability(ctx context.Context, dir string) ([]string, error)
}

// PartialTransitiveAdapter is an optional capability an Adapter implements
// when its manifest format can never carry a resolved transitive closure —
// only a flat, directly-declared dependency list — so the Orchestrator can
// set EcosystemScanResult.TransitiveResolutionPartial per spec.md §4.2.
// Unlike ReachabilityScanner this isn't a per-call result: it's a property
// of the format itself, so it takes no arguments.
type PartialTransitiveAdapter interface {
	// TransitivesUnresolved reports whether this Adapter's manifest format
	// fundamentally cannot distinguish a resolved transitive closure from a
	// flat declared-dependency list.
	TransitivesUnresolved() bool
}

// Registry maps each Ecosystem to its Adapter. Built once by the
// orchestrator at Scan startup; not safe for concurrent registration
// (construction happens before any fan-out begins), matching
// indexer.VersionedScanners' own "not concurrency safe" construction-time
// contract.
type Registry map[bazbom.Ecosystem]Adapter

// NewRegistry returns a Registry with every built-in Adapter registered.
func NewRegistry(licenses *license.Cache) Registry {
	r := make(Registry, 7)
	for _, a := range []Adapter{
		newMaven(licenses),
		newNpm(licenses),
		newPyPI(licenses),
		newGoModules(licenses),
		newCargo(licenses),
		newRubyGems(licenses),
		newComposer(licenses),
	} {
		r[a.Ecosystem()] = a
	}
	return r
}
