// Package bazbom implements the core engines of the BazBOM polyglot
// supply-chain scanner: ecosystem detection and lockfile scanning, batched
// vulnerability resolution against an external advisory service, and a
// reachability engine that tags vulnerable packages as reachable or
// unreachable from application entry points.
//
// The root package holds the shared data model (Package, Advisory,
// Vulnerability, EcosystemScanResult, and friends). The engines themselves
// live in sub-packages: internal/ecosystem detects which ecosystems are
// present in a workspace, internal/scanner holds one lockfile adapter per
// ecosystem, internal/license is the shared license lookup cache,
// internal/resolver batches and enriches advisory lookups, internal/
// reachability builds call graphs and tags reachability, and orchestrator
// ties all of the above together with bounded concurrency and progress
// reporting.
package bazbom
