package bazbom

// Vulnerability is an Advisory matched against a concrete Package, carrying
// the reachability verdict the orchestrator attaches once
// internal/reachability has run. This is the per-finding record that ends up
// on an EcosystemScanResult.
type Vulnerability struct {
	// Package is the affected package, by value since Package is small and
	// immutable after scanning.
	Package Package `json:"package"`
	// Advisory is the matched advisory record.
	Advisory Advisory `json:"advisory"`
	// Reachability is the tagged verdict for this finding. For ecosystems
	// with no reachability adapter (everything but Go modules, at present),
	// this is ReachabilityVerdict{Kind: ReachabilityUnknown, Reason:
	// "reachability-unsupported"}; with Config.EnableReachability off, every
	// verdict is Unknown with Reason "reachability analysis disabled".
	Reachability ReachabilityVerdict `json:"reachability"`
}

// ReachabilityKind discriminates the tagged union in ReachabilityVerdict.
type ReachabilityKind string

const (
	// ReachabilityReachable means the Reachability Engine found at least one
	// call path from an entrypoint to vulnerable code.
	ReachabilityReachable ReachabilityKind = "reachable"
	// ReachabilityUnreachable means the call graph was built successfully
	// and no path exists.
	ReachabilityUnreachable ReachabilityKind = "unreachable"
	// ReachabilityUnknown means reachability could not be determined — no
	// adapter for the ecosystem, a partial call graph, or an unresolved
	// call along every candidate path. Per spec.md §4.7, Unknown is the
	// conservative default and never suppresses a finding.
	ReachabilityUnknown ReachabilityKind = "unknown"
)

// ReachabilityVerdict is a tagged union over the three reachability
// outcomes a Vulnerability can carry. Exactly one of Paths or Reason is
// meaningful, selected by Kind; modeled as a flat struct rather than an
// interface since every caller needs to serialize this to JSON, and a
// flat struct with a Kind discriminator round-trips directly.
type ReachabilityVerdict struct {
	Kind ReachabilityKind `json:"kind"`
	// Paths holds up to K witness call chains from an entrypoint to the
	// vulnerable symbol, present only when Kind == ReachabilityReachable.
	// Ordered shortest-first, lexicographic tie-break per spec.md §4.7.
	Paths []CallChain `json:"paths,omitempty"`
	// Reason explains an Unknown verdict, present only when Kind ==
	// ReachabilityUnknown.
	Reason string `json:"reason,omitempty"`
}

// CallChain is one witness path from an Entrypoint to a vulnerable symbol,
// as a sequence of fully-qualified function identifiers, entrypoint first.
type CallChain []string
