package bazbom

// ScannerStatus reports the terminal state of one ecosystem's scan, per
// spec.md §4.8. A scan that ends in anything but ScannerOK still produces a
// usable (if partial) EcosystemScanResult; only the top-level ErrNotFound /
// ErrCancelled kinds, or ErrInternal from a failed workspace walk, abort the
// whole Scan call.
type ScannerStatus string

const (
	ScannerOK        ScannerStatus = "ok"
	ScannerTimedOut  ScannerStatus = "timed-out"
	ScannerMalformed ScannerStatus = "malformed-manifest"
	ScannerFailed    ScannerStatus = "failed"
)

// ReachabilitySummary tallies the ReachabilityKind distribution across an
// EcosystemScanResult's Vulnerabilities, so callers don't have to walk the
// slice themselves for the common case of a headline count.
type ReachabilitySummary struct {
	Reachable   int `json:"reachable"`
	Unreachable int `json:"unreachable"`
	Unknown     int `json:"unknown"`
}

// EcosystemScanResult is the per-ecosystem output of one Scan call, and the
// unit the Orchestrator's progress bus and state machine operate over.
type EcosystemScanResult struct {
	// ScanID correlates every EcosystemScanResult produced by one Scan call
	// (and the log lines/spans the Orchestrator emits while producing it),
	// generated once per call via github.com/google/uuid.
	ScanID          string          `json:"scan_id"`
	Ecosystem       Ecosystem       `json:"ecosystem"`
	Packages        []Package       `json:"packages"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities"`
	Reachability    ReachabilitySummary `json:"reachability_summary"`
	// TransitiveResolutionPartial is true when this ecosystem's manifest
	// format cannot distinguish a resolved transitive closure from a flat
	// declared-dependency list, per spec.md §4.2: "if the lockfile omits
	// transitives, the scanner records only what is present and sets a
	// transitive-resolution=partial flag on the result." Packages is then
	// complete only for directly-declared dependencies; the true transitive
	// set is unknown, not empty.
	TransitiveResolutionPartial bool `json:"transitive_resolution_partial,omitempty"`
	// Status is the terminal scanner state. A non-ScannerOK status is
	// always accompanied by a non-empty Err.
	Status ScannerStatus `json:"status"`
	// Err describes why Status isn't ScannerOK. Nil when Status ==
	// ScannerOK.
	Err error `json:"-"`
}

// SummarizeReachability recomputes a ReachabilitySummary from a
// Vulnerability slice. Called by the orchestrator once reachability tagging
// completes for an ecosystem.
func SummarizeReachability(vulns []Vulnerability) ReachabilitySummary {
	var s ReachabilitySummary
	for _, v := range vulns {
		switch v.Reachability.Kind {
		case ReachabilityReachable:
			s.Reachable++
		case ReachabilityUnreachable:
			s.Unreachable++
		default:
			s.Unknown++
		}
	}
	return s
}
