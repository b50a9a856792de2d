package bazbom

import "time"

// Advisory is a single vulnerability record as returned by the advisory
// service, before it has been matched against any particular Package. It is
// the payload internal/resolver fetches; Vulnerability is the payload the
// Orchestrator attaches to a scan result once an Advisory has been matched
// and reachability-tagged.
//
// Modeled on the CISA KEV catalog entry (enricher/kev) and NVD CVE record
// (enricher/cvss) shapes in the teacher, generalized to a source-agnostic
// advisory record.
type Advisory struct {
	// ID is the advisory's canonical identifier, e.g. a CVE or GHSA ID.
	ID string `json:"id"`
	// Aliases are other identifiers for the same advisory (a CVE may have a
	// GHSA alias and vice versa).
	Aliases []string `json:"aliases,omitempty"`
	// Summary is a short, human-readable description.
	Summary string `json:"summary"`
	// CVSSVector is the raw CVSS v3.x vector string, if the advisory source
	// published one. May be empty for vendor-severity-only advisories.
	CVSSVector string `json:"cvss_vector,omitempty"`
	// CVSSBaseScore is the parsed base score from CVSSVector, or the
	// advisory source's own reported score. Zero if unavailable.
	CVSSBaseScore float64 `json:"cvss_base_score,omitempty"`
	// VendorSeverity is the advisory source's native severity string, used
	// when no CVSS score is available. See NormalizeVendorSeverity.
	VendorSeverity string `json:"vendor_severity,omitempty"`
	// Severity is the normalized ordinal severity, computed once at
	// ingestion time by internal/resolver/normalize.go.
	Severity Severity `json:"severity"`
	// Affected is the set of version ranges this advisory applies to,
	// scoped to one ecosystem and package name.
	Affected []AffectedRange `json:"affected"`
	// VulnerableSymbols names the function/method identifiers the advisory
	// source attributes the vulnerability to, per spec.md §3. Opaque to
	// every component except the Reachability Tagger (C7), which matches
	// these against CallGraph.Methods identifiers. Empty for advisories
	// whose source doesn't publish symbol-level detail, or for ecosystems
	// with no standard symbol-naming scheme (spec.md §9 open question b).
	VulnerableSymbols []string `json:"vulnerable_symbols,omitempty"`
	// ExploitMaturity records known-exploited/exploit-probability
	// enrichment, per spec.md §4.4 item 4. Nil if no enrichment feed
	// matched this advisory.
	ExploitMaturity *ExploitMaturity `json:"exploit_maturity,omitempty"`
	// Published is the advisory's publication time, if known.
	Published time.Time `json:"published,omitempty"`
}

// AffectedRange names the package and version range an Advisory applies to.
// Versions are ordered natively per ecosystem: SemVer for npm/Cargo/Go
// modules, PEP 440 for PyPI, Maven ordering for Maven, and RubyGems ordering
// for RubyGems/Composer. PyPI ranges are PEP 440 specifier sets; every other
// ecosystem's range is a comma-separated list of >=, <=, >, <, == or !=
// clauses, or a bare version meaning an exact match. Maven bracket ranges
// ("[2.0,2.15)") and RubyGems "~>" constraints are not parsed as ranges.
type AffectedRange struct {
	Ecosystem Ecosystem `json:"ecosystem"`
	Name      string    `json:"name"`
	// Range is the ecosystem-native range expression, e.g. ">=1.2.0,<1.2.5".
	Range string `json:"range"`
	// FixedIn is the first version that resolves the advisory, if known.
	FixedIn string `json:"fixed_in,omitempty"`
}

// ExploitMaturity captures the enrichment feeds wired into internal/resolver
// (CISA KEV and FIRST EPSS), per spec.md §4.4 item 4's severity-boost
// inputs. A true KnownExploited always takes priority over EPSSScore when
// both are present, matching the teacher's "known good data over modeled
// estimate" preference for enrichment source ordering.
type ExploitMaturity struct {
	// KnownExploited is true if the advisory's CVE appears in the CISA KEV
	// catalog. Grounded on enricher/kev.
	KnownExploited bool `json:"known_exploited"`
	// EPSSScore is the FIRST EPSS exploit-probability estimate in [0,1], or
	// -1 if no EPSS record exists for this advisory. Grounded on
	// enricher/epss.
	EPSSScore float64 `json:"epss_score"`
}
