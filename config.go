package bazbom

import "time"

// Defaults for Config fields, named the way libvuln.Opts names its
// DefaultUpdateInterval/DefaultUpdateWorkers/DefaultMaxConnPool constants.
const (
	DefaultMaxConcurrent      = 8
	DefaultEcosystemTimeout   = 120 * time.Second
	DefaultBatchSize          = 1000
	DefaultReachabilityBudget = 60 * time.Second
	// DefaultShortestPaths bounds how many witness call-chains
	// internal/reachability's Tagger (C7) records per reachable
	// Vulnerability, per spec.md §4.7's default K=3.
	DefaultShortestPaths = 3
	// DefaultProgressBuffer is the capacity of the Orchestrator's progress
	// event channel, per spec.md §5's backpressure rule: bounded, with the
	// oldest pending event dropped on overflow rather than blocking the
	// producer.
	DefaultProgressBuffer = 64
)

// Config controls one Scan call, per spec.md §4.9. Built as a plain struct
// with documented defaults, in the shape of libindex.Opts/libvuln.Opts,
// rather than functional options: every field here is a simple scalar or
// slice the caller is expected to set directly, with WithDefaults() filling
// in the zero-value fields rather than requiring a constructor call.
type Config struct {
	// MaxConcurrent bounds the number of ecosystems scanned in parallel.
	// Zero means DefaultMaxConcurrent.
	MaxConcurrent int
	// EnableReachability turns on the Reachability Engine stage; every
	// Vulnerability otherwise carries ReachabilityUnknown with Reason
	// "reachability analysis disabled". Zero value (false) matches
	// spec.md §4.9's documented default for enable_reachability.
	EnableReachability bool
	// DisableVulnerabilities turns off the whole Vulnerability Resolver
	// stage when true; EcosystemScanResult.Vulnerabilities is then always
	// empty. Spelled as a negative flag, rather than the
	// enable_vulnerabilities name spec.md §4.9 uses, so a zero-value Config
	// matches that option's documented default (true/enabled) without
	// Default() or WithDefaults() needing special-case bool handling.
	DisableVulnerabilities bool
	// EcosystemTimeout bounds each ecosystem's scan stage. Zero means
	// DefaultEcosystemTimeout.
	EcosystemTimeout time.Duration
	// BatchSize bounds the number of packages per resolver request. Zero
	// means DefaultBatchSize.
	BatchSize int
	// Excludes is a list of gitignore-style path patterns the Ecosystem
	// Detector skips during its walk.
	Excludes []string
	// EntrypointOverrides lets a caller declare additional Entrypoints the
	// Reachability Engine should treat as call-graph roots, keyed by
	// ecosystem.
	EntrypointOverrides map[Ecosystem][]Entrypoint
	// OfflineMode confines the resolver to orchestrator.Dependencies'
	// LocalMirror; Dependencies.Transport is not used. With no LocalMirror,
	// every resolver batch fails with ErrResolverUnavailable and every
	// Vulnerabilities list is empty. KEV/EPSS data passed in Dependencies is
	// still applied.
	OfflineMode bool
}

// Default returns a Config with every zero-value field replaced by its
// documented default. Booleans are left as-is since their zero value is
// already the documented default for EnableReachability/
// DisableVulnerabilities/OfflineMode per spec.md §4.9 — callers opt in (or
// out) explicitly. spec.md §4.9's show_progress option has no field here:
// Scan takes its ProgressSink as a direct parameter, and a nil sink is
// exactly "disabled" (orchestrator.newPublisher short-circuits on nil),
// so there is nothing a separate boolean would add.
func Default() Config {
	return Config{
		MaxConcurrent:    DefaultMaxConcurrent,
		EcosystemTimeout: DefaultEcosystemTimeout,
		BatchSize:        DefaultBatchSize,
	}
}

// WithDefaults returns c with every zero-value numeric/duration field
// replaced by its default, leaving explicit zero-ish fields (Excludes nil,
// OfflineMode false) untouched. Called once at the top of orchestrator.Scan.
func (c Config) WithDefaults() Config {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = DefaultMaxConcurrent
	}
	if c.EcosystemTimeout <= 0 {
		c.EcosystemTimeout = DefaultEcosystemTimeout
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	return c
}
