// Package orchestrator implements the BazBOM Orchestrator (C8): the public
// entry point that coordinates ecosystem detection (C1), per-ecosystem
// scanning (C2) with a shared license cache (C3), a single batched
// vulnerability resolution pass (C4), and per-ecosystem reachability
// analysis (C5-C7), per spec.md §4.8.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/bazbom/bazbom"
	"github.com/bazbom/bazbom/internal/ecosystem"
	"github.com/bazbom/bazbom/internal/license"
	"github.com/bazbom/bazbom/internal/obslog"
	"github.com/bazbom/bazbom/internal/reachability"
	"github.com/bazbom/bazbom/internal/resolver"
	"github.com/bazbom/bazbom/internal/resolver/enrich"
	"github.com/bazbom/bazbom/internal/scanner"
)

// Dependencies carries Scan's live runtime collaborators: the advisory
// service client and the optional enrichment feeds. Kept separate from
// bazbom.Config, which is a pure value type of scalar settings, mirroring
// libvuln.Opts' split between its object fields (Client, UpdaterSets) and
// its tuning fields (MaxConnPool, UpdateInterval).
type Dependencies struct {
	// Transport queries the advisory service over the network, per spec.md
	// §4.4. Ignored when Config.OfflineMode is set (LocalMirror is used
	// instead, per spec.md §4.9's offline_mode option: "Resolver reads from
	// local mirror only"). A nil Transport with OfflineMode unset is
	// treated the same as no collaborator being available at all: every
	// Vulnerability list comes back empty and every ecosystem's resolver
	// stage reports ErrResolverUnavailable.
	Transport resolver.Transport
	// LocalMirror is the pre-fetched, in-memory advisory mirror
	// Config.OfflineMode reads from instead of Transport, per spec.md §6. A nil LocalMirror with
	// OfflineMode set also reports ErrResolverUnavailable for every batch.
	LocalMirror *resolver.LocalMirrorTransport
	// KEV is the CISA Known Exploited Vulnerabilities catalog, consulted
	// for exploit-maturity enrichment. Optional.
	KEV *enrich.KEV
	// EPSS is the FIRST Exploit Prediction Scoring System feed, consulted
	// for exploit-maturity enrichment. Optional.
	EPSS *enrich.EPSS
}

// Scan is the Orchestrator's public entry point, per spec.md §4.8:
// `scan(workspace_root, config) -> list of EcosystemScanResult`.
//
// Only a workspace root that doesn't exist (bazbom.ErrNotFound), a failure
// walking it during detection (bazbom.ErrInternal), or cancellation of ctx
// (bazbom.ErrCancelled) cause Scan itself to return an error; every other
// failure — a malformed manifest, a scanner timeout, a
// resolver outage, a partial call graph — is recorded on the affected
// EcosystemScanResult and Scan still returns successfully, per spec.md §7's
// propagation policy and invariant I5.
func Scan(ctx context.Context, workspaceRoot string, cfg bazbom.Config, deps Dependencies, sink ProgressSink) ([]bazbom.EcosystemScanResult, error) {
	cfg = cfg.WithDefaults()
	pub := newPublisher(sink)
	defer pub.close()

	// scanID correlates every log line and span this call emits with one
	// run, the same way libindex.Index's manifest hash ties a whole
	// indexing pass together in its own logs.
	scanID := uuid.New().String()

	scanCtx, span := tracer.Start(ctx, "orchestrator.Scan")
	defer span.End()
	span.SetAttributes(attribute.String("bazbom.scan_id", scanID), attribute.String("bazbom.workspace", workspaceRoot))
	scanCtx = obslog.With(scanCtx, "component", "orchestrator.Scan", "workspace", workspaceRoot, "scan_id", scanID)

	detections, err := ecosystem.Detect(scanCtx, workspaceRoot, cfg.Excludes)
	if err != nil {
		return nil, err
	}

	byEco := groupByEcosystem(detections)
	ecosystems := sortedEcosystems(byEco)
	slog.InfoContext(scanCtx, "ecosystems detected", "count", len(ecosystems), "ecosystems", ecosystems)

	licenses := &license.Cache{}
	registry := scanner.NewRegistry(licenses)

	var mu sync.Mutex // guards tracks/results while the scanner fan-out is in flight
	tracks := make(map[bazbom.Ecosystem]*track, len(ecosystems))
	results := make(map[bazbom.Ecosystem]*bazbom.EcosystemScanResult, len(ecosystems))
	for _, eco := range ecosystems {
		tracks[eco] = newTrack(eco)
	}

	if err := runScanners(scanCtx, cfg, registry, workspaceRoot, byEco, ecosystems, tracks, results, &mu, pub); err != nil {
		return nil, err
	}

	if !cfg.DisableVulnerabilities {
		if err := resolveVulnerabilities(scanCtx, cfg, deps, ecosystems, results, tracks); err != nil {
			return nil, err
		}
	}

	if err := runReachability(scanCtx, cfg, registry, workspaceRoot, byEco, ecosystems, tracks, results, pub); err != nil {
		return nil, err
	}

	for _, eco := range ecosystems {
		res := results[eco]
		for _, v := range res.Vulnerabilities {
			vulnerabilitiesTotal.WithLabelValues(string(eco), string(v.Reachability.Kind)).Inc()
		}
	}

	if ctx.Err() != nil {
		// The caller cancelled partway through; discard everything computed
		// so far rather than returning a result the caller no longer wants,
		// per spec.md §5's "partial results are discarded on cancellation".
		return nil, bazbom.Wrap("orchestrator.Scan", bazbom.ErrCancelled, ctx.Err())
	}

	out := make([]bazbom.EcosystemScanResult, 0, len(results))
	for _, eco := range ecosystems {
		res := *results[eco]
		res.ScanID = scanID
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ecosystem < out[j].Ecosystem })
	return out, nil
}

// runScanners fans out C2 over every detected ecosystem with concurrency
// bounded by cfg.MaxConcurrent, per spec.md §4.8 steps 3-6. Each ecosystem's
// pipeline runs under its own cfg.EcosystemTimeout-bounded context, so one
// slow or hanging ecosystem never delays or corrupts the others (I5).
//
// Grounded on indexer.LayerScanner.Scan / libindex's AffectedManifests: both
// fan out a bounded errgroup over independent units of work and let
// per-unit failures surface as values rather than propagated errors.
func runScanners(
	ctx context.Context,
	cfg bazbom.Config,
	registry scanner.Registry,
	workspaceRoot string,
	byEco map[bazbom.Ecosystem][]ecosystem.Detection,
	ecosystems []bazbom.Ecosystem,
	tracks map[bazbom.Ecosystem]*track,
	results map[bazbom.Ecosystem]*bazbom.EcosystemScanResult,
	mu *sync.Mutex,
	pub *publisher,
) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.MaxConcurrent)

	for _, eco := range ecosystems {
		eco := eco
		dets := byEco[eco]
		t := tracks[eco]

		g.Go(func() error {
			start := time.Now()
			t.advance(stateScanning)
			pub.publish(ProgressEvent{Ecosystem: eco, Phase: PhaseScanning, Message: "scan started"})

			adapter, ok := registry[eco]
			if !ok {
				err := fmt.Errorf("no scanner adapter registered for ecosystem %q", eco)
				setResult(mu, results, eco, &bazbom.EcosystemScanResult{
					Ecosystem: eco, Status: bazbom.ScannerFailed,
					Err: bazbom.Wrap("orchestrator.runScanners", bazbom.ErrInternal, err),
				})
				t.fail("no-adapter")
				return nil
			}

			ecoCtx, cancel := context.WithTimeout(gctx, cfg.EcosystemTimeout)
			defer cancel()
			pkgs, scanErr := scanEcosystem(ecoCtx, adapter, workspaceRoot, dets)
			scanDuration.WithLabelValues(string(eco)).Observe(time.Since(start).Seconds())

			if scanErr != nil {
				status, kind := classifyScanError(scanErr)
				slog.WarnContext(gctx, "ecosystem scan failed", "ecosystem", eco, "status", status, "error", scanErr)
				pub.publish(ProgressEvent{Ecosystem: eco, Phase: PhaseFailed, Message: scanErr.Error()})
				setResult(mu, results, eco, &bazbom.EcosystemScanResult{Ecosystem: eco, Status: status, Err: scanErr})
				t.fail(string(kind))
				return nil
			}

			packagesTotal.WithLabelValues(string(eco)).Add(float64(len(pkgs)))
			pub.publish(ProgressEvent{Ecosystem: eco, Phase: PhaseScanning, Processed: len(pkgs), Total: len(pkgs), Message: "scan complete"})
			var partial bool
			if pt, ok := adapter.(scanner.PartialTransitiveAdapter); ok {
				partial = pt.TransitivesUnresolved()
			}
			setResult(mu, results, eco, &bazbom.EcosystemScanResult{
				Ecosystem: eco, Packages: pkgs, Status: bazbom.ScannerOK,
				TransitiveResolutionPartial: partial,
			})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return bazbom.Wrap("orchestrator.runScanners", bazbom.ErrCancelled, err)
	}
	return nil
}

func setResult(mu *sync.Mutex, results map[bazbom.Ecosystem]*bazbom.EcosystemScanResult, eco bazbom.Ecosystem, res *bazbom.EcosystemScanResult) {
	mu.Lock()
	defer mu.Unlock()
	results[eco] = res
}

// scanEcosystem runs adapter.Scan over every detected directory for one
// ecosystem, merging their package lists, and races the call against ctx's
// deadline so a scanner that ignores cancellation still yields control at
// the ecosystem timeout boundary instead of blocking the whole fan-out.
func scanEcosystem(ctx context.Context, adapter scanner.Adapter, workspaceRoot string, dets []ecosystem.Detection) ([]bazbom.Package, error) {
	type result struct {
		pkgs []bazbom.Package
		err  error
	}
	done := make(chan result, 1)
	go func() {
		var all []bazbom.Package
		for _, d := range dets {
			pkgs, err := adapter.Scan(ctx, filepath.Join(workspaceRoot, d.Dir), d.ManifestFile)
			if err != nil {
				done <- result{err: err}
				return
			}
			all = append(all, pkgs...)
		}
		done <- result{pkgs: all}
	}()

	select {
	case <-ctx.Done():
		return nil, bazbom.Wrap("orchestrator.scanEcosystem", bazbom.ErrScannerTimeout, ctx.Err())
	case r := <-done:
		return r.pkgs, r.err
	}
}

// classifyScanError maps a scanner failure onto the ScannerStatus the
// owning EcosystemScanResult should carry.
func classifyScanError(err error) (bazbom.ScannerStatus, bazbom.ErrorKind) {
	kind, ok := bazbom.KindOf(err)
	if !ok {
		return bazbom.ScannerFailed, bazbom.ErrInternal
	}
	switch kind {
	case bazbom.ErrMalformedManifest:
		return bazbom.ScannerMalformed, kind
	case bazbom.ErrScannerTimeout:
		return bazbom.ScannerTimedOut, kind
	default:
		return bazbom.ScannerFailed, kind
	}
}

// resolveVulnerabilities runs a single batched C4 call over every
// successfully-scanned ecosystem's package union, then distributes the
// matched Vulnerabilities back onto their owning EcosystemScanResult, per
// spec.md §4.8 step 7. Results are sorted by (package pURL, advisory id)
// per spec.md §5's determinism guarantee.
func resolveVulnerabilities(
	ctx context.Context,
	cfg bazbom.Config,
	deps Dependencies,
	ecosystems []bazbom.Ecosystem,
	results map[bazbom.Ecosystem]*bazbom.EcosystemScanResult,
	tracks map[bazbom.Ecosystem]*track,
) error {
	var transport resolver.Transport
	switch {
	case cfg.OfflineMode && deps.LocalMirror != nil:
		transport = deps.LocalMirror
	case cfg.OfflineMode:
		transport = resolver.Unavailable()
	case deps.Transport != nil:
		transport = deps.Transport
	default:
		transport = resolver.Unavailable()
	}

	var allPkgs []bazbom.Package
	for _, eco := range ecosystems {
		if res := results[eco]; res.Status == bazbom.ScannerOK {
			allPkgs = append(allPkgs, res.Packages...)
		}
	}

	vulnsByPURL, batchStatuses, err := resolver.Resolve(ctx, allPkgs, resolver.Config{
		Transport:            transport,
		BatchSize:            cfg.BatchSize,
		MaxConcurrentBatches: cfg.MaxConcurrent,
		KEV:                  deps.KEV,
		EPSS:                 deps.EPSS,
	})
	if err != nil {
		return err
	}
	for _, bs := range batchStatuses {
		slog.WarnContext(ctx, "resolver batch failed, continuing with partial results",
			"batch", bs.BatchIndex, "packages", bs.PackageCount, "reason", bs.Reason)
	}

	for _, eco := range ecosystems {
		res := results[eco]
		if res.Status != bazbom.ScannerOK {
			continue
		}
		for _, pkg := range res.Packages {
			purl, err := pkg.PURL()
			if err != nil {
				continue
			}
			res.Vulnerabilities = append(res.Vulnerabilities, vulnsByPURL[purl]...)
		}
		sort.Slice(res.Vulnerabilities, func(i, j int) bool {
			pi, _ := res.Vulnerabilities[i].Package.PURL()
			pj, _ := res.Vulnerabilities[j].Package.PURL()
			if pi != pj {
				return pi < pj
			}
			return res.Vulnerabilities[i].Advisory.ID < res.Vulnerabilities[j].Advisory.ID
		})
		tracks[eco].advance(stateResolved)
		slog.DebugContext(ctx, "ecosystem resolved", "ecosystem", eco, "vulnerabilities", len(res.Vulnerabilities))
	}
	return nil
}

// runReachability runs C5-C7 per ecosystem, bound by cfg.MaxConcurrent, per
// spec.md §4.8 step 8. Ecosystems whose adapter has no
// scanner.ReachabilityScanner capability, or whose Config disables
// reachability entirely, get every Vulnerability tagged Unknown with the
// appropriate reason instead of being skipped outright — spec.md §3's
// Unknown-is-conservative rule applies uniformly regardless of why
// reachability didn't run.
func runReachability(
	ctx context.Context,
	cfg bazbom.Config,
	registry scanner.Registry,
	workspaceRoot string,
	byEco map[bazbom.Ecosystem][]ecosystem.Detection,
	ecosystems []bazbom.Ecosystem,
	tracks map[bazbom.Ecosystem]*track,
	results map[bazbom.Ecosystem]*bazbom.EcosystemScanResult,
	pub *publisher,
) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.MaxConcurrent)

	for _, eco := range ecosystems {
		eco := eco
		res := results[eco]
		t := tracks[eco]

		g.Go(func() error {
			if res.Status != bazbom.ScannerOK {
				return nil
			}
			t.advance(stateReachability)
			pub.publish(ProgressEvent{Ecosystem: eco, Phase: PhaseReachability, Total: len(res.Vulnerabilities)})

			switch {
			case len(res.Vulnerabilities) == 0:
				// nothing to tag.
			case !cfg.EnableReachability:
				res.Vulnerabilities = markUnknown(res.Vulnerabilities, "reachability analysis disabled")
			default:
				adapter := registry[eco]
				rs, supported := adapter.(scanner.ReachabilityScanner)
				if !supported {
					res.Vulnerabilities = markUnknown(res.Vulnerabilities, "reachability-unsupported")
					break
				}
				ecoCtx, cancel := context.WithTimeout(gctx, cfg.EcosystemTimeout)
				vulns, timedOut := tagEcosystemReachability(ecoCtx, rs, workspaceRoot, byEco[eco], cfg, eco, res.Vulnerabilities)
				cancel()
				if timedOut {
					slog.WarnContext(gctx, "reachability analysis timed out", "ecosystem", eco, "timeout", cfg.EcosystemTimeout)
					res.Vulnerabilities = markUnknown(res.Vulnerabilities, "reachability analysis timed out")
					res.Reachability = bazbom.SummarizeReachability(res.Vulnerabilities)
					t.fail(string(bazbom.ErrScannerTimeout))
					return nil
				}
				res.Vulnerabilities = vulns
			}

			res.Reachability = bazbom.SummarizeReachability(res.Vulnerabilities)
			t.advance(stateDone)
			pub.publish(ProgressEvent{Ecosystem: eco, Phase: PhaseDone, Message: "done"})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return bazbom.Wrap("orchestrator.runReachability", bazbom.ErrCancelled, err)
	}
	return nil
}

// tagEcosystemReachability runs one ecosystem's C6 (call-graph build) and C7
// (tagging) pipeline, racing it against ecoCtx's deadline the same way
// scanEcosystem races a scanner's Scan call: reachability.Build's own
// internal budget (bazbom.DefaultReachabilityBudget, spec.md §4.6) bounds
// graph construction in isolation, but artifact discovery
// (ArtifactsForReachability) and the build call together are the
// "scanner+reachability pipeline" spec.md §4.8 step 6 requires
// cfg.EcosystemTimeout to wrap as a whole. Returns timedOut=true if ecoCtx's
// deadline elapses before the pipeline finishes, in which case vulns is nil
// and the caller must not use it.
func tagEcosystemReachability(
	ecoCtx context.Context,
	rs scanner.ReachabilityScanner,
	workspaceRoot string,
	dets []ecosystem.Detection,
	cfg bazbom.Config,
	eco bazbom.Ecosystem,
	vulns []bazbom.Vulnerability,
) (tagged []bazbom.Vulnerability, timedOut bool) {
	done := make(chan []bazbom.Vulnerability, 1)
	go func() {
		var dirs []string
		for _, d := range dets {
			ds, err := rs.ArtifactsForReachability(ecoCtx, filepath.Join(workspaceRoot, d.Dir))
			if err != nil {
				slog.WarnContext(ecoCtx, "reachability artifact discovery failed", "ecosystem", eco, "dir", d.Dir, "error", err)
				continue
			}
			dirs = append(dirs, ds...)
		}
		graph, buildErr := reachability.Build(ecoCtx, dirs, reachability.BuildConfig{
			EntrypointOverrides: cfg.EntrypointOverrides[eco],
		})
		if buildErr != nil {
			done <- markUnknown(vulns, "call graph construction failed: "+buildErr.Error())
			return
		}
		done <- reachability.Tag(graph, vulns, bazbom.DefaultShortestPaths)
	}()

	select {
	case <-ecoCtx.Done():
		return nil, true
	case out := <-done:
		return out, false
	}
}

// markUnknown returns a copy of vulns with every Reachability verdict
// replaced by Unknown{reason}.
func markUnknown(vulns []bazbom.Vulnerability, reason string) []bazbom.Vulnerability {
	out := make([]bazbom.Vulnerability, len(vulns))
	for i, v := range vulns {
		out[i] = v
		out[i].Reachability = bazbom.ReachabilityVerdict{Kind: bazbom.ReachabilityUnknown, Reason: reason}
	}
	return out
}

func groupByEcosystem(dets []ecosystem.Detection) map[bazbom.Ecosystem][]ecosystem.Detection {
	out := make(map[bazbom.Ecosystem][]ecosystem.Detection)
	for _, d := range dets {
		out[d.Ecosystem] = append(out[d.Ecosystem], d)
	}
	return out
}

func sortedEcosystems(byEco map[bazbom.Ecosystem][]ecosystem.Detection) []bazbom.Ecosystem {
	out := make([]bazbom.Ecosystem, 0, len(byEco))
	for eco := range byEco {
		out = append(out, eco)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
