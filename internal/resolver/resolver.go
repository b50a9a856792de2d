package resolver

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bazbom/bazbom"
	"github.com/bazbom/bazbom/internal/obslog"
	"github.com/bazbom/bazbom/internal/resolver/enrich"
)

// BatchStatus records one batch's terminal failure, per spec.md §4.4's
// failure model: "Each batch failure produces zero Vulnerability records
// for that batch's packages and one ResolverStatus::BatchFailed{reason,
// package_count} entry in the resolver's status report." BatchIndex is the
// spec-mandated identifier (stable, sortable); BatchID is a supplementary
// opaque correlation id for tying a batch's failure log line back to the
// retry/backoff debug lines queryWithRetry emits for the same batch.
type BatchStatus struct {
	BatchIndex   int    `json:"batch_index"`
	BatchID      string `json:"batch_id"`
	PackageCount int    `json:"package_count"`
	Reason       string `json:"reason"`
}

// Config configures one Resolve call.
type Config struct {
	Transport Transport
	BatchSize int
	// MaxConcurrentBatches bounds in-flight batch queries, mirroring
	// claircore's internal/matcher.Match worker-pool fan-out
	// (runtime.GOMAXPROCS(0) there; a caller-supplied bound here since the
	// Resolver shares its concurrency budget with the Orchestrator's
	// per-ecosystem fan-out).
	MaxConcurrentBatches int
	KEV                  *enrich.KEV
	EPSS                 *enrich.EPSS
}

// Resolve looks up every package's advisories in batches, attaches
// exploit-maturity enrichment, normalizes severity, and returns one
// Vulnerability per (package, advisory) match — every Vulnerability's
// Reachability starts as ReachabilityUnknown; internal/reachability (or the
// orchestrator's fallback for ecosystems it doesn't cover) fills that in
// later.
//
// A per-batch failure never aborts the call: it is recorded as a
// BatchStatus and the remaining batches' results are still returned,
// matching the "Resolver returns partial results" failure model. Resolve
// only returns a non-nil error when ctx itself is done — the one case
// where returning partial results would misrepresent work that was
// actually abandoned, not merely failed.
//
// Grounded on claircore's internal/matcher.Match: a fan-out of concurrent
// workers over chan-delivered results, generalized from "one worker per
// registered Matcher" to "one worker per package batch."
func Resolve(ctx context.Context, packages []bazbom.Package, cfg Config) (map[bazbom.PackageURL][]bazbom.Vulnerability, []BatchStatus, error) {
	purlToPkg := make(map[bazbom.PackageURL]bazbom.Package, len(packages))
	purls := make([]bazbom.PackageURL, 0, len(packages))
	for _, p := range packages {
		purl, err := p.PURL()
		if err != nil {
			slog.WarnContext(ctx, "skipping package with no purl mapping", "ecosystem", p.Ecosystem, "name", p.Name, "error", err)
			continue
		}
		purlToPkg[purl] = p
		purls = append(purls, purl)
	}
	sort.Slice(purls, func(i, j int) bool { return purls[i] < purls[j] })

	chunks := batches(purls, cfg.BatchSize)
	results := make([]map[bazbom.PackageURL][]bazbom.Advisory, len(chunks))

	limit := cfg.MaxConcurrentBatches
	if limit <= 0 {
		limit = 1
	}
	var (
		mu       sync.Mutex
		statuses []BatchStatus
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		batchID := uuid.New().String()
		g.Go(func() error {
			res, err := queryWithRetry(obslog.With(gctx, "batch_id", batchID), cfg.Transport, chunk, defaultBatchConfig)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				slog.WarnContext(ctx, "resolver batch failed, continuing with remaining batches",
					"batch", i, "batch_id", batchID, "packages", len(chunk), "error", err)
				mu.Lock()
				statuses = append(statuses, BatchStatus{BatchIndex: i, BatchID: batchID, PackageCount: len(chunk), Reason: err.Error()})
				mu.Unlock()
				return nil
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, bazbom.Wrap("resolver.Resolve", bazbom.ErrCancelled, err)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].BatchIndex < statuses[j].BatchIndex })

	out := make(map[bazbom.PackageURL][]bazbom.Vulnerability)
	for _, res := range results {
		for purl, advisories := range res {
			pkg, ok := purlToPkg[purl]
			if !ok {
				continue
			}
			for _, adv := range dedupAdvisories(advisories) {
				if !applicable(pkg, adv) {
					continue
				}
				adv.Severity = normalizeSeverity(adv)
				adv.ExploitMaturity = enrichAdvisory(adv, cfg.KEV, cfg.EPSS)
				out[purl] = append(out[purl], bazbom.Vulnerability{
					Package:  pkg,
					Advisory: adv,
					Reachability: bazbom.ReachabilityVerdict{
						Kind:   bazbom.ReachabilityUnknown,
						Reason: "reachability not yet evaluated",
					},
				})
			}
		}
	}
	return out, statuses, nil
}

// enrichAdvisory attaches KEV/EPSS enrichment to adv, looking up by the
// advisory's own ID and any aliases, per spec.md §4.4 item 4.
func enrichAdvisory(adv bazbom.Advisory, kev *enrich.KEV, epss *enrich.EPSS) *bazbom.ExploitMaturity {
	if kev == nil && epss == nil {
		return nil
	}
	known := kev.Contains(adv.ID)
	best := epss.Score(adv.ID)
	for _, alias := range adv.Aliases {
		if kev.Contains(alias) {
			known = true
		}
		if s := epss.Score(alias); s > best {
			best = s
		}
	}
	if !known && best < 0 {
		return nil
	}
	return &bazbom.ExploitMaturity{KnownExploited: known, EPSSScore: best}
}

// dedupAdvisories collapses advisories referring to the same underlying
// vulnerability (sharing an ID or an alias) into the single richest record,
// per spec.md §4.4 item 5: prefer the record with a higher normalized
// severity, breaking ties by whichever record carries more Affected range
// detail.
func dedupAdvisories(advisories []bazbom.Advisory) []bazbom.Advisory {
	type group struct {
		ids []string
		adv bazbom.Advisory
	}
	var groups []group

	idsOf := func(a bazbom.Advisory) []string { return append([]string{a.ID}, a.Aliases...) }
	overlaps := func(a, b []string) bool {
		for _, x := range a {
			for _, y := range b {
				if x == y {
					return true
				}
			}
		}
		return false
	}
	richer := func(a, b bazbom.Advisory) bool {
		asev, bsev := normalizeSeverity(a), normalizeSeverity(b)
		if asev != bsev {
			return asev > bsev
		}
		return len(a.Affected) > len(b.Affected)
	}

	for _, adv := range advisories {
		ids := idsOf(adv)
		merged := false
		for i := range groups {
			if overlaps(groups[i].ids, ids) {
				if richer(adv, groups[i].adv) {
					groups[i].adv = adv
				}
				groups[i].ids = append(groups[i].ids, ids...)
				merged = true
				break
			}
		}
		if !merged {
			groups = append(groups, group{ids: ids, adv: adv})
		}
	}

	out := make([]bazbom.Advisory, len(groups))
	for i, g := range groups {
		out[i] = g.adv
	}
	return out
}
