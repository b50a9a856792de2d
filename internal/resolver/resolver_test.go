package resolver

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bazbom/bazbom"
)

func testPackages(n int) []bazbom.Package {
	out := make([]bazbom.Package, n)
	for i := range out {
		out[i] = bazbom.Package{
			Ecosystem: bazbom.EcosystemNpm,
			Name:      fmt.Sprintf("pkg-%d", i),
			Version:   "1.0.0",
		}
	}
	return out
}

// countingTransport counts how many Query calls it receives, to verify
// spec.md §8 testable property 5: N packages with batch size B issues
// exactly ceil(N/B) outgoing batch requests in the happy path.
type countingTransport struct {
	calls int
}

func (c *countingTransport) Query(_ context.Context, purls []bazbom.PackageURL) (map[bazbom.PackageURL][]bazbom.Advisory, error) {
	c.calls++
	return nil, nil
}

func TestResolveIssuesCeilNOverBBatches(t *testing.T) {
	tr := &countingTransport{}
	packages := testPackages(25)
	_, statuses, err := Resolve(context.Background(), packages, Config{
		Transport:            tr,
		BatchSize:            10,
		MaxConcurrentBatches: 4,
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(statuses) != 0 {
		t.Fatalf("expected no batch failures, got %v", statuses)
	}
	if want := 3; tr.calls != want { // ceil(25/10) == 3
		t.Fatalf("Transport.Query called %d times, want %d", tr.calls, want)
	}
}

func TestResolveUnavailableTransportIsNonFatal(t *testing.T) {
	packages := testPackages(5)
	vulns, statuses, err := Resolve(context.Background(), packages, Config{
		Transport: Unavailable(),
		BatchSize: 1000,
	})
	if err != nil {
		t.Fatalf("Resolve should not return a top-level error for a down transport: %v", err)
	}
	if len(vulns) != 0 {
		t.Fatalf("expected zero vulnerabilities from an unavailable transport, got %d", len(vulns))
	}
	if len(statuses) != 1 {
		t.Fatalf("expected exactly one BatchStatus, got %d", len(statuses))
	}
	if statuses[0].PackageCount != 5 {
		t.Fatalf("BatchStatus.PackageCount = %d, want 5", statuses[0].PackageCount)
	}
	if statuses[0].BatchID == "" {
		t.Fatal("expected a non-empty BatchID for log correlation")
	}
}

func TestResolveLocalMirrorAppliesApplicabilityAndDedup(t *testing.T) {
	pkg := bazbom.Package{Ecosystem: bazbom.EcosystemMaven, Name: "log4j-core", Coordinate: "org.apache.logging.log4j", Version: "2.14.1"}
	purl, err := pkg.PURL()
	if err != nil {
		t.Fatalf("PURL: %v", err)
	}

	affected := bazbom.AffectedRange{Ecosystem: bazbom.EcosystemMaven, Name: "log4j-core", Range: ">=2.0.0,<2.15.0"}
	mirror := &LocalMirrorTransport{
		Advisories: map[bazbom.PackageURL][]bazbom.Advisory{
			purl: {
				{ID: "CVE-2021-44228", CVSSBaseScore: 10.0, Affected: []bazbom.AffectedRange{affected}},
				{ID: "GHSA-jfh8-c2jp-5v3q", Aliases: []string{"CVE-2021-44228"}, CVSSBaseScore: 9.0, Affected: []bazbom.AffectedRange{affected}},
				{ID: "CVE-9999-00000", CVSSBaseScore: 2.0, Affected: []bazbom.AffectedRange{
					{Ecosystem: bazbom.EcosystemMaven, Name: "log4j-core", Range: ">=9.0.0"},
				}},
			},
		},
	}

	vulns, statuses, err := Resolve(context.Background(), []bazbom.Package{pkg}, Config{
		Transport: mirror,
		BatchSize: 1000,
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(statuses) != 0 {
		t.Fatalf("expected no batch failures, got %v", statuses)
	}

	got := vulns[purl]
	if len(got) != 1 {
		t.Fatalf("expected the two CVE-2021-44228 records to dedup to one and the inapplicable advisory to drop, got %d: %+v", len(got), got)
	}
	if got[0].Advisory.ID != "CVE-2021-44228" {
		t.Fatalf("Advisory.ID = %q, want CVE-2021-44228", got[0].Advisory.ID)
	}
	if got[0].Advisory.Severity != bazbom.SeverityCritical {
		t.Fatalf("deduped record should keep the richer/higher-severity one: got %v", got[0].Advisory.Severity)
	}
	if got[0].Reachability.Kind != bazbom.ReachabilityUnknown {
		t.Fatalf("Resolve must not itself decide reachability: got %v", got[0].Reachability.Kind)
	}
}

func TestResolveCancellationPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := Resolve(ctx, testPackages(1), Config{
		Transport: Unavailable(),
		BatchSize: 1000,
	})
	if err == nil {
		t.Fatal("expected Resolve to surface an error for an already-cancelled context")
	}
}

func TestBatches(t *testing.T) {
	purls := make([]bazbom.PackageURL, 7)
	chunks := batches(purls, 3)
	if len(chunks) != 3 {
		t.Fatalf("batches() returned %d chunks, want 3", len(chunks))
	}
	if len(chunks[0]) != 3 || len(chunks[1]) != 3 || len(chunks[2]) != 1 {
		t.Fatalf("unexpected chunk sizes: %v", chunks)
	}
}

func TestDoublingCaps(t *testing.T) {
	wait := 250 * time.Millisecond
	for i := 0; i < 10; i++ {
		wait = doubling(wait, 8*time.Second)
	}
	if wait != 8*time.Second {
		t.Fatalf("doubling() = %v, want capped at 8s", wait)
	}
}
