package reachability

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bazbom/bazbom"
)

func graphFixture() *bazbom.CallGraph {
	return &bazbom.CallGraph{
		Entrypoints: []bazbom.Entrypoint{
			{FunctionIdentifier: "main.main", Kind: bazbom.EntrypointApplicationMain},
		},
		Methods: map[string]*bazbom.Method{
			"main.main": {
				Identifier: "main.main",
				Reachable:  true,
				Edges:      []bazbom.Edge{{Callee: "app.Handler"}},
			},
			"app.Handler": {
				Identifier: "app.Handler",
				Reachable:  true,
				Edges:      []bazbom.Edge{{Callee: "log4j.LogManager.getLogger"}},
			},
			"log4j.LogManager.getLogger": {
				Identifier: "log4j.LogManager.getLogger",
				Reachable:  true,
			},
			"commons.collections.InvokerTransformer.transform": {
				Identifier: "commons.collections.InvokerTransformer.transform",
				Reachable:  false,
			},
		},
	}
}

func TestTagReachable(t *testing.T) {
	graph := graphFixture()
	vulns := []bazbom.Vulnerability{
		{Advisory: bazbom.Advisory{ID: "CVE-2021-44228", VulnerableSymbols: []string{"log4j.LogManager.getLogger"}}},
	}
	got := Tag(graph, vulns, 3)
	if got[0].Reachability.Kind != bazbom.ReachabilityReachable {
		t.Fatalf("want Reachable, got %+v", got[0].Reachability)
	}
	want := bazbom.CallChain{"main.main", "app.Handler", "log4j.LogManager.getLogger"}
	if len(got[0].Reachability.Paths) == 0 || !cmp.Equal(got[0].Reachability.Paths[0], want) {
		t.Fatalf("unexpected witness path: %+v", got[0].Reachability.Paths)
	}
}

func TestTagUnreachable(t *testing.T) {
	graph := graphFixture()
	vulns := []bazbom.Vulnerability{
		{Advisory: bazbom.Advisory{ID: "CVE-2015-7501", VulnerableSymbols: []string{"commons.collections.InvokerTransformer.transform"}}},
	}
	got := Tag(graph, vulns, 3)
	if got[0].Reachability.Kind != bazbom.ReachabilityUnreachable {
		t.Fatalf("want Unreachable, got %+v", got[0].Reachability)
	}
}

func TestTagUnknownNoSymbols(t *testing.T) {
	graph := graphFixture()
	vulns := []bazbom.Vulnerability{{Advisory: bazbom.Advisory{ID: "CVE-no-symbols"}}}
	got := Tag(graph, vulns, 3)
	if got[0].Reachability.Kind != bazbom.ReachabilityUnknown {
		t.Fatalf("want Unknown, got %+v", got[0].Reachability)
	}
}

// TestTagUnresolvedDynamicDispatchIsReachable covers spec.md §4.6's
// unknown-callee rule: a vulnerable symbol that CHA never attached a static
// edge to (e.g. invoked only through a reflection-style dynamic dispatch)
// must still be tagged Reachable if its name matches an UnresolvedCall
// reached from an entrypoint, rather than falling back to Unreachable or
// Unknown.
func TestTagUnresolvedDynamicDispatchIsReachable(t *testing.T) {
	graph := graphFixture()
	graph.Unresolved = []bazbom.UnresolvedCall{
		{Caller: "app.Handler", Expr: "transform"},
	}
	vulns := []bazbom.Vulnerability{
		{Advisory: bazbom.Advisory{ID: "CVE-2015-7501", VulnerableSymbols: []string{"commons.collections.InvokerTransformer.transform"}}},
	}
	got := Tag(graph, vulns, 3)
	if got[0].Reachability.Kind != bazbom.ReachabilityReachable {
		t.Fatalf("want Reachable via unresolved dispatch, got %+v", got[0].Reachability)
	}
	want := bazbom.CallChain{"main.main", "app.Handler", "commons.collections.InvokerTransformer.transform"}
	if len(got[0].Reachability.Paths) == 0 || !cmp.Equal(got[0].Reachability.Paths[0], want) {
		t.Fatalf("unexpected witness path: %+v", got[0].Reachability.Paths)
	}
}

// TestTagUnresolvedCallFromUnreachableCallerStaysUnreachable asserts the
// cross-reference only fires for unresolved call sites actually reached
// from an entrypoint — an unresolved dispatch inside dead code can't
// demonstrate reachability any more than a resolved edge there could.
func TestTagUnresolvedCallFromUnreachableCallerStaysUnreachable(t *testing.T) {
	graph := graphFixture()
	graph.Methods["dead.Caller"] = &bazbom.Method{Identifier: "dead.Caller", Reachable: false}
	graph.Unresolved = []bazbom.UnresolvedCall{
		{Caller: "dead.Caller", Expr: "transform"},
	}
	vulns := []bazbom.Vulnerability{
		{Advisory: bazbom.Advisory{ID: "CVE-2015-7501", VulnerableSymbols: []string{"commons.collections.InvokerTransformer.transform"}}},
	}
	got := Tag(graph, vulns, 3)
	if got[0].Reachability.Kind != bazbom.ReachabilityUnreachable {
		t.Fatalf("want Unreachable, got %+v", got[0].Reachability)
	}
}

func TestTagPartialGraphForcesUnknown(t *testing.T) {
	graph := graphFixture()
	graph.Partial = true
	vulns := []bazbom.Vulnerability{
		{Advisory: bazbom.Advisory{ID: "CVE-2021-44228", VulnerableSymbols: []string{"log4j.LogManager.getLogger"}}},
	}
	got := Tag(graph, vulns, 3)
	if got[0].Reachability.Kind != bazbom.ReachabilityUnknown {
		t.Fatalf("want Unknown on partial graph, got %+v", got[0].Reachability)
	}
}
