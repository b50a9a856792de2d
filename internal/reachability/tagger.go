package reachability

import (
	"container/list"
	"sort"
	"strings"

	"github.com/bazbom/bazbom"
)

// Tag computes a bazbom.ReachabilityVerdict for every Vulnerability against
// graph, per spec.md §4.7. Vulnerabilities for packages graph has no
// information about (e.g. a different ecosystem folded into the same batch
// by mistake) are left untouched by the caller — Tag assumes every vuln
// passed in belongs to the ecosystem graph was built for.
//
// Grounded on golang-vuln/vulncheck/witness.go's breadth-first witness
// search, generalized from "shortest import chain per vulnerable package"
// to "up to k shortest call chains per vulnerable symbol."
func Tag(graph *bazbom.CallGraph, vulns []bazbom.Vulnerability, k int) []bazbom.Vulnerability {
	if k <= 0 {
		k = bazbom.DefaultShortestPaths
	}
	out := make([]bazbom.Vulnerability, len(vulns))
	for i, v := range vulns {
		out[i] = v
		out[i].Reachability = tagOne(graph, v.Advisory, k)
	}
	return out
}

func tagOne(graph *bazbom.CallGraph, adv bazbom.Advisory, k int) bazbom.ReachabilityVerdict {
	if len(adv.VulnerableSymbols) == 0 {
		return bazbom.ReachabilityVerdict{
			Kind:   bazbom.ReachabilityUnknown,
			Reason: "advisory carries no vulnerable-symbol detail",
		}
	}
	if graph.Partial {
		return bazbom.ReachabilityVerdict{
			Kind:   bazbom.ReachabilityUnknown,
			Reason: "call graph construction hit its time budget (partial=true)",
		}
	}

	var present []string
	for _, sym := range adv.VulnerableSymbols {
		if _, ok := graph.Methods[sym]; ok {
			present = append(present, sym)
		}
	}

	// spec.md §4.6's unknown-callee rule: a call site CHA couldn't expand
	// into a static edge is recorded as an UnresolvedCall rather than
	// dropped, and "the symbol is marked reachable if it matches a
	// vulnerable-symbol name from C4." A reachable caller dispatching
	// through an unresolved call that names one of this advisory's
	// vulnerable symbols is treated as reaching that symbol, the same way
	// an interface-dispatch edge CHA did manage to expand would be.
	unresolvedHits := unresolvedMatches(graph, adv.VulnerableSymbols)

	if len(present) == 0 && len(unresolvedHits) == 0 {
		// spec.md §3 invariant I4: Unreachable requires the vulnerable
		// symbol to actually be present in the graph's corpus. If none of
		// the advisory's symbols were even found (statically, or via a
		// matching unresolved call site), the graph simply never loaded
		// that code — the conservative answer is Unknown, not Unreachable.
		return bazbom.ReachabilityVerdict{
			Kind:   bazbom.ReachabilityUnknown,
			Reason: "vulnerable symbol not present in analyzed call-graph corpus",
		}
	}

	reachableSymbols := make(map[string]bool, len(present)+len(unresolvedHits))
	for _, sym := range present {
		if graph.Methods[sym].Reachable {
			reachableSymbols[sym] = true
		}
	}
	for sym := range unresolvedHits {
		reachableSymbols[sym] = true
	}
	if len(reachableSymbols) == 0 {
		return bazbom.ReachabilityVerdict{Kind: bazbom.ReachabilityUnreachable}
	}

	symbols := make([]string, 0, len(reachableSymbols))
	for sym := range reachableSymbols {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	var paths []bazbom.CallChain
	for _, sym := range symbols {
		var chains []bazbom.CallChain
		if uc, ok := unresolvedHits[sym]; ok && !(graph.Methods[sym] != nil && graph.Methods[sym].Reachable) {
			chains = unresolvedChains(graph, uc, sym, k-len(paths))
		} else {
			chains = shortestChains(graph, sym, k-len(paths))
		}
		for _, p := range chains {
			paths = append(paths, p)
			if len(paths) >= k {
				break
			}
		}
		if len(paths) >= k {
			break
		}
	}
	return bazbom.ReachabilityVerdict{Kind: bazbom.ReachabilityReachable, Paths: paths}
}

// unresolvedMatches returns, for every symbol in symbols that names an
// UnresolvedCall reached from an entrypoint, the matching UnresolvedCall —
// keyed by the vulnerable symbol string, not the call site, since only one
// witness is needed per symbol. graph.Unresolved entries whose Caller isn't
// itself marked Reachable are skipped: an unresolved dispatch that's never
// executed can't demonstrate reachability any more than a resolved one
// could.
func unresolvedMatches(graph *bazbom.CallGraph, symbols []string) map[string]bazbom.UnresolvedCall {
	hits := make(map[string]bazbom.UnresolvedCall)
	for _, uc := range graph.Unresolved {
		caller, ok := graph.Methods[uc.Caller]
		if !ok || !caller.Reachable {
			continue
		}
		for _, sym := range symbols {
			if _, already := hits[sym]; already {
				continue
			}
			if symbolName(sym) == uc.Expr {
				hits[sym] = uc
			}
		}
	}
	return hits
}

// symbolName returns the trailing identifier of a fully-qualified function
// or method symbol — "Method" from "(pkg.Type).Method", "Func" from
// "pkg.Func" — the granularity an UnresolvedCall's Expr is recorded at,
// since CHA's interface-method view and an advisory's declared symbol are
// unlikely to agree on package/receiver qualification.
func symbolName(sym string) string {
	if i := strings.LastIndexByte(sym, '.'); i >= 0 {
		return sym[i+1:]
	}
	return sym
}

// unresolvedChains builds witness paths for a vulnerable symbol reached
// only through an unresolved dynamic dispatch: every shortest chain from an
// entrypoint to the call site's Caller, with the symbol appended as the
// final, dynamically-dispatched hop.
func unresolvedChains(graph *bazbom.CallGraph, uc bazbom.UnresolvedCall, sym string, k int) []bazbom.CallChain {
	if k <= 0 {
		return nil
	}
	callerChains := shortestChains(graph, uc.Caller, k)
	out := make([]bazbom.CallChain, 0, len(callerChains))
	for _, c := range callerChains {
		chain := make(bazbom.CallChain, len(c)+1)
		copy(chain, c)
		chain[len(c)] = sym
		out = append(out, chain)
	}
	return out
}

// shortestChains finds up to k shortest call chains from any Entrypoint in
// graph to target, via a reverse breadth-first search over the (small,
// already-built) edge set. Ties are broken lexicographically by the path's
// node sequence, per spec.md §4.7.
func shortestChains(graph *bazbom.CallGraph, target string, k int) []bazbom.CallChain {
	if k <= 0 {
		return nil
	}

	// Build a reverse adjacency: callee -> callers, so the search walks
	// from the vulnerable symbol back up toward an entrypoint — the
	// direction vulncheck's own witness.go search uses.
	reverse := make(map[string][]string)
	for id, m := range graph.Methods {
		for _, e := range m.Edges {
			reverse[e.Callee] = append(reverse[e.Callee], id)
		}
	}
	roots := make(map[string]bool, len(graph.Entrypoints))
	for _, e := range graph.Entrypoints {
		roots[e.FunctionIdentifier] = true
	}

	type node struct {
		id   string
		path []string // target-first order, reversed at the end
	}
	visited := map[string]bool{target: true}
	queue := list.New()
	queue.PushBack(node{id: target, path: []string{target}})

	var found []bazbom.CallChain
	for queue.Len() > 0 && len(found) < k {
		front := queue.Remove(queue.Front()).(node)
		if roots[front.id] {
			chain := make(bazbom.CallChain, len(front.path))
			for i, id := range front.path {
				chain[len(front.path)-1-i] = id
			}
			found = append(found, chain)
			continue
		}
		callers := append([]string(nil), reverse[front.id]...)
		sort.Strings(callers)
		for _, caller := range callers {
			if visited[caller] {
				continue
			}
			visited[caller] = true
			next := append(append([]string(nil), front.path...), caller)
			queue.PushBack(node{id: caller, path: next})
		}
	}

	sort.Slice(found, func(i, j int) bool {
		if len(found[i]) != len(found[j]) {
			return len(found[i]) < len(found[j])
		}
		for x := range found[i] {
			if found[i][x] != found[j][x] {
				return found[i][x] < found[j][x]
			}
		}
		return false
	})
	if len(found) > k {
		found = found[:k]
	}
	return found
}
