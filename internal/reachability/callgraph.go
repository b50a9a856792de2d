package reachability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/tools/go/callgraph"
	"golang.org/x/tools/go/callgraph/cha"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/bazbom/bazbom"
	"github.com/bazbom/bazbom/internal/obslog"
)

// BuildConfig configures one Build call.
type BuildConfig struct {
	// Budget is the soft wall-clock cap on graph construction, per spec.md
	// §4.6. Zero means bazbom.DefaultReachabilityBudget.
	Budget time.Duration
	// EntrypointOverrides are added to the discovered Entrypoint set, per
	// spec.md §4.9's entrypoint_overrides configuration option.
	EntrypointOverrides []bazbom.Entrypoint
}

// Build loads the Go packages rooted at dirs, constructs an
// over-approximate call graph with golang.org/x/tools/go/callgraph/cha (the
// same class-hierarchy analysis golang.org/x/vuln/vulncheck uses: every
// declared implementation of a dispatched interface method is included as a
// call target, per spec.md §4.6's virtual-dispatch rule), and marks the
// subset reachable from the detected entrypoints.
//
// Grounded on vulncheck.Convert + vulncheck's CHA-based construction
// (golang-vuln/vulncheck/vulncheck.go), adapted to build bazbom's own
// CallGraph/Method/Edge shape directly instead of vulncheck's
// FuncNode/CallSite graph, since this module doesn't need vulncheck's
// separate import-graph and require-graph views.
func Build(ctx context.Context, dirs []string, cfg BuildConfig) (*bazbom.CallGraph, error) {
	budget := cfg.Budget
	if budget <= 0 {
		budget = bazbom.DefaultReachabilityBudget
	}
	deadline := time.Now().Add(budget)
	ctx = obslog.With(ctx, "component", "reachability.Build")

	pkgs, err := loadPackages(ctx, dirs)
	if err != nil {
		return nil, bazbom.Wrap("reachability.Build", bazbom.ErrGraphPartial, err)
	}
	if len(pkgs) == 0 {
		return &bazbom.CallGraph{}, nil
	}

	prog, ssaPkgs := ssautil.AllPackages(pkgs, ssa.InstantiateGenerics)
	prog.Build()

	cg := cha.CallGraph(prog)
	entries, dynamicFanout := detectEntrypoints(ssaPkgs, cfg.EntrypointOverrides)

	out := &bazbom.CallGraph{
		Entrypoints: entries,
		Methods:     make(map[string]*bazbom.Method),
	}

	// Build every Method node up front so BFS roots (which may be
	// configured overrides not present in the graph) still resolve.
	for fn, node := range cg.Nodes {
		if fn == nil {
			continue
		}
		out.Methods[fn.String()] = methodOf(fn, node)
	}

	if time.Now().After(deadline) {
		out.Partial = true
		return out, nil
	}

	tagUnresolved(cg, out)

	reachable := bfs(out, rootIdentifiers(entries), dynamicFanout, deadline)
	for id, m := range out.Methods {
		m.Reachable = reachable[id]
	}
	if time.Now().After(deadline) {
		out.Partial = true
	}
	slog.InfoContext(ctx, "call graph built", "methods", len(out.Methods), "entrypoints", len(entries), "partial", out.Partial)
	return out, nil
}

// loadPackages loads dirs (and their test variants) with full syntax and
// type information, the mode level vulncheck.Convert's callers use before
// handing packages to SSA construction.
func loadPackages(ctx context.Context, dirs []string) ([]*packages.Package, error) {
	cfg := &packages.Config{
		Context: ctx,
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
			packages.NeedImports | packages.NeedDeps | packages.NeedTypes |
			packages.NeedSyntax | packages.NeedTypesInfo | packages.NeedModule,
		Tests: true,
	}
	var all []*packages.Package
	for _, dir := range dirs {
		cfg.Dir = dir
		pkgs, err := packages.Load(cfg, "./...")
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", dir, err)
		}
		all = append(all, pkgs...)
	}
	return all, nil
}

// methodOf converts a callgraph.Node into a bazbom.Method, expanding every
// static out-edge cha.CallGraph recorded (including the fan-out edges CHA
// adds for interface dispatch) into a bazbom.Edge.
func methodOf(fn *ssa.Function, node *callgraph.Node) *bazbom.Method {
	m := &bazbom.Method{Identifier: fn.String()}
	if fn.Pkg != nil && fn.Pkg.Pkg != nil {
		m.Package = fn.Pkg.Pkg.Path()
	}
	if recv := fn.Signature.Recv(); recv != nil {
		m.Receiver = recv.Type().String()
	}
	for _, edge := range node.Out {
		if edge.Callee == nil || edge.Callee.Func == nil {
			continue
		}
		m.Edges = append(m.Edges, bazbom.Edge{Callee: edge.Callee.Func.String()})
	}
	return m
}

// tagUnresolved scans every call site in cg's functions for a call
// cha couldn't attach a static edge for — a call through a value CHA's
// type-based analysis can't enumerate possible targets for — and records it
// as an UnresolvedCall, per spec.md §4.6's unknown-callee rule. Expr is
// filled with the best-effort callee identity tagger.go's symbolName
// cross-reference compares against an advisory's vulnerable-symbol list,
// so a dynamic dispatch CHA couldn't expand into concrete edges still lets
// a matching vulnerable symbol be marked reachable instead of falling back
// to Unknown/Unreachable.
func tagUnresolved(cg *callgraph.Graph, out *bazbom.CallGraph) {
	for fn, node := range cg.Nodes {
		if fn == nil {
			continue
		}
		for _, b := range fn.Blocks {
			for _, instr := range b.Instrs {
				call, ok := instr.(ssa.CallInstruction)
				if !ok {
					continue
				}
				if call.Common().StaticCallee() != nil {
					continue
				}
				expanded := false
				for _, e := range node.Out {
					if e.Site == call {
						expanded = true
						break
					}
				}
				if expanded {
					// CHA already expanded this dispatch into concrete
					// edges (the common case for interface/virtual calls);
					// only a genuinely untyped call value is unresolved.
					continue
				}
				out.Unresolved = append(out.Unresolved, bazbom.UnresolvedCall{
					Caller: fn.String(),
					Expr:   unresolvedCallee(call.Common()),
				})
			}
		}
	}
}

// unresolvedCallee names the callee of a call site CHA could not statically
// resolve: the interface method name for a dynamic dispatch
// (call.IsInvoke(), e.g. an interface-typed variable's method called
// through a value CHA never attached a concrete implementation edge for),
// or the called value's own name for a call through a plain func-typed
// value (a stored function pointer, a plugin hook, a handler passed
// through several layers of indirection). Either form is a plain
// identifier, matched against an advisory's vulnerable-symbol list by
// tagger.go's symbolName suffix comparison — spec.md §4.6 only requires a
// name match, not a fully-qualified one, since a vulnerable symbol and an
// unresolved call site are resolved through entirely different static
// analyses (the advisory's declared symbol vs. CHA's interface method
// set) and will rarely share a receiver-qualified spelling.
func unresolvedCallee(call *ssa.CallCommon) string {
	if call.IsInvoke() {
		return call.Method.Name()
	}
	return call.Value.Name()
}

func rootIdentifiers(entries []bazbom.Entrypoint) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.FunctionIdentifier
	}
	return out
}
