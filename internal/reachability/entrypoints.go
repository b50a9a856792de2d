package reachability

import (
	"go/ast"
	"strings"

	"golang.org/x/tools/go/ssa"

	"github.com/bazbom/bazbom"
)

// frameworkRegistrars names method selectors that register a handler
// function with a web framework's router, per spec.md §4.5's
// framework-heuristic requirement. The registration call itself is not a
// callee — per spec.md §4.6, the registered function becomes an entrypoint
// at the registration site.
//
// Grounded on the routing surface of the frameworks actually referenced
// across the retrieved pack's HTTP-serving code (libindex/http,
// libvuln/http): net/http's HandleFunc/Handle, plus the common
// gorilla/mux & chi-style verb methods these packages' own handler
// wiring uses the stdlib equivalent of.
var frameworkRegistrars = map[string]bool{
	"HandleFunc": true,
	"Handle":     true,
	"Get":        true,
	"Post":       true,
	"Put":        true,
	"Delete":     true,
	"Patch":      true,
	"GET":        true,
	"POST":       true,
	"PUT":        true,
	"DELETE":     true,
	"PATCH":      true,
}

// dynamicHazardPackages names import paths whose use signals a
// dynamic-dispatch hazard per spec.md §4.5/§4.6: reflection and Go plugin
// loading, the two constructs the standard toolchain offers that defeat
// static call-graph construction.
var dynamicHazardPackages = map[string]bool{
	"reflect": true,
	"plugin":  true,
}

// detectEntrypoints walks every *ssa.Function in prog's packages and
// returns the Entrypoint set plus the dynamic-conservative fan-out targets
// (function identifiers reachable unconditionally because their enclosing
// package uses reflection or plugin loading).
//
// When no package main with a func main was found, per spec.md §4.5, every
// exported package-level function is added as a library-export entrypoint
// rather than analyzing nothing.
func detectEntrypoints(pkgs []*ssa.Package, overrides []bazbom.Entrypoint) (entries []bazbom.Entrypoint, dynamicFanout map[string][]string) {
	dynamicFanout = make(map[string][]string)
	var (
		mains    []bazbom.Entrypoint
		routes   []bazbom.Entrypoint
		tests    []bazbom.Entrypoint
		exported []bazbom.Entrypoint
		hazards  []bazbom.Entrypoint
	)

	for _, pkg := range pkgs {
		if pkg == nil || pkg.Pkg == nil {
			continue
		}
		for name, member := range pkg.Members {
			fn, ok := member.(*ssa.Function)
			if !ok || fn.Syntax() == nil {
				continue
			}
			if pkg.Pkg.Name() == "main" && name == "main" {
				mains = append(mains, bazbom.Entrypoint{
					FunctionIdentifier: fn.String(),
					Kind:               bazbom.EntrypointApplicationMain,
				})
			}
			if isTestFunc(name) {
				tests = append(tests, bazbom.Entrypoint{
					FunctionIdentifier: fn.String(),
					Kind:               bazbom.EntrypointTest,
				})
			}
			if ast.IsExported(name) {
				exported = append(exported, bazbom.Entrypoint{
					FunctionIdentifier: fn.String(),
					Kind:               bazbom.EntrypointLibraryExport,
				})
			}
			if usesDynamicHazard(fn) {
				hazards = append(hazards, bazbom.Entrypoint{
					FunctionIdentifier: fn.String(),
					Kind:               bazbom.EntrypointDynamicConservative,
				})
				dynamicFanout[fn.String()] = packageMemberIdentifiers(pkg)
			}
			routes = append(routes, frameworkRoutesIn(fn)...)
		}
	}

	entries = append(entries, mains...)
	entries = append(entries, routes...)
	entries = append(entries, tests...)
	entries = append(entries, hazards...)
	if len(mains) == 0 {
		// No application-main discovered anywhere in the module: fall back
		// to treating every exported function as a potential caller, per
		// spec.md §4.5's conservative default for library-shaped code.
		entries = append(entries, exported...)
	}
	entries = append(entries, overrides...)
	return entries, dynamicFanout
}

// packageMemberIdentifiers lists every package-level function identifier
// declared in pkg, the fan-out target set for a dynamic-conservative
// entrypoint found in that package, per spec.md §4.6's "mark every function
// in the enclosing unit reachable" rule. Methods are not listed, since
// ssa.Package.Members holds no method entries.
func packageMemberIdentifiers(pkg *ssa.Package) []string {
	var out []string
	for _, member := range pkg.Members {
		if fn, ok := member.(*ssa.Function); ok && fn.Syntax() != nil {
			out = append(out, fn.String())
		}
	}
	return out
}

// isTestFunc reports whether name matches go/packages' own test-harness
// function naming (Test*, Benchmark*, Fuzz*, Example*).
func isTestFunc(name string) bool {
	for _, prefix := range []string{"Test", "Benchmark", "Fuzz", "Example"} {
		if strings.HasPrefix(name, prefix) && len(name) > len(prefix) {
			r := []rune(name[len(prefix):])
			if len(r) > 0 && (r[0] >= 'A' && r[0] <= 'Z') {
				return true
			}
		}
	}
	return false
}

// usesDynamicHazard reports whether fn's body references reflect or plugin,
// per spec.md §4.5's dynamic-hazard-synthesis rule. Checked over fn's SSA
// instructions rather than its AST since SSA has already resolved imports
// to concrete package references.
func usesDynamicHazard(fn *ssa.Function) bool {
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			call, ok := instr.(ssa.CallInstruction)
			if !ok {
				continue
			}
			callee := call.Common().StaticCallee()
			if callee == nil || callee.Pkg == nil || callee.Pkg.Pkg == nil {
				continue
			}
			if dynamicHazardPackages[callee.Pkg.Pkg.Path()] {
				return true
			}
		}
	}
	return false
}

// frameworkRoutesIn scans fn's body for calls matching a frameworkRegistrars
// selector whose argument is itself a function value, and returns an
// Entrypoint for each such argument, per spec.md §4.5/§4.6.
func frameworkRoutesIn(fn *ssa.Function) []bazbom.Entrypoint {
	var out []bazbom.Entrypoint
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			call, ok := instr.(*ssa.Call)
			if !ok {
				continue
			}
			name := call.Call.Method
			var methodName string
			if name != nil {
				methodName = name.Name()
			} else if callee := call.Call.StaticCallee(); callee != nil {
				methodName = callee.Name()
			}
			if !frameworkRegistrars[methodName] {
				continue
			}
			for _, arg := range call.Call.Args {
				if handler := asFunctionValue(arg); handler != nil {
					out = append(out, bazbom.Entrypoint{
						FunctionIdentifier: handler.String(),
						Kind:               bazbom.EntrypointFrameworkRoute,
					})
				}
			}
		}
	}
	return out
}

// asFunctionValue unwraps the common ways a function is passed as a value in
// SSA form: a direct *ssa.Function reference, or a MakeClosure over one.
func asFunctionValue(v ssa.Value) *ssa.Function {
	switch x := v.(type) {
	case *ssa.Function:
		return x
	case *ssa.MakeClosure:
		if fn, ok := x.Fn.(*ssa.Function); ok {
			return fn
		}
	}
	return nil
}
