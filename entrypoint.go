package bazbom

// EntrypointKind classifies why a function is treated as a call-graph root
// by internal/reachability, per spec.md §4.5.
type EntrypointKind string

const (
	// EntrypointApplicationMain is a package main's func main, or an
	// explicitly configured main-equivalent.
	EntrypointApplicationMain EntrypointKind = "application-main"
	// EntrypointFrameworkRoute is a handler registered with a recognized web
	// framework's routing API (net/http, a router package, etc.) — treated
	// as an entrypoint rather than a callee of the registration call, per
	// spec.md §4.6.
	EntrypointFrameworkRoute EntrypointKind = "framework-route"
	// EntrypointTest is a Test/Benchmark/Fuzz/Example function recognized by
	// go/packages' test-file handling.
	EntrypointTest EntrypointKind = "test"
	// EntrypointLibraryExport is an exported function in a module with no
	// discovered application-main, treated conservatively as a potential
	// caller per spec.md §4.5.
	EntrypointLibraryExport EntrypointKind = "library-export"
	// EntrypointDynamicConservative is a synthetic entrypoint the builder
	// injects when it finds reflection, plugin loading, or similar
	// dynamic-dispatch constructs it cannot resolve statically. It marks the
	// enclosing function's whole unit reachable per spec.md §4.6's
	// conservative-overapproximation rule.
	EntrypointDynamicConservative EntrypointKind = "dynamic-conservative"
)

// Entrypoint is one call-graph root discovered (or configured) for an
// ecosystem's reachability analysis.
type Entrypoint struct {
	// FunctionIdentifier is the fully-qualified function name this
	// entrypoint resolves to, e.g. "example.com/app/internal/api.Handler".
	FunctionIdentifier string `json:"function_identifier"`
	Kind                EntrypointKind `json:"kind"`
}
