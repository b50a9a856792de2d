package bazbom

// CallGraph is the over-approximated static call graph produced by
// internal/reachability's builder for a single Go module, grounded on
// golang.org/x/vuln/internal/vulncheck's Result/FuncNode/CallSite shapes
// (itself built on golang.org/x/tools/go/callgraph/cha over go/ssa).
//
// Methods is the full node set; Entrypoints identifies the subset of
// Methods (by FunctionIdentifier) used as BFS roots in the tagger.
type CallGraph struct {
	Entrypoints []Entrypoint       `json:"entrypoints"`
	Methods     map[string]*Method `json:"-"`
	// Unresolved holds call sites the builder could not statically resolve
	// to a known Method, per spec.md §4.6's unknown-callee rule. These do
	// not abort graph construction; they just stop BFS traversal along that
	// edge. internal/reachability's Tagger (C7) cross-references each entry
	// reached from an entrypoint against an advisory's vulnerable-symbol
	// list and marks a textual match Reachable, per spec.md §4.6: "the
	// symbol is marked reachable if it matches a vulnerable-symbol name
	// from C4."
	Unresolved []UnresolvedCall `json:"unresolved,omitempty"`
	// Partial is true if the builder hit its soft time budget before
	// finishing construction, per spec.md §4.6. The Tagger turns every
	// advisory that lists vulnerable symbols into an Unknown verdict whose
	// reason notes the graph was partial; an advisory with no symbols keeps
	// its own no-symbol Unknown reason.
	Partial bool `json:"partial"`
}

// Method is one call-graph node: a concrete function or method, resolved to
// a receiver type when applicable.
type Method struct {
	// Identifier is the fully-qualified function/method name, the graph's
	// node key.
	Identifier string `json:"identifier"`
	// Package is the import path the method belongs to.
	Package string `json:"package"`
	// Receiver is the method's receiver type, empty for plain functions.
	Receiver string `json:"receiver,omitempty"`
	// File and Line locate the method's declaration, for witness-path
	// reporting.
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`
	// Edges are the statically-resolved calls this method makes.
	Edges []Edge `json:"edges,omitempty"`
	// Reachable is set by the builder's own forward BFS from Entrypoints,
	// per spec.md §4.6. The Reachability Tagger (C7) consults this instead
	// of re-running its own traversal.
	Reachable bool `json:"reachable"`
}

// Edge is one statically-resolved call from one Method to another. Per
// spec.md §4.6, a virtual dispatch (interface method call) expands into one
// Edge per concrete type that implements the interface in the built program
// — the over-approximation that keeps the graph sound for a security
// analysis even though it may overstate true reachability.
type Edge struct {
	Callee string `json:"callee"`
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
}

// UnresolvedCall is a call site the builder could not resolve to any known
// Method: a call through a value whose dynamic type isn't statically
// determinable (e.g. a bare func value passed through several layers of
// indirection beyond CHA's reach).
type UnresolvedCall struct {
	Caller string `json:"caller"`
	// Expr is a best-effort textual description of the unresolved call
	// expression, for diagnostics.
	Expr string `json:"expr"`
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`
}
