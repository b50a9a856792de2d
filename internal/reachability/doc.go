// Package reachability implements the BazBOM Reachability Engine for the Go
// modules ecosystem: the Entrypoint Detector (C5), the Call-Graph Builder
// (C6), and the Reachability Tagger (C7) from spec.md §4.5–§4.7.
//
// Grounded on golang.org/x/vuln/vulncheck (the golang-vuln example repo):
// Detect mirrors vulncheck/source.go's entry-function discovery, Build
// mirrors vulncheck.Convert + a golang.org/x/tools/go/callgraph/cha call
// graph (the same over-approximate class-hierarchy analysis vulncheck uses
// to resolve interface dispatch), and Tag mirrors witness.go's
// breadth-first call-chain search.
//
// Reachability is implemented only for the Go modules ecosystem: it is the
// only ecosystem this module can source-analyze without an external
// bytecode/AST toolchain absent from the retrieved example corpus (no JVM
// bytecode reader, no Python/Ruby/JS AST parser library appears anywhere in
// the pack). Per spec.md §4.8 step 8, any ecosystem whose scanner.Adapter
// doesn't implement scanner.ReachabilityScanner yields
// ReachabilityUnknown{Reason: "reachability-unsupported"} for all its
// vulnerabilities — that is this package's designed absence, not a missing
// feature.
package reachability
