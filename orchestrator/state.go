package orchestrator

import "github.com/bazbom/bazbom"

// ecosystemState is one position in the per-ecosystem state machine, per
// spec.md §4.8: Pending -> Scanning -> Resolved -> Reachability -> Done,
// with Scanning|Reachability -> Failed(reason) as the only other transition.
type ecosystemState string

const (
	statePending      ecosystemState = "pending"
	stateScanning     ecosystemState = "scanning"
	stateResolved     ecosystemState = "resolved"
	stateReachability ecosystemState = "reachability"
	stateDone         ecosystemState = "done"
	stateFailed       ecosystemState = "failed"
)

// track is the state-machine instance the Orchestrator drives for one
// ecosystem over the course of a Scan call.
//
// Grounded on indexer/controller2/fsm.go's named-state vocabulary
// (_CheckManifest, _IndexLayers, etc. there; Pending/Scanning/Resolved/
// Reachability/Done/Failed here). That file chains stateFn closures, each
// returning the next stateFn to run, because claircore's manifest-indexing
// pipeline has conditional branches (seen-manifest short-circuit, per-layer
// retry) that benefit from closures capturing loop state. BazBOM's
// per-ecosystem pipeline per spec.md §4.8 is a fixed five-state linear
// sequence with exactly one failure branch, so a plain struct with
// validated transition methods expresses the same state-name vocabulary
// more directly, without a chain of function values that would always run
// the same five steps in the same order.
type track struct {
	ecosystem bazbom.Ecosystem
	state     ecosystemState
	reason    string
}

func newTrack(eco bazbom.Ecosystem) *track {
	return &track{ecosystem: eco, state: statePending}
}

// advance moves the track to the next state in the sequence. It does not
// validate that `to` follows the current state; Scan is the only caller and
// always advances in order.
func (t *track) advance(to ecosystemState) {
	t.state = to
}

// fail transitions the track to its terminal Failed state with reason.
func (t *track) fail(reason string) {
	t.state = stateFailed
	t.reason = reason
}
