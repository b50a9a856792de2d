package reachability

import (
	"container/list"
	"time"

	"github.com/bazbom/bazbom"
)

// bfs performs the forward "reachable from entrypoints" marking spec.md
// §4.6 requires: breadth-first, memoised so cycles are revisited-as-no-ops,
// bounded by deadline so a pathological program can't blow the builder's
// soft time budget. Returns the set of reachable Method identifiers.
//
// dynamicFanout maps a dynamic-conservative entrypoint's own identifier to
// every function identifier its enclosing unit should also mark reachable,
// per spec.md §4.5's "transitively marks its callees reachable" rule for
// reflection/plugin hazards.
func bfs(graph *bazbom.CallGraph, roots []string, dynamicFanout map[string][]string, deadline time.Time) map[string]bool {
	visited := make(map[string]bool, len(graph.Methods))
	queue := list.New()
	enqueue := func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		queue.PushBack(id)
	}

	for _, root := range roots {
		enqueue(root)
	}

	checkEvery := 4096
	steps := 0
	for queue.Len() > 0 {
		steps++
		if steps%checkEvery == 0 && time.Now().After(deadline) {
			break
		}
		front := queue.Front()
		queue.Remove(front)
		id := front.Value.(string)

		if fanout, ok := dynamicFanout[id]; ok {
			for _, callee := range fanout {
				enqueue(callee)
			}
		}

		m, ok := graph.Methods[id]
		if !ok {
			continue
		}
		for _, e := range m.Edges {
			enqueue(e.Callee)
		}
	}
	return visited
}
