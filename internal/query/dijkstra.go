package query

import (
	"container/heap"
	"math"

	"github.com/antigravity/mtrpath/internal/graph"
	"github.com/antigravity/mtrpath/internal/models"
)

// pathHop is one traversed edge in a reconstructed Dijkstra path.
type pathHop struct {
	From models.StationID
	To   models.StationID
	Edge graph.Edge
}

const epsilon = 1e-6

// dijkstraItem is one entry on the priority queue, ordered
// lexicographically by (distance, hop count) so that among equal-weight
// paths the one with fewest nodes is preferred (spec §4.5.1 step 2, P3).
type dijkstraItem struct {
	station models.StationID
	dist    float64
	hops    int
	index   int
}

type priorityQueue []*dijkstraItem

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if math.Abs(pq[i].dist-pq[j].dist) > epsilon {
		return pq[i].dist < pq[j].dist
	}
	return pq[i].hops < pq[j].hops
}
func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index, pq[j].index = i, j
}
func (pq *priorityQueue) Push(x any) {
	item := x.(*dijkstraItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}
func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}

// shortestPath runs the multigraph Dijkstra variant described in spec
// §4.5.1: minimum total weight, fewest-nodes tie-break among equal-weight
// paths (P3). Returns the ordered list of traversed edges, or ok=false if
// no path exists.
func shortestPath(g *graph.Graph, start, end models.StationID) (hops []pathHop, ok bool) {
	if start == end {
		return nil, false
	}
	dist := map[models.StationID]float64{start: 0}
	hopCount := map[models.StationID]int{start: 0}
	prevEdge := map[models.StationID]pathHop{}
	visited := map[models.StationID]bool{}

	pq := &priorityQueue{{station: start, dist: 0, hops: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(*dijkstraItem)
		if visited[cur.station] {
			continue
		}
		visited[cur.station] = true
		if cur.station == end {
			break
		}
		for _, e := range g.Adjacency[cur.station] {
			if visited[e.To] {
				continue
			}
			nd := cur.dist + e.Weight
			nh := cur.hops + 1
			existing, seen := dist[e.To]
			better := !seen || nd < existing-epsilon ||
				(math.Abs(nd-existing) <= epsilon && nh < hopCount[e.To])
			if better {
				dist[e.To] = nd
				hopCount[e.To] = nh
				prevEdge[e.To] = pathHop{From: cur.station, To: e.To, Edge: e}
				heap.Push(pq, &dijkstraItem{station: e.To, dist: nd, hops: nh})
			}
		}
	}

	if !visited[end] {
		return nil, false
	}

	// Reconstruct by walking prevEdge backwards from end to start.
	var reversed []pathHop
	cur := end
	for cur != start {
		hop, ok := prevEdge[cur]
		if !ok {
			return nil, false
		}
		reversed = append(reversed, hop)
		cur = hop.From
	}
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}
	return reversed, true
}
