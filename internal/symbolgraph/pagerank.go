package symbolgraph

import "github.com/standardbeagle/semindex/internal/model"

// Graph is the resolved reference adjacency: Out[id] lists every symbol id
// that id calls/extends/implements/uses; In is its transpose. Only
// resolved, cross-symbol edges participate — an unresolved reference
// contributes nothing to the graph spec §4.3 asks PageRank to run over.
type Graph struct {
	Nodes []string
	Out   map[string][]string
	In    map[string][]string
}

// BuildGraph constructs the adjacency from resolved references, deduping
// parallel edges between the same pair so PageRank's per-edge weight
// split (1/|out(u)|) matches distinct targets, not reference count.
func BuildGraph(symbolIDs []string, refs []model.SymbolReference) *Graph {
	g := &Graph{
		Out: make(map[string][]string, len(symbolIDs)),
		In:  make(map[string][]string, len(symbolIDs)),
	}
	g.Nodes = append(g.Nodes, symbolIDs...)
	seen := map[[2]string]bool{}

	for _, ref := range refs {
		if !ref.IsResolved || ref.ToSymbolID == nil {
			continue
		}
		to := *ref.ToSymbolID
		if to == ref.FromSymbolID {
			continue
		}
		key := [2]string{ref.FromSymbolID, to}
		if seen[key] {
			continue
		}
		seen[key] = true
		g.Out[ref.FromSymbolID] = append(g.Out[ref.FromSymbolID], to)
		g.In[to] = append(g.In[to], ref.FromSymbolID)
	}
	return g
}

// PageRank scores every node with the classic damped random-walk, d=0.85
// over I=20 iterations. Dangling nodes (|out(u)|=0) redistribute their
// mass uniformly across every node each iteration rather than vanishing,
// and the result is renormalized to sum to 1 — both per spec §4.3's
// PageRank invariant.
func PageRank(g *Graph) map[string]float64 {
	const d = 0.85
	const iterations = 20

	n := len(g.Nodes)
	if n == 0 {
		return map[string]float64{}
	}

	scores := make(map[string]float64, n)
	init := 1.0 / float64(n)
	for _, id := range g.Nodes {
		scores[id] = init
	}

	for iter := 0; iter < iterations; iter++ {
		next := make(map[string]float64, n)
		base := (1 - d) / float64(n)
		for _, id := range g.Nodes {
			next[id] = base
		}

		danglingMass := 0.0
		for _, id := range g.Nodes {
			out := g.Out[id]
			if len(out) == 0 {
				danglingMass += scores[id]
				continue
			}
			share := d * scores[id] / float64(len(out))
			for _, target := range out {
				next[target] += share
			}
		}

		if danglingMass > 0 {
			redistributed := d * danglingMass / float64(n)
			for _, id := range g.Nodes {
				next[id] += redistributed
			}
		}

		scores = next
	}

	total := 0.0
	for _, v := range scores {
		total += v
	}
	if total > 0 {
		for id := range scores {
			scores[id] /= total
		}
	}
	return scores
}

// ApplyScores writes each symbol's PageRank score back onto its definition.
func ApplyScores(symbols []model.SymbolDefinition, scores map[string]float64) {
	for i := range symbols {
		symbols[i].PageRankScore = scores[symbols[i].ID]
	}
}

// Callers returns every symbol id with a resolved edge into id.
func (g *Graph) Callers(id string) []string { return g.In[id] }

// Callees returns every symbol id that id has a resolved edge to.
func (g *Graph) Callees(id string) []string { return g.Out[id] }

// TransitiveImpact performs a breadth-first walk over Callers up to depth
// hops (0 means unbounded), returning every symbol id reachable — the set
// changing id would transitively affect.
func (g *Graph) TransitiveImpact(id string, maxDepth int) []string {
	visited := map[string]bool{id: true}
	frontier := []string{id}
	depth := 0
	for len(frontier) > 0 && (maxDepth <= 0 || depth < maxDepth) {
		var next []string
		for _, cur := range frontier {
			for _, caller := range g.In[cur] {
				if !visited[caller] {
					visited[caller] = true
					next = append(next, caller)
				}
			}
		}
		frontier = next
		depth++
	}
	delete(visited, id)
	out := make([]string, 0, len(visited))
	for id := range visited {
		out = append(out, id)
	}
	return out
}
