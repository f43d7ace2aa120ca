package cluster

import "sort"

const (
	noiseLabel     = -1
	unvisitedLabel = -2
)

// Options configures DBSCAN-style density clustering (spec.md §4.3).
type Options struct {
	// Eps is the minimum Jaccard similarity for two documents to be
	// considered neighbors (higher means stricter).
	Eps float64
	// MinSamples is the minimum neighborhood size (including the point
	// itself) for a point to be a density core.
	MinSamples int
	// KNN bounds the neighbor graph to each point's k nearest
	// neighbors before clustering. Zero or >=len(corpus) disables
	// pruning (full pairwise comparison).
	KNN int
}

// DefaultOptions returns Eps 0.5, MinSamples 2 and no k-NN pruning. The
// Orchestrator does not use it: it builds Options from
// Config.ClusterEps/ClusterMinSamples, whose defaults are 0.3 and 2.
func DefaultOptions() Options {
	return Options{Eps: 0.5, MinSamples: 2, KNN: 0}
}

// Cluster runs DBSCAN-style density clustering over a corpus of raw
// HTML strings and returns one label per input: a non-negative cluster
// id, or -1 for noise (spec.md §4.3). Cluster ids are numbered in order
// of each cluster's first member in the input, so the same input in the
// same order always gets the same labels.
func Cluster(rawHTML []string, opts Options) ([]int, error) {
	if opts.MinSamples < 1 {
		return nil, newClusterError("minSamples must be >= 1", errInvalidOptions)
	}
	n := len(rawHTML)
	if n == 0 {
		return []int{}, nil
	}

	fps := make([]Fingerprint, n)
	for i, raw := range rawHTML {
		fps[i] = FingerprintOf(raw)
	}

	adjacency := pruneToKNN(fps, opts.KNN)
	neighbors := func(i int) []int {
		out := make([]int, 0, len(adjacency[i]))
		for _, e := range adjacency[i] {
			if e.similarity >= opts.Eps {
				out = append(out, e.j)
			}
		}
		return out
	}

	labels := make([]int, n)
	for i := range labels {
		labels[i] = unvisitedLabel
	}

	rawLabel := 0
	for i := 0; i < n; i++ {
		if labels[i] != unvisitedLabel {
			continue
		}
		nbrs := neighbors(i)
		if len(nbrs)+1 < opts.MinSamples {
			labels[i] = noiseLabel
			continue
		}
		labels[i] = rawLabel
		seeds := append([]int(nil), nbrs...)
		for idx := 0; idx < len(seeds); idx++ {
			j := seeds[idx]
			if labels[j] == noiseLabel {
				labels[j] = rawLabel
			}
			if labels[j] != unvisitedLabel {
				continue
			}
			labels[j] = rawLabel
			jNbrs := neighbors(j)
			if len(jNbrs)+1 >= opts.MinSamples {
				seeds = append(seeds, jNbrs...)
			}
		}
		rawLabel++
	}

	return renumberDeterministically(labels), nil
}

// renumberDeterministically relabels raw cluster ids by ascending
// smallest-member-index, so cluster numbering never depends on map or
// goroutine iteration order, and noise (-1) always sorts last.
func renumberDeterministically(labels []int) []int {
	firstSeen := map[int]int{}
	for i, l := range labels {
		if l == noiseLabel {
			continue
		}
		if _, ok := firstSeen[l]; !ok {
			firstSeen[l] = i
		}
	}
	rawIDs := make([]int, 0, len(firstSeen))
	for id := range firstSeen {
		rawIDs = append(rawIDs, id)
	}
	sort.Slice(rawIDs, func(a, b int) bool {
		return firstSeen[rawIDs[a]] < firstSeen[rawIDs[b]]
	})
	remap := make(map[int]int, len(rawIDs))
	for newID, oldID := range rawIDs {
		remap[oldID] = newID
	}

	out := make([]int, len(labels))
	for i, l := range labels {
		if l == noiseLabel {
			out[i] = noiseLabel
			continue
		}
		out[i] = remap[l]
	}
	return out
}
