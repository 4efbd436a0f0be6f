package planner

import "sort"

// Weights controls how much each modality contributes to a fused score.
type Weights struct {
	Vector   float64
	Metadata float64
	Graph    float64
}

// DefaultWeights is the weighting spec.md's fusion rule falls back to
// when the caller does not override it.
var DefaultWeights = Weights{Vector: 0.5, Metadata: 0.3, Graph: 0.2}

// componentScores holds one candidate's raw per-modality scores before
// normalization. A zero value for hasX means that modality did not
// produce this candidate and it is excluded from that modality's
// normalization and from the weighted sum term.
type componentScores struct {
	vector, metadata, graph       float64
	hasVector, hasMetadata, hasGraph bool
}

// fuse min-max normalizes each modality's scores over the candidate set,
// then combines them with w; ties are broken later by rankIndices.
func fuse(scores map[int]*componentScores, w Weights) []float64 {
	n := len(scores)
	vecNorm := normalizeModality(scores, n, func(c *componentScores) (float64, bool) { return c.vector, c.hasVector })
	metaNorm := normalizeModality(scores, n, func(c *componentScores) (float64, bool) { return c.metadata, c.hasMetadata })
	graphNorm := normalizeModality(scores, n, func(c *componentScores) (float64, bool) { return c.graph, c.hasGraph })

	fused := make([]float64, n)
	for i := 0; i < n; i++ {
		fused[i] = w.Vector*vecNorm[i] + w.Metadata*metaNorm[i] + w.Graph*graphNorm[i]
	}
	return fused
}

func normalizeModality(scores map[int]*componentScores, n int, get func(*componentScores) (float64, bool)) []float64 {
	out := make([]float64, n)
	min, max := 0.0, 0.0
	first := true
	for i := 0; i < n; i++ {
		v, has := get(scores[i])
		if !has {
			continue
		}
		if first {
			min, max = v, v
			first = false
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	span := max - min
	for i := 0; i < n; i++ {
		v, has := get(scores[i])
		if !has {
			out[i] = 0
			continue
		}
		if span == 0 {
			out[i] = 1
			continue
		}
		out[i] = (v - min) / span
	}
	return out
}

// rankIndices returns indices 0..n-1 sorted by fused score descending,
// breaking ties by raw vector similarity descending.
func rankIndices(fused []float64, scores map[int]*componentScores) []int {
	idx := make([]int, len(fused))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ia, ib := idx[a], idx[b]
		if fused[ia] != fused[ib] {
			return fused[ia] > fused[ib]
		}
		return scores[ia].vector > scores[ib].vector
	})
	return idx
}
