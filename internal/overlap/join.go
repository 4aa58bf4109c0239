package overlap

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Pair is one gene present in both result tables.
type Pair struct {
	Gene         string
	A, B         float64
	RankA, RankB float64
	// Shared is set when the gene is significant for both methods.
	Shared bool
}

// Join inner-joins two gene tables on gene, in the order of a. Ranks are
// computed over each full table before joining, so genes missing from the
// other table still occupy a rank.
func Join(a, b *GeneTable, colA, colB string, shared []string) ([]Pair, error) {
	va, err := a.Values(colA)
	if err != nil {
		return nil, errors.Wrap(err, a.Method)
	}
	vb, err := b.Values(colB)
	if err != nil {
		return nil, errors.Wrap(err, b.Method)
	}
	ra := rankMap(a.Genes(), va)
	rb := rankMap(b.Genes(), vb)
	both := lo.Associate(shared, func(g string) (string, struct{}) { return g, struct{}{} })

	pairs := make([]Pair, 0, len(a.Genes()))
	for _, gene := range a.Genes() {
		y, ok := vb[gene]
		if !ok {
			continue
		}
		_, isShared := both[gene]
		pairs = append(pairs, Pair{
			Gene:   gene,
			A:      va[gene],
			B:      y,
			RankA:  ra[gene],
			RankB:  rb[gene],
			Shared: isShared,
		})
	}
	return pairs, nil
}

// Lookup finds gene among joined pairs.
func Lookup(pairs []Pair, gene string) (Pair, error) {
	p, ok := lo.Find(pairs, func(p Pair) bool { return p.Gene == gene })
	if !ok {
		return Pair{}, errors.Wrap(ErrGeneNotFound, gene)
	}
	return p, nil
}

// Rank assigns descending 1-based ranks, averaging ties. NaN values get a NaN
// rank and do not occupy a position.
func Rank(xs []float64) []float64 {
	idx := make([]int, 0, len(xs))
	out := make([]float64, len(xs))
	for i, x := range xs {
		if math.IsNaN(x) {
			out[i] = math.NaN()
			continue
		}
		idx = append(idx, i)
	}
	sort.SliceStable(idx, func(i, j int) bool { return xs[idx[i]] > xs[idx[j]] })
	for start := 0; start < len(idx); {
		end := start + 1
		for end < len(idx) && xs[idx[end]] == xs[idx[start]] {
			end++
		}
		// positions start..end-1 hold rank start+1..end
		avg := float64(start+1+end) / 2
		for _, i := range idx[start:end] {
			out[i] = avg
		}
		start = end
	}
	return out
}

func rankMap(genes []string, values map[string]float64) map[string]float64 {
	xs := lo.Map(genes, func(g string, _ int) float64 { return values[g] })
	ranks := Rank(xs)
	out := make(map[string]float64, len(genes))
	for i, g := range genes {
		out[g] = ranks[i]
	}
	return out
}
