package overlap

import (
	"sort"

	"github.com/samber/lo"
)

// VennCount is one row of a venn_counts CSV.
type VennCount struct {
	Category string `csv:"Category"`
	Count    int    `csv:"Count"`
}

const CategoryBoth = "Both"

func OnlyCategory(method string) string { return "Only " + method }

// Result holds the significant-gene sets of two methods and their overlap.
// Gene lists are sorted.
type Result struct {
	NameA, NameB string
	A, B         []string
	OnlyA, OnlyB []string
	Both         []string
}

// Compare splits two significant-gene sets into exclusive and shared parts.
func Compare(nameA string, a []string, nameB string, b []string) Result {
	a, b = sorted(lo.Uniq(a)), sorted(lo.Uniq(b))
	onlyA, onlyB := lo.Difference(a, b)
	return Result{
		NameA: nameA,
		NameB: nameB,
		A:     a,
		B:     b,
		OnlyA: sorted(onlyA),
		OnlyB: sorted(onlyB),
		Both:  sorted(lo.Intersect(a, b)),
	}
}

func (r Result) Union() int { return len(r.OnlyA) + len(r.OnlyB) + len(r.Both) }

// Counts returns the three Venn categories in fixed order: A only, B only,
// both.
func (r Result) Counts() []VennCount {
	return []VennCount{
		{Category: OnlyCategory(r.NameA), Count: len(r.OnlyA)},
		{Category: OnlyCategory(r.NameB), Count: len(r.OnlyB)},
		{Category: CategoryBoth, Count: len(r.Both)},
	}
}

func sorted(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}
