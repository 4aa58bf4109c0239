package overlap

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spatialbench/internal/ingest"
)

func geneTable(t *testing.T, method, content string) *GeneTable {
	t.Helper()
	tbl, err := ingest.Parse(method+".csv", []byte(content))
	require.NoError(t, err)
	g, err := NewGeneTable(method, tbl)
	require.NoError(t, err)
	return g
}

const somde = `g,FSV,qval
g1,0.9,0.001
g2,0.8,0.01
g3,0.7,0.02
g5,0.1,0.5
g6,0.2,
`

const spatialde = `,gene,LLR,qval
0,g2,40,0.0001
1,g3,30,0.001
2,g4,20,0.01
3,g1,10,0.2
4,g5,10,0.9
`

func TestCompareCounts(t *testing.T) {
	a, err := geneTable(t, "SOMDE", somde).Significant(QValue)
	require.NoError(t, err)
	b, err := geneTable(t, "SpatialDE", spatialde).Significant(QValue)
	require.NoError(t, err)

	r := Compare("SOMDE", a, "SpatialDE", b)
	assert.Equal(t, []string{"g1"}, r.OnlyA)
	assert.Equal(t, []string{"g4"}, r.OnlyB)
	assert.Equal(t, []string{"g2", "g3"}, r.Both)
	assert.Equal(t, 4, r.Union())
	assert.Equal(t, []VennCount{
		{Category: "Only SOMDE", Count: 1},
		{Category: "Only SpatialDE", Count: 1},
		{Category: "Both", Count: 2},
	}, r.Counts())
}

func TestCompareDeduplicates(t *testing.T) {
	r := Compare("A", []string{"x", "x", "y"}, "B", nil)
	assert.Equal(t, []string{"x", "y"}, r.OnlyA)
	assert.Empty(t, r.OnlyB)
	assert.Empty(t, r.Both)
	assert.Equal(t, 2, r.Union())
}

func TestSignificantCriteria(t *testing.T) {
	g := geneTable(t, "SOMDE", somde)
	both, err := g.Significant(Criterion{Name: "qval+fsv", Conditions: []Condition{
		{Column: "qval", Op: Less, Threshold: 0.05},
		{Column: "FSV", Op: GreaterEqual, Threshold: 0.8},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"g1", "g2"}, both)

	_, err = g.Significant(Criterion{Name: "llr", Conditions: []Condition{{Column: "LLR", Op: Greater, Threshold: 1}}})
	var schemaErr *ingest.SchemaError
	assert.True(t, errors.As(err, &schemaErr))

	_, err = g.Significant(Criterion{Name: "empty"})
	assert.Error(t, err)
}

func TestConditionMatch(t *testing.T) {
	assert.True(t, Condition{Op: Less, Threshold: 1}.Match(0.5))
	assert.False(t, Condition{Op: Less, Threshold: 1}.Match(1))
	assert.True(t, Condition{Op: LessEqual, Threshold: 1}.Match(1))
	assert.True(t, Condition{Op: Greater, Threshold: 1}.Match(2))
	assert.True(t, Condition{Op: GreaterEqual, Threshold: 1}.Match(1))
	assert.False(t, Condition{Op: Less, Threshold: 1}.Match(math.NaN()))

	_, err := ParseOp("==")
	assert.Error(t, err)
	op, err := ParseOp(">=")
	require.NoError(t, err)
	assert.Equal(t, GreaterEqual, op)
}

func TestNewGeneTableErrors(t *testing.T) {
	tbl, err := ingest.Parse("x.csv", []byte("name,qval\na,0.1\n"))
	require.NoError(t, err)
	_, err = NewGeneTable("x", tbl)
	var schemaErr *ingest.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, ColGene, schemaErr.Column)

	g := geneTable(t, "x", "gene,qval\na,abc\n")
	_, err = g.Significant(QValue)
	assert.ErrorIs(t, err, ingest.ErrParse)
}

func TestRank(t *testing.T) {
	ranks := Rank([]float64{10, 30, 20, 30, math.NaN()})
	assert.Equal(t, 4.0, ranks[0])
	assert.Equal(t, 1.5, ranks[1])
	assert.Equal(t, 3.0, ranks[2])
	assert.Equal(t, 1.5, ranks[3])
	assert.True(t, math.IsNaN(ranks[4]))
	assert.Empty(t, Rank(nil))
}

func TestJoinAndLookup(t *testing.T) {
	a := geneTable(t, "SOMDE", somde)
	b := geneTable(t, "SpatialDE", spatialde)
	pairs, err := Join(a, b, "FSV", "LLR", []string{"g2", "g3"})
	require.NoError(t, err)
	require.Len(t, pairs, 4)
	assert.Equal(t, []string{"g1", "g2", "g3", "g5"}, []string{pairs[0].Gene, pairs[1].Gene, pairs[2].Gene, pairs[3].Gene})

	g2, err := Lookup(pairs, "g2")
	require.NoError(t, err)
	assert.Equal(t, 0.8, g2.A)
	assert.Equal(t, 40.0, g2.B)
	assert.Equal(t, 2.0, g2.RankA)
	assert.Equal(t, 1.0, g2.RankB)
	assert.True(t, g2.Shared)

	g5, err := Lookup(pairs, "g5")
	require.NoError(t, err)
	assert.Equal(t, 4.5, g5.RankB)
	assert.False(t, g5.Shared)

	_, err = Lookup(pairs, "GeneX")
	assert.ErrorIs(t, err, ErrGeneNotFound)

	_, err = Join(a, b, "LLR", "LLR", nil)
	assert.Error(t, err)
}

func TestStat(t *testing.T) {
	g := geneTable(t, "SOMDE", somde)
	v, err := g.Stat("g3", "FSV")
	require.NoError(t, err)
	assert.Equal(t, 0.7, v)
	v, err = g.Stat("g6", "qval")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(v))
	_, err = g.Stat("nope", "FSV")
	assert.ErrorIs(t, err, ErrGeneNotFound)
	assert.True(t, g.Contains("g1"))
}
