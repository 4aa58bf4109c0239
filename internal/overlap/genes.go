package overlap

import (
	"math"
	"strconv"

	"github.com/pkg/errors"

	"spatialbench/internal/ingest"
)

const ColGene = "gene"

var ErrGeneNotFound = errors.New("gene not found")

// GeneAliases lists the gene identifier headers written by SOMDE, SpatialDE
// and hand-made result tables.
var GeneAliases = ingest.NewAliases(map[string][]string{
	ColGene: {"genes", "g", "gene_id", "geneid", "gene_name", "symbol"},
})

// GeneTable is a method result table keyed by gene identifier. Duplicate
// gene rows keep the first occurrence.
type GeneTable struct {
	*ingest.Table
	Method string
	byGene map[string]int
	genes  []string
}

// NewGeneTable resolves the gene column. An unnamed first column, as written
// by a pandas index, is taken as the gene column when no alias matches.
func NewGeneTable(method string, t *ingest.Table) (*GeneTable, error) {
	if err := GeneAliases.Resolve(t); err != nil {
		return nil, err
	}
	if !t.Has(ColGene) && len(t.Header) > 0 && t.Header[0] == "" {
		t.Rename("", ColGene)
	}
	if !t.Has(ColGene) {
		return nil, &ingest.SchemaError{File: t.Source, Column: ColGene, Aliases: GeneAliases.Accepted(ColGene)}
	}
	g := &GeneTable{Table: t, Method: method, byGene: make(map[string]int, t.Len())}
	for i := range t.Rows {
		gene := t.Value(i, ColGene)
		if gene == "" {
			continue
		}
		if _, dup := g.byGene[gene]; dup {
			continue
		}
		g.byGene[gene] = i
		g.genes = append(g.genes, gene)
	}
	return g, nil
}

// Genes returns gene identifiers in file order.
func (g *GeneTable) Genes() []string { return g.genes }

func (g *GeneTable) Contains(gene string) bool {
	_, ok := g.byGene[gene]
	return ok
}

// Stat returns the value of col for gene. Empty cells read as NaN.
func (g *GeneTable) Stat(gene, col string) (float64, error) {
	if !g.Has(col) {
		return 0, &ingest.SchemaError{File: g.Source, Column: col}
	}
	i, ok := g.byGene[gene]
	if !ok {
		return 0, errors.Wrapf(ErrGeneNotFound, "%s: %s", g.Method, gene)
	}
	return g.cell(i, col)
}

func (g *GeneTable) cell(row int, col string) (float64, error) {
	v := g.Value(row, col)
	if v == "" {
		return math.NaN(), nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.Wrapf(ingest.ErrParse, "%s line %d column %s: %q is not a number", g.Source, row+2, col, v)
	}
	return f, nil
}

// Values returns gene -> value of col for every gene.
func (g *GeneTable) Values(col string) (map[string]float64, error) {
	if !g.Has(col) {
		return nil, &ingest.SchemaError{File: g.Source, Column: col}
	}
	out := make(map[string]float64, len(g.genes))
	for _, gene := range g.genes {
		v, err := g.cell(g.byGene[gene], col)
		if err != nil {
			return nil, err
		}
		out[gene] = v
	}
	return out, nil
}
