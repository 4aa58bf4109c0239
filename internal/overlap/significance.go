package overlap

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

type Op string

const (
	Less         Op = "<"
	LessEqual    Op = "<="
	Greater      Op = ">"
	GreaterEqual Op = ">="
)

func ParseOp(s string) (Op, error) {
	switch Op(s) {
	case Less, LessEqual, Greater, GreaterEqual:
		return Op(s), nil
	}
	return "", errors.Errorf("unknown comparison operator %q", s)
}

// Condition is one threshold test on a numeric column.
type Condition struct {
	Column    string
	Op        Op
	Threshold float64
}

// Match reports whether v passes. NaN never passes.
func (c Condition) Match(v float64) bool {
	if math.IsNaN(v) {
		return false
	}
	switch c.Op {
	case Less:
		return v < c.Threshold
	case LessEqual:
		return v <= c.Threshold
	case Greater:
		return v > c.Threshold
	case GreaterEqual:
		return v >= c.Threshold
	}
	return false
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %g", c.Column, c.Op, c.Threshold)
}

// Criterion is a named conjunction of conditions.
type Criterion struct {
	Name       string
	Conditions []Condition
}

// QValue is the default significance rule: qval < 0.05.
var QValue = Criterion{Name: "qval", Conditions: []Condition{{Column: "qval", Op: Less, Threshold: 0.05}}}

// Significant returns the genes of g that satisfy every condition, in file
// order.
func (g *GeneTable) Significant(c Criterion) ([]string, error) {
	if len(c.Conditions) == 0 {
		return nil, errors.Errorf("criterion %q has no conditions", c.Name)
	}
	values := make([]map[string]float64, len(c.Conditions))
	for i, cond := range c.Conditions {
		v, err := g.Values(cond.Column)
		if err != nil {
			return nil, errors.Wrapf(err, "criterion %s", c.Name)
		}
		values[i] = v
	}
	var out []string
	for _, gene := range g.genes {
		ok := true
		for i, cond := range c.Conditions {
			if !cond.Match(values[i][gene]) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, gene)
		}
	}
	return out, nil
}
