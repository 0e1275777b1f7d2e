// Package correlation computes Pearson correlation matrices over district indicators.
package correlation

import (
	"fmt"

	"futureweaver/domain/district"
	"futureweaver/internal/analysis/numeric"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Matrix is a symmetric correlation matrix indexed by variable.
// Undefined entries (zero variance, fewer than two rows) hold 0.
type Matrix struct {
	vars   []district.Variable
	index  map[district.Variable]int
	values [][]float64
}

// Compute correlates every variable of universe present in the table, in universe
// order. Variables the table does not carry are dropped.
func Compute(table *district.Table, universe []district.Variable) *Matrix {
	vars := make([]district.Variable, 0, len(universe))
	for _, v := range universe {
		if table.Has(v) {
			vars = append(vars, v)
		}
	}

	n := len(vars)
	values := make([][]float64, n)
	for i := range values {
		values[i] = make([]float64, n)
	}

	rows := table.Len()
	if n > 0 && rows >= 2 {
		data := mat.NewDense(rows, n, nil)
		for j, v := range vars {
			data.SetCol(j, table.Column(v))
		}
		var corr mat.SymDense
		stat.CorrelationMatrix(&corr, data, nil)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				values[i][j] = numeric.Finite(corr.At(i, j), 0)
			}
		}
	}

	m, _ := New(vars, values)
	return m
}

// New builds a matrix from precomputed values. values must be n x n for n variables.
func New(vars []district.Variable, values [][]float64) (*Matrix, error) {
	if len(values) != len(vars) {
		return nil, fmt.Errorf("correlation matrix has %d rows for %d variables", len(values), len(vars))
	}
	m := &Matrix{
		vars:   append([]district.Variable(nil), vars...),
		index:  make(map[district.Variable]int, len(vars)),
		values: make([][]float64, len(vars)),
	}
	for i, v := range vars {
		if len(values[i]) != len(vars) {
			return nil, fmt.Errorf("correlation matrix row %s has %d columns, want %d", v, len(values[i]), len(vars))
		}
		m.index[v] = i
		m.values[i] = make([]float64, len(vars))
		for j, x := range values[i] {
			m.values[i][j] = numeric.Finite(x, 0)
		}
	}
	return m, nil
}

// Variables returns the variables of the matrix in order
func (m *Matrix) Variables() []district.Variable {
	return append([]district.Variable(nil), m.vars...)
}

// Len returns the number of variables
func (m *Matrix) Len() int {
	return len(m.vars)
}

// At returns corr(a, b), or 0 when either variable is not in the matrix
func (m *Matrix) At(a, b district.Variable) float64 {
	i, ok := m.index[a]
	if !ok {
		return 0
	}
	j, ok := m.index[b]
	if !ok {
		return 0
	}
	return m.values[i][j]
}
