// sparse.go --  This file is part of goVPT project.
//
//	goVPT is distributed in the hope that it will be useful,
//	but WITHOUT ANY WARRANTY; without even the implied warranty
//	of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
//	See the GNU General Public License for more details.
//
//	You should have received a copy of the GNU General Public License
//	along with this program.  If not, see http://www.gnu.org/licenses/
//
// ------------------------------------------------

// Package sparse provides the compressed-row matrices used for
// perturbation representations and the sparse vectors used for
// wavefunction-correction rows. Matrix satisfies gonum's mat.Matrix so
// dense routines can consume it directly.
package sparse

import (
	"fmt"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/mat"
)

// Entry is a single nonzero element.
type Entry struct {
	Row, Col int
	Val      float64
}

// Matrix is a CSR matrix. Fields are exported for gob round-trips and
// must be treated as read-only.
type Matrix struct {
	NRows, NCols int
	RowPtr       []int
	ColInd       []int
	Data         []float64
}

// New assembles a matrix from entries. Duplicate (row, col) pairs are
// summed, matching the usual sparse-accumulation convention.
func New(rows, cols int, entries []Entry) *Matrix {
	merged := make(map[[2]int]float64, len(entries))
	for _, e := range entries {
		if e.Row < 0 || e.Row >= rows || e.Col < 0 || e.Col >= cols {
			panic(fmt.Sprintf("sparse: entry (%d,%d) outside %dx%d", e.Row, e.Col, rows, cols))
		}
		merged[[2]int{e.Row, e.Col}] += e.Val
	}
	keys := make([][2]int, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b [2]int) int {
		if a[0] != b[0] {
			return a[0] - b[0]
		}
		return a[1] - b[1]
	})
	m := &Matrix{
		NRows:  rows,
		NCols:  cols,
		RowPtr: make([]int, rows+1),
		ColInd: make([]int, len(keys)),
		Data:   make([]float64, len(keys)),
	}
	for i, k := range keys {
		m.ColInd[i] = k[1]
		m.Data[i] = merged[k]
		m.RowPtr[k[0]+1]++
	}
	for r := 0; r < rows; r++ {
		m.RowPtr[r+1] += m.RowPtr[r]
	}
	return m
}

// Diagonal builds a square matrix with the given diagonal.
func Diagonal(d []float64) *Matrix {
	entries := make([]Entry, 0, len(d))
	for i, v := range d {
		if v != 0 {
			entries = append(entries, Entry{Row: i, Col: i, Val: v})
		}
	}
	return New(len(d), len(d), entries)
}

// Empty returns a matrix with no stored elements. Providers signal
// "no coupling" this way rather than by erroring.
func Empty(rows, cols int) *Matrix {
	return New(rows, cols, nil)
}

// Dims returns the matrix dimensions (mat.Matrix).
func (m *Matrix) Dims() (int, int) { return m.NRows, m.NCols }

// At returns the element at (i, j) (mat.Matrix).
func (m *Matrix) At(i, j int) float64 {
	for p := m.RowPtr[i]; p < m.RowPtr[i+1]; p++ {
		if m.ColInd[p] == j {
			return m.Data[p]
		}
	}
	return 0
}

// T returns the implicit transpose (mat.Matrix).
func (m *Matrix) T() mat.Matrix { return mat.Transpose{Matrix: m} }

// NNZ returns the number of stored elements.
func (m *Matrix) NNZ() int { return len(m.Data) }

// Diag extracts the diagonal as a dense slice.
func (m *Matrix) Diag() []float64 {
	n := m.NRows
	if m.NCols < n {
		n = m.NCols
	}
	d := make([]float64, n)
	for i := 0; i < n; i++ {
		d[i] = m.At(i, i)
	}
	return d
}

// Row returns the stored column indices and values of row i, backed by
// the matrix storage.
func (m *Matrix) Row(i int) ([]int, []float64) {
	lo, hi := m.RowPtr[i], m.RowPtr[i+1]
	return m.ColInd[lo:hi], m.Data[lo:hi]
}

// RowDot returns the dot product of row i with a dense vector.
func (m *Matrix) RowDot(i int, x []float64) float64 {
	res := 0.0
	for p := m.RowPtr[i]; p < m.RowPtr[i+1]; p++ {
		res += m.Data[p] * x[m.ColInd[p]]
	}
	return res
}

// MulVec returns m·x as a dense vector.
func (m *Matrix) MulVec(x []float64) []float64 {
	if len(x) != m.NCols {
		panic(fmt.Sprintf("sparse: vector length %d against %d columns", len(x), m.NCols))
	}
	res := make([]float64, m.NRows)
	for i := 0; i < m.NRows; i++ {
		res[i] = m.RowDot(i, x)
	}
	return res
}

// Entries lists the stored elements in row-major order.
func (m *Matrix) Entries() []Entry {
	out := make([]Entry, 0, len(m.Data))
	for i := 0; i < m.NRows; i++ {
		for p := m.RowPtr[i]; p < m.RowPtr[i+1]; p++ {
			out = append(out, Entry{Row: i, Col: m.ColInd[p], Val: m.Data[p]})
		}
	}
	return out
}

// Dense expands the matrix into a gonum dense matrix.
func (m *Matrix) Dense() *mat.Dense {
	d := mat.NewDense(m.NRows, m.NCols, nil)
	for i := 0; i < m.NRows; i++ {
		for p := m.RowPtr[i]; p < m.RowPtr[i+1]; p++ {
			d.Set(i, m.ColInd[p], m.Data[p])
		}
	}
	return d
}

// Vector is a sparse row over a flat state space. Fields are exported
// for gob round-trips and must be treated as read-only.
type Vector struct {
	N    int
	Inds []int
	Vals []float64
}

// Compress builds a sparse vector from a dense one, keeping elements
// with magnitude above cutoff.
func Compress(dense []float64, cutoff float64) *Vector {
	v := &Vector{N: len(dense)}
	for i, x := range dense {
		if x > cutoff || x < -cutoff {
			v.Inds = append(v.Inds, i)
			v.Vals = append(v.Vals, x)
		}
	}
	return v
}

// Dense expands the vector.
func (v *Vector) Dense() []float64 {
	out := make([]float64, v.N)
	for i, idx := range v.Inds {
		out[idx] = v.Vals[i]
	}
	return out
}

// Dot returns the dot product with a dense vector.
func (v *Vector) Dot(x []float64) float64 {
	res := 0.0
	for i, idx := range v.Inds {
		res += v.Vals[i] * x[idx]
	}
	return res
}
