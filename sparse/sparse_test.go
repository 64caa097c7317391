// sparse_test.go --  This file is part of goVPT project.
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
package sparse

import (
	"bytes"
	"encoding/gob"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndAt(t *testing.T) {
	m := New(3, 3, []Entry{
		{Row: 0, Col: 1, Val: 2.5},
		{Row: 2, Col: 0, Val: -1},
		{Row: 1, Col: 1, Val: 4},
	})
	r, c := m.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, 2.5, m.At(0, 1))
	assert.Equal(t, -1.0, m.At(2, 0))
	assert.Equal(t, 0.0, m.At(0, 0))
	assert.Equal(t, 3, m.NNZ())
}

func TestDuplicateEntriesSum(t *testing.T) {
	m := New(2, 2, []Entry{
		{Row: 0, Col: 1, Val: 1},
		{Row: 0, Col: 1, Val: 2.5},
	})
	assert.Equal(t, 3.5, m.At(0, 1))
	assert.Equal(t, 1, m.NNZ())
}

func TestDiagonal(t *testing.T) {
	m := Diagonal([]float64{1, 0, 3})
	assert.Equal(t, []float64{1, 0, 3}, m.Diag())
	assert.Equal(t, 2, m.NNZ()) // zeros are not stored
}

func TestMulVecAndRowDot(t *testing.T) {
	// [[1 2] [0 3]]
	m := New(2, 2, []Entry{
		{Row: 0, Col: 0, Val: 1},
		{Row: 0, Col: 1, Val: 2},
		{Row: 1, Col: 1, Val: 3},
	})
	x := []float64{4, 5}
	assert.Equal(t, []float64{14, 15}, m.MulVec(x))
	assert.Equal(t, 14.0, m.RowDot(0, x))
	assert.Panics(t, func() { m.MulVec([]float64{1}) })
}

func TestEntriesRowMajor(t *testing.T) {
	m := New(2, 2, []Entry{
		{Row: 1, Col: 0, Val: 3},
		{Row: 0, Col: 1, Val: 1},
	})
	assert.Equal(t, []Entry{
		{Row: 0, Col: 1, Val: 1},
		{Row: 1, Col: 0, Val: 3},
	}, m.Entries())
}

func TestDense(t *testing.T) {
	m := New(2, 3, []Entry{{Row: 1, Col: 2, Val: 7}})
	d := m.Dense()
	assert.Equal(t, 7.0, d.At(1, 2))
	assert.Equal(t, 0.0, d.At(0, 0))
}

func TestMatrixGobRoundTrip(t *testing.T) {
	m := New(3, 3, []Entry{
		{Row: 0, Col: 1, Val: 0.1},
		{Row: 2, Col: 2, Val: -1e-13},
	})
	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(m))
	var back Matrix
	require.NoError(t, gob.NewDecoder(&buf).Decode(&back))
	assert.Equal(t, *m, back)
}

func TestVectorCompress(t *testing.T) {
	v := Compress([]float64{0, 1e-20, 0.5, -0.25}, 1e-14)
	assert.Equal(t, []int{2, 3}, v.Inds)
	assert.Equal(t, []float64{0.5, -0.25}, v.Vals)
	assert.Equal(t, []float64{0, 0, 0.5, -0.25}, v.Dense())
	assert.Equal(t, 0.5*2-0.25*4, v.Dot([]float64{1, 1, 2, 4}))
}
