// basis_test.go --  This file is part of goVPT project.
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
package basis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinomials(t *testing.T) {
	b := NewBinomials()
	assert.Equal(t, int64(1), b.C(0, 0))
	assert.Equal(t, int64(10), b.C(5, 2))
	assert.Equal(t, int64(0), b.C(3, 5))
	assert.Equal(t, int64(0), b.C(-1, 0))
	assert.Equal(t, int64(252), b.C(10, 5))
}

func TestIndexGroundState(t *testing.T) {
	for modes := 1; modes <= 4; modes++ {
		b := NewBasis(modes, nil)
		assert.Equal(t, 0, b.Index(make(State, modes)))
	}
}

func TestIndexSingleMode(t *testing.T) {
	b := NewBasis(1, nil)
	for n := 0; n < 20; n++ {
		assert.Equal(t, n, b.Index(State{n}))
	}
}

func TestIndexTwoModeOrdering(t *testing.T) {
	b := NewBasis(2, nil)
	// graded by total quanta, first mode descending within a grade
	want := []State{
		{0, 0},
		{1, 0}, {0, 1},
		{2, 0}, {1, 1}, {0, 2},
		{3, 0}, {2, 1}, {1, 2}, {0, 3},
	}
	for idx, s := range want {
		assert.Equal(t, idx, b.Index(s), "state %v", s)
	}
}

func TestUnravelRoundTrip(t *testing.T) {
	for modes := 1; modes <= 4; modes++ {
		b := NewBasis(modes, nil)
		for idx := 0; idx < 200; idx++ {
			s := b.Unravel(idx)
			require.Equal(t, idx, b.Index(s), "modes=%d idx=%d state=%v", modes, idx, s)
		}
	}
}

func TestIndexSharedBinomialCache(t *testing.T) {
	bin := NewBinomials()
	b2 := NewBasis(2, bin)
	b3 := NewBasis(3, bin)
	assert.Equal(t, 2, b2.Index(State{0, 1}))
	assert.Equal(t, 2, b3.Index(State{0, 1, 0}))
	assert.Equal(t, 3, b3.Index(State{0, 0, 1}))
}

func TestStateTotalCloneEqual(t *testing.T) {
	s := State{2, 0, 1}
	assert.Equal(t, 3, s.Total())
	c := s.Clone()
	c[0] = 5
	assert.Equal(t, 2, s[0])
	assert.True(t, s.Equal(State{2, 0, 1}))
	assert.False(t, s.Equal(State{2, 0}))
	assert.Equal(t, "(2 0 1)", s.String())
}
