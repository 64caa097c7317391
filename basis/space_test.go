// space_test.go --  This file is part of goVPT project.
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
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoModeSpace(t *testing.T, states ...State) *Space {
	t.Helper()
	return NewSpace(NewBasis(2, nil), states)
}

func TestSpaceIndicesAndLookup(t *testing.T) {
	s := twoModeSpace(t, State{1, 0}, State{0, 1}, State{1, 1})
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []int{1, 2, 4}, s.Indices())
	assert.True(t, s.Contains(2))
	assert.False(t, s.Contains(3))
	assert.Equal(t, 1, s.Position(2))
	assert.Equal(t, -1, s.Position(3))

	p, err := s.FindState(State{1, 1})
	require.NoError(t, err)
	assert.Equal(t, 2, p)
}

func TestFindMissingState(t *testing.T) {
	s := twoModeSpace(t, State{1, 0})
	other := twoModeSpace(t, State{1, 0}, State{2, 0})
	_, err := s.Find(other)
	require.Error(t, err)
	var lerr *LookupError
	require.True(t, errors.As(err, &lerr))
	assert.Len(t, lerr.Missing, 1)
	assert.True(t, lerr.Missing[0].Equal(State{2, 0}))

	pos := s.FindUnsafe(other)
	assert.Equal(t, []int{0, -1}, pos)
}

func TestSetAlgebra(t *testing.T) {
	a := twoModeSpace(t, State{0, 0}, State{1, 0})
	b := twoModeSpace(t, State{1, 0}, State{0, 1})

	u := a.Union(b)
	assert.Equal(t, []int{0, 1, 2}, u.Indices())

	d := a.Difference(b)
	assert.Equal(t, []int{0}, d.Indices())

	i := a.Intersection(b)
	assert.Equal(t, []int{1}, i.Indices())

	// operands are untouched
	assert.Equal(t, 2, a.Len())
	assert.Equal(t, 2, b.Len())
}

func TestUnionWithEmpty(t *testing.T) {
	b := NewBasis(2, nil)
	a := twoModeSpace(t, State{1, 0}, State{1, 0})
	u := a.Union(EmptySpace(b))
	// duplicates collapse even against an empty operand
	assert.Equal(t, []int{1}, u.Indices())
}

func TestTakeAndSplit(t *testing.T) {
	s := twoModeSpace(t, State{0, 0}, State{1, 0}, State{0, 1})
	sub := s.Take([]int{2, 0})
	assert.Equal(t, []int{2, 0}, sub.Indices())

	parts := s.Split()
	require.Len(t, parts, 3)
	for i, p := range parts {
		assert.Equal(t, 1, p.Len())
		assert.Equal(t, s.Index(i), p.Index(0))
	}
}

func TestConcurrentLookups(t *testing.T) {
	b := NewBasis(2, nil)
	n := 500
	inds := make([]int, n)
	for i := range inds {
		inds[i] = i
	}
	s := SpaceFromIndices(b, inds)

	// first position lookup happens inside the workers
	workers := 8
	bad := make([]int, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < n; i++ {
				if s.Position(i) != i || !s.Contains(i) {
					bad[w]++
				}
			}
		}(w)
	}
	wg.Wait()
	for w := 0; w < workers; w++ {
		assert.Zero(t, bad[w], "worker %d", w)
	}
}

func TestSpaceFromIndices(t *testing.T) {
	b := NewBasis(2, nil)
	s := SpaceFromIndices(b, []int{4, 1})
	assert.True(t, s.State(0).Equal(State{1, 1}))
	assert.True(t, s.State(1).Equal(State{1, 0}))
}
