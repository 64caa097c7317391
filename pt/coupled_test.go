// coupled_test.go --  This file is part of goVPT project.
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
package pt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govpt/basis"
)

func ladderHams() []Perturbation {
	h0 := harmonicTerm{freqs: []float64{1}}
	h1 := tableTerm{rules: basis.RuleSet{{1}, {-1}}}
	return []Perturbation{h0, h1}
}

func TestCoupledBuildLadder(t *testing.T) {
	b := basis.NewBasis(1, nil)
	targets := basis.NewSpace(b, []basis.State{{0}})
	cb := newCoupledBuilder(b, ladderHams(), 2, Options{Log: Quiet()})

	coupled := cb.build(targets)
	require.Len(t, coupled, 2)
	assert.Nil(t, coupled[1], "no second-order operator, no coupled space")

	rs := coupled[0]
	require.NotNil(t, rs)
	// order 1 expands the target, order 2 expands the first-order space
	assert.Equal(t, []int{0, 1}, rs.Source().Indices())
	assert.Equal(t, []int{1}, rs.Reach(0).Indices())
	assert.Equal(t, []int{0, 2}, rs.Reach(1).Indices())

	flat := flatSpace(targets, coupled)
	assert.Equal(t, []int{0, 1, 2}, flat.Indices())
}

func TestCoupledIncrementalMemo(t *testing.T) {
	b := basis.NewBasis(1, nil)
	targets := basis.NewSpace(b, []basis.State{{0}})
	cb := newCoupledBuilder(b, ladderHams(), 2, Options{Log: Quiet()})
	cb.build(targets)

	require.Equal(t, 2, cb.memo[1].seen.Len())

	// a later request over a superset expands only the difference
	wider := basis.SpaceFromIndices(b, []int{0, 1, 2})
	rs := cb.apply(1, wider, true, true)
	require.NotNil(t, rs)
	assert.Equal(t, 3, cb.memo[1].seen.Len())
	assert.Equal(t, 3, rs.Len())

	// earlier sources kept their reaches
	assert.Equal(t, []int{1}, rs.Reach(0).Indices())
	assert.Equal(t, []int{0, 2}, rs.Reach(1).Indices())
	assert.Equal(t, []int{1, 3}, rs.Reach(2).Indices())

	// repeating the request expands nothing further
	seen := cb.memo[1].seen.Len()
	_ = cb.apply(1, wider, true, true)
	assert.Equal(t, seen, cb.memo[1].seen.Len())
}

func TestCoupledMemoryConstrained(t *testing.T) {
	b := basis.NewBasis(1, nil)
	targets := basis.NewSpace(b, []basis.State{{0}})

	plain := newCoupledBuilder(b, ladderHams(), 2, Options{Log: Quiet()})
	lean := newCoupledBuilder(b, ladderHams(), 2, Options{Log: Quiet(), MemoryConstrained: true})

	a := plain.build(targets)
	c := lean.build(targets)

	// no seen sets are retained, but the result is the same
	assert.Equal(t, 0, lean.memo[1].seen.Len())
	require.NotNil(t, c[0])
	assert.Equal(t, a[0].Source().Indices(), c[0].Source().Indices())
	assert.Equal(t, a[0].ToSingle().Indices(), c[0].ToSingle().Indices())
}

func TestCoupledIterationCap(t *testing.T) {
	b := basis.NewBasis(1, nil)
	targets := basis.NewSpace(b, []basis.State{{0}})
	cb := newCoupledBuilder(b, ladderHams(), 3, Options{Log: Quiet(), StateSpaceIterations: 1})

	coupled := cb.build(targets)
	rs := coupled[0]
	require.NotNil(t, rs)
	// only the first iteration discovered new sources
	assert.Equal(t, []int{0}, rs.Source().Indices())

	full := newCoupledBuilder(b, ladderHams(), 3, Options{Log: Quiet()}).build(targets)
	assert.Greater(t, full[0].Source().Len(), rs.Source().Len())
}

func TestPrecomputedCoupledStates(t *testing.T) {
	b := basis.NewBasis(1, nil)
	targets := basis.NewSpace(b, []basis.State{{0}})
	pre := newCoupledBuilder(b, ladderHams(), 2, Options{Log: Quiet()}).build(targets)

	s, err := NewSolver(targets, ladderHams(), Options{Order: 2, CoupledStates: pre})
	require.NoError(t, err)
	c, err := s.Run()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, c.TotalStates.Indices())
}

func TestCoupledStatesCountValidated(t *testing.T) {
	b := basis.NewBasis(1, nil)
	targets := basis.NewSpace(b, []basis.State{{0}})
	pre := make([]*basis.RuleSpace, 1) // wrong count for order 2
	_, err := NewSolver(targets, ladderHams(), Options{Order: 2, CoupledStates: pre})
	assert.Error(t, err)
}
