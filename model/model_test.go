// model_test.go --  This file is part of goVPT project.
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
package model

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govpt/basis"
	"govpt/pt"
)

func TestHarmonicRepresentation(t *testing.T) {
	b := basis.NewBasis(2, nil)
	sp := basis.NewSpace(b, []basis.State{{0, 0}, {1, 0}, {0, 1}})
	h := NewHarmonic([]float64{1.0, 2.0})

	m, err := h.RepresentationMatrix(sp, sp, true)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2.5, 3.5}, m.Diag())
	assert.Nil(t, h.SelectionRules())
}

func TestHarmonicWrongModeCount(t *testing.T) {
	b := basis.NewBasis(2, nil)
	sp := basis.NewSpace(b, []basis.State{{0, 0}})
	_, err := NewHarmonic([]float64{1.0}).RepresentationMatrix(sp, sp, true)
	assert.Error(t, err)
}

func TestOperatorElementsMirrored(t *testing.T) {
	b := basis.NewBasis(1, nil)
	op := NewOperator(basis.RuleSet{{1}, {-1}}, nil)
	op.SetStates(b, basis.State{0}, basis.State{1}, 0.25)

	assert.Equal(t, 0.25, op.At(0, 1))
	assert.Equal(t, 0.25, op.At(1, 0))
	assert.Equal(t, 0.0, op.At(0, 0))

	sp := basis.SpaceFromIndices(b, []int{0, 1, 2})
	m, err := op.RepresentationMatrix(sp, sp, false)
	require.NoError(t, err)
	assert.Equal(t, 0.25, m.At(0, 1))
	assert.Equal(t, 0.25, m.At(1, 0))
	assert.Equal(t, 2, m.NNZ())

	diag, err := op.RepresentationMatrix(sp, sp, true)
	require.NoError(t, err)
	assert.Equal(t, 0, diag.NNZ())
}

func TestFingerprintTracksContent(t *testing.T) {
	op := NewOperator(basis.RuleSet{{1, -1}}, nil)
	op.Set(1, 2, 0.1)
	before := op.Fingerprint()

	op.Set(1, 2, 0.2)
	assert.NotEqual(t, before, op.Fingerprint())

	same := NewOperator(basis.RuleSet{{1, -1}}, nil)
	same.Set(2, 1, 0.2) // mirror of the stored element
	assert.Equal(t, op.Fingerprint(), same.Fingerprint())

	assert.NotEqual(t,
		NewHarmonic([]float64{1.0, 1.1}).Fingerprint(),
		NewHarmonic([]float64{1.0, 1.2}).Fingerprint())
}

func TestOperatorParallelDiagonal(t *testing.T) {
	b := basis.NewBasis(3, nil)
	n := 4000
	inds := make([]int, n)
	for i := range inds {
		inds[i] = i
	}
	sp := basis.SpaceFromIndices(b, inds)

	op := NewOperator(basis.RuleSet{{1}, {-1}}, &pt.Parallelizer{Procs: 8})
	stored := 0
	for i := 0; i < n; i += 7 {
		op.Set(i, i, float64(i)+1)
		stored++
	}

	// workers share the ket space's first position lookup
	m, err := op.RepresentationMatrix(sp, sp, true)
	require.NoError(t, err)
	assert.Equal(t, stored, m.NNZ())
	assert.Equal(t, 1.0, m.At(0, 0))
	assert.Equal(t, 8.0, m.At(7, 7))
	assert.Equal(t, 0.0, m.At(1, 1))
}

const pairConfig = `
title: degenerate pair
modes: 2
frequencies: [1.0, 1.0]
order: 2
states:
  - [1, 0]
  - [0, 1]
degeneracies:
  kind: groups
  groups:
    - [[1, 0], [0, 1]]
perturbations:
  - order: 1
    rules:
      - [1, -1]
    elements:
      - bra: [1, 0]
        ket: [0, 1]
        value: 0.1
`

func TestLoadAndSolve(t *testing.T) {
	cfg, err := Load([]byte(pairConfig))
	require.NoError(t, err)
	assert.Equal(t, "degenerate pair", cfg.Title)

	targets, hams, opts, err := cfg.Build(pt.Quiet(), nil)
	require.NoError(t, err)
	require.Len(t, hams, 3)
	assert.Nil(t, hams[2])

	s, err := pt.NewSolver(targets, hams, opts)
	require.NoError(t, err)
	c, err := s.Run()
	require.NoError(t, err)

	got := c.TotalEnergies()
	sort.Float64s(got)
	assert.InDelta(t, 1.9, got[0], 1e-12)
	assert.InDelta(t, 2.1, got[1], 1e-12)
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"no modes", "modes: 0\nfrequencies: []\norder: 2\nstates: [[0]]"},
		{"frequency count", "modes: 2\nfrequencies: [1.0]\norder: 2\nstates: [[0, 0]]"},
		{"no order", "modes: 1\nfrequencies: [1.0]\norder: 0\nstates: [[0]]"},
		{"no states", "modes: 1\nfrequencies: [1.0]\norder: 2\nstates: []"},
		{"state width", "modes: 2\nfrequencies: [1.0, 1.0]\norder: 2\nstates: [[0]]"},
		{"perturbation order", `
modes: 1
frequencies: [1.0]
order: 2
states: [[0]]
perturbations:
  - order: 3
    rules: [[1]]
`},
		{"element width", `
modes: 1
frequencies: [1.0]
order: 1
states: [[0]]
perturbations:
  - order: 1
    rules: [[1]]
    elements:
      - bra: [0, 0]
        ket: [1]
        value: 0.1
`},
		{"not yaml", "{{{"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestDegeneracyKinds(t *testing.T) {
	cfg, err := Load([]byte(`
modes: 1
frequencies: [1.0]
order: 1
states: [[0]]
degeneracies:
  kind: energy_cutoff
  cutoff: 0.5
`))
	require.NoError(t, err)
	_, _, opts, err := cfg.Build(pt.Quiet(), nil)
	require.NoError(t, err)
	assert.Equal(t, pt.DegenerateEnergyCutoff, opts.Degeneracies.Kind)
	assert.Equal(t, 0.5, opts.Degeneracies.Cutoff)

	cfg, err = Load([]byte(`
modes: 2
frequencies: [1.0, 1.0]
order: 1
states: [[1, 0], [0, 2]]
degeneracies:
  kind: nt
  nt: [2, 1]
`))
	require.NoError(t, err)
	_, _, opts, err = cfg.Build(pt.Quiet(), nil)
	require.NoError(t, err)
	assert.Equal(t, pt.DegenerateNT, opts.Degeneracies.Kind)
	// 2*n1 + n2 puts (1 0) and (0 2) in the same polyad
	assert.Equal(t, opts.Degeneracies.NT(basis.State{1, 0}), opts.Degeneracies.NT(basis.State{0, 2}))

	cfg, err = Load([]byte(`
modes: 1
frequencies: [1.0]
order: 1
states: [[0]]
degeneracies:
  kind: what
`))
	require.NoError(t, err)
	_, _, _, err = cfg.Build(pt.Quiet(), nil)
	assert.Error(t, err)
}

func TestUnknownDegeneracyKindString(t *testing.T) {
	d := &DegeneracyConfig{Kind: "bogus"}
	_, err := d.spec(basis.NewBasis(1, nil))
	assert.Error(t, err)
}
