// model.go --  This file is part of goVPT project.
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

// Package model provides concrete representation providers for the
// solver: a harmonic zero-order Hamiltonian and tabulated perturbation
// operators with explicit selection rules, plus the YAML input format
// the driver consumes.
package model

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"

	"golang.org/x/exp/slices"

	"govpt/basis"
	"govpt/pt"
	"govpt/sparse"
)

// Harmonic is the zero-order Hamiltonian of a separable harmonic
// oscillator: E(n) = Σ_i ω_i (n_i + 1/2). It couples nothing, so its
// selection rules are empty.
type Harmonic struct {
	freqs []float64
}

// NewHarmonic builds the zero-order term from per-mode frequencies.
func NewHarmonic(freqs []float64) *Harmonic {
	return &Harmonic{freqs: freqs}
}

// Energy returns the zero-order energy of a state.
func (h *Harmonic) Energy(s basis.State) float64 {
	e := 0.0
	for i, n := range s {
		e += h.freqs[i] * (float64(n) + 0.5)
	}
	return e
}

// SelectionRules returns no rules; H₀ is diagonal.
func (h *Harmonic) SelectionRules() basis.RuleSet { return nil }

// Fingerprint summarizes the frequencies for checkpoint validation.
func (h *Harmonic) Fingerprint() uint64 {
	hash := fnv.New64a()
	buf := make([]byte, 8)
	for _, f := range h.freqs {
		binary.LittleEndian.PutUint64(buf, math.Float64bits(f))
		hash.Write(buf)
	}
	return hash.Sum64()
}

// RepresentationMatrix returns the diagonal block of H₀ over the bra
// space. The ket space and the diagonal flag are accepted for
// interface conformance; off-diagonal elements are always zero.
func (h *Harmonic) RepresentationMatrix(bra, ket *basis.Space, diagonal bool) (*sparse.Matrix, error) {
	if m := bra.Basis().Modes(); m != len(h.freqs) {
		return nil, fmt.Errorf("model: %d frequencies for a %d-mode basis", len(h.freqs), m)
	}
	d := make([]float64, bra.Len())
	for i := 0; i < bra.Len(); i++ {
		d[i] = h.Energy(bra.State(i))
	}
	return sparse.Diagonal(d), nil
}

// Operator is a perturbation term with explicitly tabulated matrix
// elements keyed by scalar index pairs. Elements are stored once per
// unordered pair and mirrored, keeping the operator Hermitian.
type Operator struct {
	rules    basis.RuleSet
	elements map[[2]int]float64
	par      *pt.Parallelizer
}

// NewOperator builds an empty operator with the given selection rules.
func NewOperator(rules basis.RuleSet, par *pt.Parallelizer) *Operator {
	return &Operator{
		rules:    rules,
		elements: make(map[[2]int]float64),
		par:      par,
	}
}

// Set records ⟨i|H|j⟩ = v (and its mirror) by scalar index.
func (op *Operator) Set(i, j int, v float64) {
	if j < i {
		i, j = j, i
	}
	op.elements[[2]int{i, j}] = v
}

// SetStates records an element by excitation vector.
func (op *Operator) SetStates(b *basis.Basis, bra, ket basis.State, v float64) {
	op.Set(b.Index(bra), b.Index(ket), v)
}

// At returns the tabulated element for a scalar index pair.
func (op *Operator) At(i, j int) float64 {
	if j < i {
		i, j = j, i
	}
	return op.elements[[2]int{i, j}]
}

// SelectionRules returns the operator's allowed transitions.
func (op *Operator) SelectionRules() basis.RuleSet { return op.rules }

// Fingerprint summarizes the rules and every tabulated element, so an
// edited operator invalidates checkpointed representations.
func (op *Operator) Fingerprint() uint64 {
	hash := fnv.New64a()
	buf := make([]byte, 8)
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf, v)
		hash.Write(buf)
	}
	for _, r := range op.rules {
		put(uint64(len(r)))
		for _, v := range r {
			put(uint64(int64(v)))
		}
	}
	keys := make([][2]int, 0, len(op.elements))
	for k := range op.elements {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b [2]int) int {
		if a[0] != b[0] {
			return a[0] - b[0]
		}
		return a[1] - b[1]
	})
	for _, k := range keys {
		put(uint64(k[0]))
		put(uint64(k[1]))
		put(math.Float64bits(op.elements[k]))
	}
	return hash.Sum64()
}

// RepresentationMatrix materializes the block between the bra and ket
// spaces. Rows are filled in parallel blocks and merged by index, so
// assembly is deterministic regardless of worker count.
func (op *Operator) RepresentationMatrix(bra, ket *basis.Space, diagonal bool) (*sparse.Matrix, error) {
	rows := bra.Len()
	cols := ket.Len()
	perRow := make([][]sparse.Entry, rows)
	op.par.Run(rows, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			bi := bra.Index(i)
			if diagonal {
				if v := op.At(bi, bi); v != 0 {
					if p := ket.Position(bi); p >= 0 {
						perRow[i] = []sparse.Entry{{Row: i, Col: p, Val: v}}
					}
				}
				continue
			}
			for j := 0; j < cols; j++ {
				if v := op.At(bi, ket.Index(j)); v != 0 {
					perRow[i] = append(perRow[i], sparse.Entry{Row: i, Col: j, Val: v})
				}
			}
		}
	})
	var entries []sparse.Entry
	for _, r := range perRow {
		entries = append(entries, r...)
	}
	return sparse.New(rows, cols, entries), nil
}
