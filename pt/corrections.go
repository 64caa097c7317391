// corrections.go --  This file is part of goVPT project.
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
	"encoding/gob"
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"

	"govpt/basis"
	"govpt/sparse"
)

// DegenerateData records what the post-PT resolver did: the groups,
// the effective Hamiltonian of every multi-member group, the
// block-diagonal rotation over the target states, and the rotated
// total energies.
type DegenerateData struct {
	Groups []*basis.Space
	// EffectiveHamiltonians is parallel to Groups; nil for singleton
	// groups, which need no diagonalization.
	EffectiveHamiltonians []*mat.Dense
	Rotation              *sparse.Matrix
	Energies              []float64
}

// Corrections is the result of a perturbation run: per-target-state
// energies, overlaps, and wavefunction-coefficient rows at each order,
// plus the spaces and representations that produced them. Read-only to
// downstream consumers.
type Corrections struct {
	// RunID ties the container to checkpoint records.
	RunID string

	// States holds the target states; Coupled the per-order coupled
	// spaces (flattened); TotalStates the flat space wavefunction rows
	// are indexed over.
	States      *basis.Space
	Coupled     []*basis.Space
	TotalStates *basis.Space

	// Energies, Overlaps, and Wavefunctions are indexed [state][order].
	Energies      [][]float64
	Overlaps      [][]float64
	Wavefunctions [][]*sparse.Vector

	// Hamiltonians holds the representation matrices over the flat
	// space, indexed by perturbation order; nil for absent terms.
	Hamiltonians []*sparse.Matrix

	// Degenerate is non-nil when degenerate groups were resolved.
	Degenerate *DegenerateData
}

// Order returns the highest computed correction order.
func (c *Corrections) Order() int {
	if len(c.Energies) == 0 {
		return 0
	}
	return len(c.Energies[0]) - 1
}

// IsDegenerate reports whether a degenerate rotation was applied.
func (c *Corrections) IsDegenerate() bool { return c.Degenerate != nil }

// TotalEnergies returns the final per-state energies: the rotated
// degenerate energies when present, otherwise the plain sum of the
// order corrections.
func (c *Corrections) TotalEnergies() []float64 {
	if c.Degenerate != nil {
		cp := make([]float64, len(c.Degenerate.Energies))
		copy(cp, c.Degenerate.Energies)
		return cp
	}
	return c.sumEnergies()
}

func (c *Corrections) sumEnergies() []float64 {
	out := make([]float64, len(c.Energies))
	for i, es := range c.Energies {
		for _, e := range es {
			out[i] += e
		}
	}
	return out
}

// TakeSubspace restricts the container to a subset of its target
// states. Degenerate data does not survive the restriction.
func (c *Corrections) TakeSubspace(states *basis.Space) (*Corrections, error) {
	pos, err := c.States.Find(states)
	if err != nil {
		return nil, err
	}
	out := &Corrections{
		RunID:         c.RunID,
		States:        c.States.Take(pos),
		Coupled:       c.Coupled,
		TotalStates:   c.TotalStates,
		Energies:      make([][]float64, len(pos)),
		Overlaps:      make([][]float64, len(pos)),
		Wavefunctions: make([][]*sparse.Vector, len(pos)),
		Hamiltonians:  c.Hamiltonians,
	}
	for i, p := range pos {
		out.Energies[i] = c.Energies[p]
		out.Overlaps[i] = c.Overlaps[p]
		out.Wavefunctions[i] = c.Wavefunctions[p]
	}
	return out, nil
}

// ExpansionTerm is one term of an operator expansion fed to
// OperatorRepresentation. A nil Matrix means the scalar times the
// identity; a zero-scalar nil-matrix term is absent.
type ExpansionTerm struct {
	Scalar float64
	Matrix *sparse.Matrix
}

func (t ExpansionTerm) absent() bool { return t.Matrix == nil && t.Scalar == 0 }

// OperatorRepresentation expresses an operator, given by its expansion
// terms in powers of the perturbation, in the corrected basis of the
// requested target states:
//
//	M = Σ_{k=0}^{order} Σ_{a+b+c=k} ψ_a · op_c · ψ_bᵀ
//
// The triple sum is truncated at the computed order. Terms beyond the
// expansion are treated as absent; scalar terms never trigger a matrix
// product.
func (c *Corrections) OperatorRepresentation(terms []ExpansionTerm, states *basis.Space) (*mat.Dense, error) {
	pos, err := c.States.Find(states)
	if err != nil {
		return nil, err
	}
	g := len(pos)
	N := c.TotalStates.Len()
	order := c.Order()

	// Dense per-order coefficient matrices for the selected states.
	U := make([]*mat.Dense, order+1)
	for a := 0; a <= order; a++ {
		U[a] = mat.NewDense(g, N, nil)
		for s, p := range pos {
			U[a].SetRow(s, c.Wavefunctions[p][a].Dense())
		}
	}

	out := mat.NewDense(g, g, nil)
	tmp := mat.NewDense(g, N, nil)
	block := mat.NewDense(g, g, nil)
	for k := 0; k <= order; k++ {
		for a := 0; a <= k; a++ {
			for b := 0; b <= k-a; b++ {
				ci := k - a - b
				if ci >= len(terms) || terms[ci].absent() {
					continue
				}
				t := terms[ci]
				if t.Matrix != nil {
					tmp.Mul(U[a], t.Matrix)
					block.Mul(tmp, U[b].T())
				} else {
					block.Mul(U[a], U[b].T())
					block.Scale(t.Scalar, block)
				}
				out.Add(out, block)
			}
		}
	}
	return out, nil
}

// OverlapMatrices returns, per order k, the matrix of cross-state
// overlap shells S_k[i][j] = Σ_{a=0}^{k} ⟨ψ_a(i)|ψ_{k-a}(j)⟩ over the
// target states. The k=0 shell is the identity and, absent
// intermediate normalization, every higher shell sums into the norm
// check.
func (c *Corrections) OverlapMatrices() []*mat.Dense {
	g := len(c.Wavefunctions)
	order := c.Order()
	out := make([]*mat.Dense, order+1)
	for k := 0; k <= order; k++ {
		m := mat.NewDense(g, g, nil)
		for i := 0; i < g; i++ {
			for j := 0; j < g; j++ {
				s := 0.0
				for a := 0; a <= k; a++ {
					s += c.Wavefunctions[i][a].Dot(c.Wavefunctions[j][k-a].Dense())
				}
				m.Set(i, j, s)
			}
		}
		out[k] = m
	}
	return out
}

// archive is the flat serialized form. Spaces are stored as excitation
// vectors so the container can be rehydrated without the original
// basis object; floats are carried verbatim so round-trips are
// bit-identical. Everything is held by value with presence flags,
// since gob has no encoding for nil pointers.
type archive struct {
	RunID string
	Modes int

	States      [][]int
	Coupled     [][][]int
	TotalStates [][]int

	Energies      [][]float64
	Overlaps      [][]float64
	Wavefunctions [][]sparse.Vector
	Hamiltonians  []sparse.Matrix
	HamPresent    []bool

	HasDegenerate      bool
	DegenerateGroups   [][][]int
	EffectiveHams      []archiveDense // Rows == 0 means absent
	DegenerateRotation sparse.Matrix
	DegenerateEnergies []float64
}

type archiveDense struct {
	Rows, Cols int
	Data       []float64
}

func spaceVectors(s *basis.Space) [][]int {
	if s == nil {
		return nil
	}
	out := make([][]int, s.Len())
	for i := 0; i < s.Len(); i++ {
		out[i] = s.State(i)
	}
	return out
}

func spaceFromVectors(b *basis.Basis, vecs [][]int) *basis.Space {
	states := make([]basis.State, len(vecs))
	for i, v := range vecs {
		states[i] = basis.State(v)
	}
	return basis.NewSpace(b, states)
}

// Encode writes the container as a gob archive.
func (c *Corrections) Encode(w io.Writer) error {
	a := &archive{
		RunID:       c.RunID,
		Modes:       c.States.Basis().Modes(),
		States:      spaceVectors(c.States),
		TotalStates: spaceVectors(c.TotalStates),
		Energies:    c.Energies,
		Overlaps:    c.Overlaps,
	}
	a.Wavefunctions = make([][]sparse.Vector, len(c.Wavefunctions))
	for i, rows := range c.Wavefunctions {
		a.Wavefunctions[i] = make([]sparse.Vector, len(rows))
		for k, v := range rows {
			a.Wavefunctions[i][k] = *v
		}
	}
	a.Hamiltonians = make([]sparse.Matrix, len(c.Hamiltonians))
	a.HamPresent = make([]bool, len(c.Hamiltonians))
	for i, h := range c.Hamiltonians {
		if h != nil {
			a.Hamiltonians[i] = *h
			a.HamPresent[i] = true
		}
	}
	a.Coupled = make([][][]int, len(c.Coupled))
	for i, sp := range c.Coupled {
		a.Coupled[i] = spaceVectors(sp)
	}
	if d := c.Degenerate; d != nil {
		a.HasDegenerate = true
		a.DegenerateGroups = make([][][]int, len(d.Groups))
		for i, g := range d.Groups {
			a.DegenerateGroups[i] = spaceVectors(g)
		}
		a.EffectiveHams = make([]archiveDense, len(d.EffectiveHamiltonians))
		for i, h := range d.EffectiveHamiltonians {
			if h == nil {
				continue
			}
			r, cl := h.Dims()
			data := make([]float64, 0, r*cl)
			for ri := 0; ri < r; ri++ {
				data = append(data, h.RawRowView(ri)...)
			}
			a.EffectiveHams[i] = archiveDense{Rows: r, Cols: cl, Data: data}
		}
		if d.Rotation != nil {
			a.DegenerateRotation = *d.Rotation
		}
		a.DegenerateEnergies = d.Energies
	}
	return gob.NewEncoder(w).Encode(a)
}

// DecodeCorrections rehydrates a container from a gob archive.
func DecodeCorrections(r io.Reader) (*Corrections, error) {
	var a archive
	if err := gob.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("pt: decode corrections: %w", err)
	}
	b := basis.NewBasis(a.Modes, nil)
	c := &Corrections{
		RunID:       a.RunID,
		States:      spaceFromVectors(b, a.States),
		TotalStates: spaceFromVectors(b, a.TotalStates),
		Energies:    a.Energies,
		Overlaps:    a.Overlaps,
	}
	c.Wavefunctions = make([][]*sparse.Vector, len(a.Wavefunctions))
	for i, rows := range a.Wavefunctions {
		c.Wavefunctions[i] = make([]*sparse.Vector, len(rows))
		for k := range rows {
			c.Wavefunctions[i][k] = &a.Wavefunctions[i][k]
		}
	}
	c.Hamiltonians = make([]*sparse.Matrix, len(a.Hamiltonians))
	for i := range a.Hamiltonians {
		if a.HamPresent[i] {
			c.Hamiltonians[i] = &a.Hamiltonians[i]
		}
	}
	c.Coupled = make([]*basis.Space, len(a.Coupled))
	for i, vecs := range a.Coupled {
		c.Coupled[i] = spaceFromVectors(b, vecs)
	}
	if a.HasDegenerate {
		rot := a.DegenerateRotation
		d := &DegenerateData{
			Rotation: &rot,
			Energies: a.DegenerateEnergies,
		}
		d.Groups = make([]*basis.Space, len(a.DegenerateGroups))
		for i, vecs := range a.DegenerateGroups {
			d.Groups[i] = spaceFromVectors(b, vecs)
		}
		d.EffectiveHamiltonians = make([]*mat.Dense, len(a.EffectiveHams))
		for i, h := range a.EffectiveHams {
			if h.Rows == 0 {
				continue
			}
			d.EffectiveHamiltonians[i] = mat.NewDense(h.Rows, h.Cols, h.Data)
		}
		c.Degenerate = d
	}
	return c, nil
}
