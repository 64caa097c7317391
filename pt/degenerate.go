// degenerate.go --  This file is part of goVPT project.
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
	"errors"

	"gonum.org/v1/gonum/mat"

	"govpt/basis"
	"govpt/sparse"
)

// mixedStateCutoff is the squared-overlap share below which an
// eigenvector has no clear parent state and a warning is logged.
const mixedStateCutoff = 0.5

// applyPostPT resolves every multi-member degenerate group by
// diagonalizing its effective Hamiltonian in the corrected basis and
// assembles the block-diagonal rotation over all target states.
// Singleton groups contribute identity blocks and keep their summed
// energies.
func applyPostPT(c *Corrections, groups []*basis.Space, log *Loggers) (*DegenerateData, error) {
	nTargets := c.States.Len()
	energies := c.sumEnergies()
	effHams := make([]*mat.Dense, len(groups))
	var rot []sparse.Entry

	terms := make([]ExpansionTerm, len(c.Hamiltonians))
	for k, h := range c.Hamiltonians {
		terms[k] = ExpansionTerm{Matrix: h}
	}

	for gi, g := range groups {
		pos, err := c.States.Find(g)
		if err != nil {
			return nil, err
		}
		if g.Len() == 1 {
			rot = append(rot, sparse.Entry{Row: pos[0], Col: pos[0], Val: 1})
			continue
		}

		heff, err := c.OperatorRepresentation(terms, g)
		if err != nil {
			return nil, err
		}
		effHams[gi] = heff
		log.Info.Printf("diagonalizing %dx%d effective Hamiltonian for group %s",
			g.Len(), g.Len(), g)

		sym := symmetrize(heff)
		var eig mat.EigenSym
		if ok := eig.Factorize(sym, true); !ok {
			return nil, errors.New("pt: effective Hamiltonian eigendecomposition failed")
		}
		vals := eig.Values(nil)
		var vecs mat.Dense
		eig.VectorsTo(&vecs)

		cols := sortEigenvectors(&vecs, log, g)
		for i, p := range pos {
			energies[p] = vals[cols[i]]
			for j, q := range pos {
				v := vecs.At(j, cols[i])
				if v != 0 {
					rot = append(rot, sparse.Entry{Row: p, Col: q, Val: v})
				}
			}
		}
	}

	return &DegenerateData{
		Groups:                groups,
		EffectiveHamiltonians: effHams,
		Rotation:              sparse.New(nTargets, nTargets, rot),
		Energies:              energies,
	}, nil
}

func symmetrize(m *mat.Dense) *mat.SymDense {
	n, _ := m.Dims()
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, 0.5*(m.At(i, j)+m.At(j, i)))
		}
	}
	return s
}

// sortEigenvectors greedily assigns each input state the eigenvector
// it overlaps most, marking claimed states so no eigenvector is taken
// twice. Returns, per input state, the assigned eigenvector column.
// The matching is a heuristic, not globally optimal; an assignment
// without a majority overlap logs a mixed-state warning.
func sortEigenvectors(vecs *mat.Dense, log *Loggers, g *basis.Space) []int {
	n, _ := vecs.Dims()
	sq := make([][]float64, n)
	for i := 0; i < n; i++ {
		sq[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			v := vecs.At(i, j)
			sq[i][j] = v * v
		}
	}
	cols := make([]int, n)
	taken := make([]bool, n)
	for j := 0; j < n; j++ { // eigenvectors in eigenvalue order
		best, bestVal := -1, -1.0
		for i := 0; i < n; i++ {
			if taken[i] {
				continue
			}
			if sq[i][j] > bestVal {
				best, bestVal = i, sq[i][j]
			}
		}
		taken[best] = true
		cols[best] = j
		if bestVal <= mixedStateCutoff {
			log.Warning.Printf(
				"state %s maps to a highly mixed eigenvector (best overlap %.3f); labeling may be ambiguous",
				g.State(best), bestVal)
		}
	}
	return cols
}
