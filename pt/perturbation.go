// perturbation.go --  This file is part of goVPT project.
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

// Package pt implements arbitrary-order Rayleigh-Schrödinger
// perturbation theory over a graded harmonic-oscillator product basis,
// including degenerate subspaces handled by effective-Hamiltonian
// diagonalization. The solver consumes Hamiltonian terms through the
// Perturbation interface and produces per-state energy and
// wavefunction corrections order by order.
package pt

import (
	"govpt/basis"
	"govpt/sparse"
)

// Perturbation is one term H_k of the Hamiltonian expansion
// H = H₀ + H₁ + H₂ + …. Implementations are indexed-element providers:
// the solver asks for rectangular blocks between explicit bra and ket
// spaces, never for the full matrix.
type Perturbation interface {
	// SelectionRules lists the allowed quantum-number changes of the
	// term. The coupled-space build walks these algebraically.
	SelectionRules() basis.RuleSet

	// RepresentationMatrix returns ⟨bra|H_k|ket⟩ as a sparse block
	// with rows indexed by bra positions and columns by ket positions.
	// With diagonal set, bra and ket are the same space and only the
	// diagonal is wanted.
	RepresentationMatrix(bra, ket *basis.Space, diagonal bool) (*sparse.Matrix, error)
}

// Fingerprinter is optionally implemented by perturbation terms that
// can summarize their full element content cheaply. The solver folds
// the value into checkpoint validity keys so edited operators never
// reuse stale cached representations; terms without it are probed on
// their target rows instead.
type Fingerprinter interface {
	Fingerprint() uint64
}

// Representation matrices are held in per-order slices where a nil
// entry means the term is absent (zero). The helpers below keep the
// nil short-circuits in one place.

// repRowDot returns row i of h dotted with x, treating an absent term
// as zero.
func repRowDot(h *sparse.Matrix, i int, x []float64) float64 {
	if h == nil {
		return 0
	}
	return h.RowDot(i, x)
}

// repMulVec returns h·x, or nil for an absent term. Callers treat a
// nil result as the zero vector.
func repMulVec(h *sparse.Matrix, x []float64) []float64 {
	if h == nil {
		return nil
	}
	return h.MulVec(x)
}

// dot is the plain dense inner product, with nil slices acting as
// zero vectors.
func dot(a, b []float64) float64 {
	if a == nil || b == nil {
		return 0
	}
	res := 0.0
	for i, v := range a {
		res += v * b[i]
	}
	return res
}
