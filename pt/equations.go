// equations.go --  This file is part of goVPT project.
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
	"math"

	"gonum.org/v1/gonum/stat"

	"govpt/sparse"
)

// normTolerance is the allowed drift of the cumulative norm from 1.
const normTolerance = 0.005

// stateCorrs holds the raw corrections for one target state, dense
// over the flat space.
type stateCorrs struct {
	energies []float64
	overlaps []float64
	wfns     [][]float64
}

// resolvent builds Π_n over the flat space: 1/(E_m − E_n) outside the
// degenerate group of n, exactly 0 inside. Out-of-group denominators
// below cutoff fail with a DegeneracyError naming the colliding
// states; huge coefficients must never leave this function silently.
//
// n and group are flat-space positions; flatIdx maps positions to
// scalar basis indices for error reporting.
func resolvent(n int, group []int, e0 []float64, cutoff float64,
	flatIdx []int) ([]float64, error) {
	inGroup := make(map[int]bool, len(group))
	for _, g := range group {
		inGroup[g] = true
	}
	pi := make([]float64, len(e0))
	var offending []int
	var collided []float64
	for m := range e0 {
		if inGroup[m] {
			continue
		}
		d := e0[m] - e0[n]
		if math.Abs(d) < cutoff {
			offending = append(offending, flatIdx[m])
			collided = append(collided, e0[m])
			continue
		}
		pi[m] = 1 / d
	}
	if len(offending) > 0 {
		mean, std := stat.MeanStdDev(collided, nil)
		if len(collided) < 2 {
			std = 0
		}
		return nil, &DegeneracyError{
			Group:      groupIndices(group, flatIdx),
			Offending:  offending,
			MeanEnergy: mean,
			StdDev:     std,
		}
	}
	return pi, nil
}

func groupIndices(group []int, flatIdx []int) []int {
	out := make([]int, len(group))
	for i, g := range group {
		out[i] = flatIdx[g]
	}
	return out
}

// applyEquations runs the correction recursion for the target state at
// flat position n whose degenerate group occupies the given flat
// positions. reps[k] is H_k over the flat space, nil for an absent
// term; e0 is the (possibly overridden) zero-order diagonal.
func applyEquations(n int, group []int, e0 []float64, reps []*sparse.Matrix,
	order int, o Options, stateIdx int, flatIdx []int) (*stateCorrs, error) {
	N := len(e0)
	E := make([]float64, order+1)
	S := make([]float64, order+1)
	psi := make([][]float64, order+1)

	E[0] = e0[n]
	S[0] = 1
	psi[0] = make([]float64, N)
	psi[0][n] = 1

	pi, err := resolvent(n, group, e0, o.NonzeroCutoff, flatIdx)
	if err != nil {
		return nil, err
	}

	for k := 1; k <= order; k++ {
		// E_k = <n|H_k|n> + Σ_{i=1}^{k-1} (<n|H_{k-i}|ψ_i> − E_{k-i}<n|ψ_i>)
		Ek := 0.0
		if k < len(reps) && reps[k] != nil {
			Ek = reps[k].At(n, n)
		}
		for i := 1; i < k; i++ {
			Ek += repRowDot(reps[k-i], n, psi[i]) - E[k-i]*psi[i][n]
		}
		if o.IgnoreOddOrderEnergies && k%2 == 1 {
			Ek = 0
		}
		E[k] = Ek

		// ψ_k = Σ_{i=0}^{k-1} Π_n (E_{k-i}ψ_i − H_{k-i}ψ_i), evaluated
		// right to left
		wk := make([]float64, N)
		for i := k - 1; i >= 0; i-- {
			hv := repMulVec(reps[k-i], psi[i])
			if hv == nil && E[k-i] == 0 {
				continue
			}
			for m := 0; m < N; m++ {
				if pi[m] == 0 {
					continue
				}
				t := E[k-i] * psi[i][m]
				if hv != nil {
					t -= hv[m]
				}
				wk[m] += pi[m] * t
			}
		}

		// In-group coefficients must be exactly zero before the
		// overlap is written in.
		for _, g := range group {
			if wk[g] != 0 {
				return nil, &OverlapError{State: stateIdx, Order: k, Value: wk[g]}
			}
		}

		// <n|ψ_k> = -1/2 Σ_{i=1}^{k-1} <ψ_i|ψ_{k-i}>
		if !o.IntermediateNormalization {
			s := 0.0
			for i := 1; i < k; i++ {
				s += dot(psi[i], psi[k-i])
			}
			S[k] = -0.5 * s
		}
		wk[n] = S[k]
		psi[k] = wk
	}

	if !o.IntermediateNormalization {
		total := 0.0
		for k := 0; k <= order; k++ {
			for i := 0; i <= k; i++ {
				total += dot(psi[i], psi[k-i])
			}
		}
		if math.Abs(total-1) > normTolerance {
			return nil, &NormalizationError{State: stateIdx, Overlap: total}
		}
	}

	return &stateCorrs{energies: E, overlaps: S, wfns: psi}, nil
}
