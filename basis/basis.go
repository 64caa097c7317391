// basis.go --  This file is part of goVPT project.
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

// Package basis implements finite sets of harmonic-oscillator product
// basis states together with the index bijection over the full basis,
// set algebra on state spaces, and selection-rule-driven expansion.
package basis

import (
	"fmt"
	"strconv"
	"strings"
)

// State is a vector of per-mode excitation quanta. States are treated
// as immutable once handed to a Basis or a Space.
type State []int

// Total returns the total number of quanta in the state.
func (s State) Total() int {
	t := 0
	for _, n := range s {
		t += n
	}
	return t
}

// Clone returns an independent copy of the state.
func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

// Equal reports whether two states carry the same quanta.
func (s State) Equal(o State) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

func (s State) String() string {
	parts := make([]string, len(s))
	for i, n := range s {
		parts[i] = strconv.Itoa(n)
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Binomials caches binomial coefficients for the graded index
// arithmetic. One cache is constructed at setup and shared by
// reference everywhere combinatorial indexing happens; it is not
// hidden package state. Not safe for concurrent growth.
type Binomials struct {
	rows [][]int64
}

// NewBinomials returns an empty cache.
func NewBinomials() *Binomials {
	return &Binomials{}
}

// C returns n choose k, growing the Pascal triangle on demand.
func (b *Binomials) C(n, k int) int64 {
	if k < 0 || n < 0 || k > n {
		return 0
	}
	for len(b.rows) <= n {
		m := len(b.rows)
		row := make([]int64, m+1)
		row[0] = 1
		row[m] = 1
		for j := 1; j < m; j++ {
			row[j] = b.rows[m-1][j-1] + b.rows[m-1][j]
		}
		b.rows = append(b.rows, row)
	}
	return b.rows[n][k]
}

// Basis is the full product basis for a fixed number of modes. It
// provides the bijection between excitation vectors and scalar
// indices: states are graded by total quanta, and ranked within a
// grade with the first mode descending. Index 0 is the ground state.
type Basis struct {
	modes int
	bin   *Binomials
}

// NewBasis builds a basis over the given number of modes, using the
// supplied binomial cache for all index arithmetic.
func NewBasis(modes int, bin *Binomials) *Basis {
	if modes < 1 {
		panic("basis: need at least one mode")
	}
	if bin == nil {
		bin = NewBinomials()
	}
	return &Basis{modes: modes, bin: bin}
}

// Modes returns the number of modes in the basis.
func (b *Basis) Modes() int { return b.modes }

// gradeOffset returns the number of states with total quanta < q.
func (b *Basis) gradeOffset(q int) int64 {
	return b.bin.C(q+b.modes-1, b.modes)
}

// Index maps a state to its scalar index in the full basis.
func (b *Basis) Index(s State) int {
	if len(s) != b.modes {
		panic(fmt.Sprintf("basis: state %v has %d modes, basis has %d", s, len(s), b.modes))
	}
	q := s.Total()
	rank := int64(0)
	rem := q
	for i := 0; i < b.modes-1; i++ {
		// count compositions of rem with a larger leading part
		for v := rem; v > s[i]; v-- {
			rank += b.bin.C(rem-v+b.modes-i-2, b.modes-i-2)
		}
		rem -= s[i]
	}
	return int(b.gradeOffset(q) + rank)
}

// Unravel maps a scalar index back to its excitation vector.
func (b *Basis) Unravel(idx int) State {
	if idx < 0 {
		panic("basis: negative index")
	}
	q := 0
	for b.gradeOffset(q+1) <= int64(idx) {
		q++
	}
	rank := int64(idx) - b.gradeOffset(q)
	s := make(State, b.modes)
	rem := q
	for i := 0; i < b.modes-1; i++ {
		v := rem
		for {
			n := b.bin.C(rem-v+b.modes-i-2, b.modes-i-2)
			if rank < n {
				break
			}
			rank -= n
			v--
		}
		s[i] = v
		rem -= v
	}
	s[b.modes-1] = rem
	return s
}
