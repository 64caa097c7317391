// space.go --  This file is part of goVPT project.
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
	"fmt"
	"strings"
	"sync"

	"golang.org/x/exp/slices"
)

// LookupError reports states that were requested from a Space but are
// not members of it.
type LookupError struct {
	Missing []State
}

func (e *LookupError) Error() string {
	parts := make([]string, len(e.Missing))
	for i, s := range e.Missing {
		parts[i] = s.String()
	}
	return "basis: states not found in space: " + strings.Join(parts, ", ")
}

// Space is an ordered collection of basis states together with the
// full-basis context needed to index them. Scalar indices are computed
// eagerly and cached; all set operations return new spaces, existing
// ones are never mutated. Lookups are safe for concurrent use.
type Space struct {
	basis  *Basis
	states []State
	inds   []int

	posOnce sync.Once
	pos     map[int]int // index -> position, built once on first use
}

// NewSpace builds a space over the given states. The states are
// retained as-is and must not be mutated afterwards.
func NewSpace(b *Basis, states []State) *Space {
	inds := make([]int, len(states))
	for i, s := range states {
		inds[i] = b.Index(s)
	}
	return &Space{basis: b, states: states, inds: inds}
}

// SpaceFromIndices builds a space by unraveling scalar indices.
func SpaceFromIndices(b *Basis, inds []int) *Space {
	states := make([]State, len(inds))
	for i, idx := range inds {
		states[i] = b.Unravel(idx)
	}
	cp := make([]int, len(inds))
	copy(cp, inds)
	return &Space{basis: b, states: states, inds: cp}
}

// EmptySpace returns a space with no states.
func EmptySpace(b *Basis) *Space {
	return &Space{basis: b}
}

// Len returns the number of states in the space.
func (s *Space) Len() int { return len(s.states) }

// Basis returns the full-basis context of the space.
func (s *Space) Basis() *Basis { return s.basis }

// State returns the state at position i.
func (s *Space) State(i int) State { return s.states[i] }

// Index returns the scalar index of the state at position i.
func (s *Space) Index(i int) int { return s.inds[i] }

// States returns the states of the space. The returned slice is the
// space's own storage and must be treated as read-only.
func (s *Space) States() []State { return s.states }

// Indices returns a copy of the scalar indices of the space.
func (s *Space) Indices() []int {
	cp := make([]int, len(s.inds))
	copy(cp, s.inds)
	return cp
}

func (s *Space) posMap() map[int]int {
	s.posOnce.Do(func() {
		pos := make(map[int]int, len(s.inds))
		for i, idx := range s.inds {
			if _, ok := pos[idx]; !ok {
				pos[idx] = i
			}
		}
		s.pos = pos
	})
	return s.pos
}

// Contains reports whether the state with the given scalar index is a
// member of the space.
func (s *Space) Contains(idx int) bool {
	_, ok := s.posMap()[idx]
	return ok
}

// Position returns the position of the state with the given scalar
// index, or -1 when absent.
func (s *Space) Position(idx int) int {
	p, ok := s.posMap()[idx]
	if !ok {
		return -1
	}
	return p
}

// Find returns the positions of every state of other inside s. It
// fails with a LookupError naming the missing states when any
// requested state is absent.
func (s *Space) Find(other *Space) ([]int, error) {
	res := make([]int, other.Len())
	var missing []State
	pos := s.posMap()
	for i := 0; i < other.Len(); i++ {
		p, ok := pos[other.Index(i)]
		if !ok {
			missing = append(missing, other.State(i))
			continue
		}
		res[i] = p
	}
	if len(missing) > 0 {
		return nil, &LookupError{Missing: missing}
	}
	return res, nil
}

// FindState returns the position of a single state inside s.
func (s *Space) FindState(st State) (int, error) {
	p, ok := s.posMap()[s.basis.Index(st)]
	if !ok {
		return 0, &LookupError{Missing: []State{st}}
	}
	return p, nil
}

// FindUnsafe returns the positions of other's states, with -1 for
// states that are absent instead of an error. Callers opt into this
// when partial lookups are expected.
func (s *Space) FindUnsafe(other *Space) []int {
	res := make([]int, other.Len())
	pos := s.posMap()
	for i := 0; i < other.Len(); i++ {
		p, ok := pos[other.Index(i)]
		if !ok {
			p = -1
		}
		res[i] = p
	}
	return res
}

// Union returns a new space holding every state in s or other, sorted
// by scalar index. Duplicates collapse.
func (s *Space) Union(other *Space) *Space {
	if other == nil || other.Len() == 0 {
		return s.TakeUnique()
	}
	seen := make(map[int]State, s.Len()+other.Len())
	for i, idx := range s.inds {
		seen[idx] = s.states[i]
	}
	for i, idx := range other.inds {
		if _, ok := seen[idx]; !ok {
			seen[idx] = other.states[i]
		}
	}
	return fromIndexMap(s.basis, seen)
}

// Difference returns the states of s that are not in other, sorted by
// scalar index.
func (s *Space) Difference(other *Space) *Space {
	drop := other.posMap()
	seen := make(map[int]State, s.Len())
	for i, idx := range s.inds {
		if _, ok := drop[idx]; !ok {
			seen[idx] = s.states[i]
		}
	}
	return fromIndexMap(s.basis, seen)
}

// Intersection returns the states common to s and other, sorted by
// scalar index.
func (s *Space) Intersection(other *Space) *Space {
	keep := other.posMap()
	seen := make(map[int]State, s.Len())
	for i, idx := range s.inds {
		if _, ok := keep[idx]; ok {
			seen[idx] = s.states[i]
		}
	}
	return fromIndexMap(s.basis, seen)
}

func fromIndexMap(b *Basis, m map[int]State) *Space {
	inds := make([]int, 0, len(m))
	for idx := range m {
		inds = append(inds, idx)
	}
	slices.Sort(inds)
	states := make([]State, len(inds))
	for i, idx := range inds {
		states[i] = m[idx]
	}
	return &Space{basis: b, states: states, inds: inds}
}

// Take returns the subspace at the given positions, in order.
func (s *Space) Take(positions []int) *Space {
	states := make([]State, len(positions))
	inds := make([]int, len(positions))
	for i, p := range positions {
		states[i] = s.states[p]
		inds[i] = s.inds[p]
	}
	return &Space{basis: s.basis, states: states, inds: inds}
}

// TakeUnique returns the space with duplicate states removed, sorted
// by scalar index.
func (s *Space) TakeUnique() *Space {
	seen := make(map[int]State, s.Len())
	for i, idx := range s.inds {
		if _, ok := seen[idx]; !ok {
			seen[idx] = s.states[i]
		}
	}
	return fromIndexMap(s.basis, seen)
}

// Split partitions the space into singleton subspaces, one per state.
func (s *Space) Split() []*Space {
	out := make([]*Space, s.Len())
	for i := range s.states {
		out[i] = &Space{
			basis:  s.basis,
			states: []State{s.states[i]},
			inds:   []int{s.inds[i]},
		}
	}
	return out
}

func (s *Space) String() string {
	parts := make([]string, s.Len())
	for i, st := range s.states {
		parts[i] = st.String()
	}
	return fmt.Sprintf("Space[%s]", strings.Join(parts, " "))
}
