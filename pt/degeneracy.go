// degeneracy.go --  This file is part of goVPT project.
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
	"govpt/basis"
	"govpt/sparse"
)

// classifyDegeneracies partitions the target states into degenerate
// groups per the spec variant. energies holds the zero-order energy of
// each target state, parallel to targets. The groups always cover the
// targets exactly and are pairwise disjoint.
func classifyDegeneracies(targets *basis.Space, energies []float64, spec DegeneracySpec) ([]*basis.Space, error) {
	switch spec.Kind {
	case DegenerateNone:
		return targets.Split(), nil

	case DegenerateEnergyCutoff:
		// Single greedy pass in state order. A chain of states each
		// within cutoff of its neighbor is not transitively closed;
		// the first seed claims what it can see and later seeds start
		// fresh.
		n := targets.Len()
		assigned := make([]bool, n)
		var groups []*basis.Space
		for i := 0; i < n; i++ {
			if assigned[i] {
				continue
			}
			var members []int
			for j := 0; j < n; j++ {
				if assigned[j] {
					continue
				}
				d := energies[j] - energies[i]
				if d < 0 {
					d = -d
				}
				if d <= spec.Cutoff {
					members = append(members, j)
					assigned[j] = true
				}
			}
			groups = append(groups, targets.Take(members))
		}
		return groups, nil

	case DegenerateGroups:
		return checkedGroups(targets, spec.Groups)

	case DegenerateNT:
		byNT := make(map[int][]int)
		var order []int
		for i := 0; i < targets.Len(); i++ {
			v := spec.NT(targets.State(i))
			if _, ok := byNT[v]; !ok {
				order = append(order, v)
			}
			byNT[v] = append(byNT[v], i)
		}
		groups := make([]*basis.Space, 0, len(order))
		for _, v := range order {
			groups = append(groups, targets.Take(byNT[v]))
		}
		return groups, nil

	case DegenerateCallback:
		groups, err := spec.Callback(targets, energies)
		if err != nil {
			return nil, err
		}
		return checkedGroups(targets, groups)
	}
	return nil, configErrorf("unknown degeneracy kind %d", spec.Kind)
}

// checkedGroups enforces the partition contract on declared groups:
// pairwise disjoint, every member a target state, no empty groups.
// Targets left uncovered become singletons.
func checkedGroups(targets *basis.Space, declared []*basis.Space) ([]*basis.Space, error) {
	seen := make(map[int]bool)
	covered := 0
	for gi, g := range declared {
		if g == nil || g.Len() == 0 {
			return nil, configErrorf("degenerate group %d is empty", gi)
		}
		for i := 0; i < g.Len(); i++ {
			idx := g.Index(i)
			if seen[idx] {
				return nil, configErrorf("state %s appears in more than one degenerate group",
					g.State(i))
			}
			seen[idx] = true
			if !targets.Contains(idx) {
				return nil, configErrorf("degenerate group %d member %s is not a target state",
					gi, g.State(i))
			}
			covered++
		}
	}
	groups := append([]*basis.Space(nil), declared...)
	if covered < targets.Len() {
		for i := 0; i < targets.Len(); i++ {
			if !seen[targets.Index(i)] {
				groups = append(groups, targets.Take([]int{i}))
			}
		}
	}
	return groups, nil
}

// unionFind is the transitive closure used by strong-coupling merging.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &unionFind{parent: p}
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

func (u *unionFind) union(i, j int) {
	ri, rj := u.find(i), u.find(j)
	if ri != rj {
		u.parent[rj] = ri
	}
}

// detectStrongCouplings scans every pair of target states for a
// first-order coupling too large for its zero-order gap, unions the
// offenders transitively with the existing grouping, and returns the
// enlarged groups. It returns nil when nothing new was found, which is
// what bounds the solver to a single automatic re-run.
//
// targetFlat holds the flat-space position of each target state; e0
// and h1 are indexed over the flat space.
func detectStrongCouplings(targets *basis.Space, targetFlat []int, e0 []float64,
	h1 *sparse.Matrix, groups []*basis.Space, threshold float64) []*basis.Space {
	if h1 == nil {
		return nil
	}
	n := targets.Len()
	uf := newUnionFind(n)
	groupOf := make(map[int]int, n) // scalar index -> group
	for gi, g := range groups {
		for i := 0; i < g.Len(); i++ {
			groupOf[g.Index(i)] = gi
		}
	}
	for gi := range groups {
		var first = -1
		for i := 0; i < n; i++ {
			if groupOf[targets.Index(i)] != gi {
				continue
			}
			if first < 0 {
				first = i
			} else {
				uf.union(first, i)
			}
		}
	}
	merged := false
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if uf.find(i) == uf.find(j) {
				continue
			}
			c := h1.At(targetFlat[i], targetFlat[j])
			if c == 0 {
				continue
			}
			gap := e0[targetFlat[i]] - e0[targetFlat[j]]
			if gap < 0 {
				gap = -gap
			}
			strong := gap == 0
			if !strong {
				r := c / gap
				if r < 0 {
					r = -r
				}
				strong = r > threshold
			}
			if strong {
				uf.union(i, j)
				merged = true
			}
		}
	}
	if !merged {
		return nil
	}
	byRoot := make(map[int][]int)
	var roots []int
	for i := 0; i < n; i++ {
		r := uf.find(i)
		if _, ok := byRoot[r]; !ok {
			roots = append(roots, r)
		}
		byRoot[r] = append(byRoot[r], i)
	}
	out := make([]*basis.Space, 0, len(roots))
	for _, r := range roots {
		out = append(out, targets.Take(byRoot[r]))
	}
	return out
}
