// rules.go --  This file is part of goVPT project.
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

// Rule is a set of net quantum-number changes applied to distinct
// modes. A cubic operator touching three modes at once carries rules
// like (+1 +1 +1) or (+1 +1 -1); a rule like (+3) moves three quanta
// in a single mode. Entries are nonzero.
type Rule []int

// RuleSet is the collection of allowed transitions for one
// perturbation operator.
type RuleSet []Rule

// RuleSpace is a state space that additionally remembers, for each
// source state, the set of result states produced by rule
// application. Flattening through ToSingle loses the per-source
// grouping.
type RuleSpace struct {
	source *Space
	reach  []*Space // parallel to source states
}

// ApplyRules returns, for each state in the space, the set of states
// reachable by applying any single rule from rules up to iterations
// times. The walk is computed algebraically from quantum-number
// arithmetic; no transition graph is ever materialized.
func (s *Space) ApplyRules(rules RuleSet, iterations int) *RuleSpace {
	reach := make([]*Space, s.Len())
	for i := range s.states {
		reach[i] = reachable(s.basis, s.states[i], rules, iterations)
	}
	return &RuleSpace{source: s, reach: reach}
}

func reachable(b *Basis, seed State, rules RuleSet, iterations int) *Space {
	acc := make(map[int]State)
	frontier := map[int]State{b.Index(seed): seed}
	for it := 0; it < iterations; it++ {
		next := make(map[int]State)
		for _, st := range frontier {
			for _, r := range rules {
				applyRule(b, st, r, func(idx int, out State) {
					if _, ok := acc[idx]; !ok {
						acc[idx] = out
						next[idx] = out
					}
				})
			}
		}
		if len(next) == 0 {
			break
		}
		frontier = next
	}
	return fromIndexMap(b, acc)
}

// applyRule enumerates every assignment of the rule's changes onto
// distinct modes of the state, dropping results with negative quanta.
func applyRule(b *Basis, st State, r Rule, emit func(idx int, out State)) {
	if len(r) > len(st) {
		return
	}
	used := make([]bool, len(st))
	var rec func(k int, cur State)
	rec = func(k int, cur State) {
		if k == len(r) {
			emit(b.Index(cur), cur.Clone())
			return
		}
		for m := 0; m < len(st); m++ {
			if used[m] {
				continue
			}
			n := cur[m] + r[k]
			if n < 0 {
				continue
			}
			used[m] = true
			cur[m] = n
			rec(k+1, cur)
			cur[m] = n - r[k]
			used[m] = false
		}
	}
	rec(0, st.Clone())
}

// NewRuleSpace assembles a rule space from a source space and one
// result space per source state. Used when rehydrating cached coupled
// spaces; ApplyRules is the normal construction path.
func NewRuleSpace(source *Space, reach []*Space) *RuleSpace {
	if len(reach) != source.Len() {
		panic("basis: rule space needs one result space per source state")
	}
	return &RuleSpace{source: source, reach: reach}
}

// Source returns the seed space of the rule space.
func (rs *RuleSpace) Source() *Space { return rs.source }

// Reach returns the result space for the source state at position i.
func (rs *RuleSpace) Reach(i int) *Space { return rs.reach[i] }

// Len returns the number of source states.
func (rs *RuleSpace) Len() int { return rs.source.Len() }

// ToSingle flattens the rule space into a plain space holding the
// union of all result states, sorted by scalar index. The per-source
// grouping is lost.
func (rs *RuleSpace) ToSingle() *Space {
	acc := make(map[int]State)
	for _, sp := range rs.reach {
		for i, idx := range sp.inds {
			if _, ok := acc[idx]; !ok {
				acc[idx] = sp.states[i]
			}
		}
	}
	return fromIndexMap(rs.source.basis, acc)
}

// TotalSpace flattens the rule space together with its sources.
func (rs *RuleSpace) TotalSpace() *Space {
	return rs.ToSingle().Union(rs.source)
}

// Union merges two rule spaces: sources are unioned and result sets
// for shared sources are combined.
func (rs *RuleSpace) Union(other *RuleSpace) *RuleSpace {
	if other == nil {
		return rs
	}
	source := rs.source.Union(other.source)
	reach := make([]*Space, source.Len())
	for i := 0; i < source.Len(); i++ {
		idx := source.Index(i)
		r := EmptySpace(source.basis)
		if p := rs.source.Position(idx); p >= 0 {
			r = r.Union(rs.reach[p])
		}
		if p := other.source.Position(idx); p >= 0 {
			r = r.Union(other.reach[p])
		}
		reach[i] = r
	}
	return &RuleSpace{source: source, reach: reach}
}

// TakeSources restricts the rule space to the sources present in sel,
// keeping their result sets. Sources absent from the rule space are
// ignored.
func (rs *RuleSpace) TakeSources(sel *Space) *RuleSpace {
	var states []State
	var reach []*Space
	for i := 0; i < sel.Len(); i++ {
		p := rs.source.Position(sel.Index(i))
		if p < 0 {
			continue
		}
		states = append(states, rs.source.State(p))
		reach = append(reach, rs.reach[p])
	}
	return &RuleSpace{source: NewSpace(rs.source.basis, states), reach: reach}
}

// TakeStates keeps only result states that are members of sel; the
// projection operator used by degenerate-space handling.
func (rs *RuleSpace) TakeStates(sel *Space) *RuleSpace {
	reach := make([]*Space, len(rs.reach))
	for i, sp := range rs.reach {
		reach[i] = sp.Intersection(sel)
	}
	return &RuleSpace{source: rs.source, reach: reach}
}

// DropStates removes result states that are members of sel; the
// complement projection.
func (rs *RuleSpace) DropStates(sel *Space) *RuleSpace {
	reach := make([]*Space, len(rs.reach))
	for i, sp := range rs.reach {
		reach[i] = sp.Difference(sel)
	}
	return &RuleSpace{source: rs.source, reach: reach}
}
