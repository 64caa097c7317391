// coupled.go --  This file is part of goVPT project.
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

import "govpt/basis"

// coupledBuilder replays the correction recursion symbolically to find
// which states each perturbation term needs matrix elements for.
// Operator application becomes set-valued rule application, addition
// becomes set union, and resolvent division becomes a no-op since it
// never changes which states participate.
//
// Each operator carries a memo of the sources already expanded;
// repeated application to overlapping correction spaces at different
// orders only ever expands the difference and unions the new result
// in. This is a least-fixed-point accumulation, not a plain cache.
type coupledBuilder struct {
	b     *basis.Basis
	order int
	rules []basis.RuleSet // indexed by operator order, entry 0 unused
	memo  []opMemo        // parallel to rules
	// memorize keeps the per-operator seen sets between calls. Off in
	// memory-constrained mode, trading recomputation for peak memory.
	memorize bool
	// maxIter caps the number of replay iterations that may discover
	// new source states. Zero means no cap.
	maxIter int
	log     *Loggers
}

type opMemo struct {
	seen  *basis.Space
	accum *basis.RuleSpace
}

func newCoupledBuilder(b *basis.Basis, hams []Perturbation, order int, o Options) *coupledBuilder {
	rules := make([]basis.RuleSet, order+1)
	for k := 1; k <= order && k < len(hams); k++ {
		if hams[k] != nil {
			rules[k] = hams[k].SelectionRules()
		}
	}
	cb := &coupledBuilder{
		b:        b,
		order:    order,
		rules:    rules,
		memo:     make([]opMemo, order+1),
		memorize: !o.MemoryConstrained,
		maxIter:  o.StateSpaceIterations,
		log:      o.Log,
	}
	for k := range cb.memo {
		cb.memo[k].seen = basis.EmptySpace(b)
	}
	return cb
}

// apply expands operator op over space and returns the accumulated
// rule space restricted to the requested sources. With retSpace false
// the restriction is skipped; the last replay order never consumes the
// result, only the accumulated memo. With expand false no new sources
// are walked; already-seen sources still contribute their reaches.
func (cb *coupledBuilder) apply(op int, space *basis.Space, retSpace, expand bool) *basis.RuleSpace {
	if cb.rules[op] == nil || space == nil || space.Len() == 0 {
		return nil
	}
	m := &cb.memo[op]
	if expand {
		diff := space.Difference(m.seen)
		if diff.Len() > 0 {
			rs := diff.ApplyRules(cb.rules[op], 1)
			if m.accum == nil {
				m.accum = rs
			} else {
				m.accum = m.accum.Union(rs)
			}
			if cb.memorize {
				m.seen = m.seen.Union(diff)
			}
		}
	}
	if !retSpace || m.accum == nil {
		return nil
	}
	return m.accum.TakeSources(space)
}

// build walks the recursion for the target states and returns, per
// perturbation order 1..order, the coupled space that operator needs
// elements for.
func (cb *coupledBuilder) build(targets *basis.Space) []*basis.RuleSpace {
	spaces := make([]*basis.Space, cb.order+1)
	spaces[0] = targets
	capped := false
	for k := 1; k <= cb.order; k++ {
		expand := cb.maxIter <= 0 || k <= cb.maxIter
		if !expand && !capped {
			capped = true
			cb.log.Warning.Printf("state space expansion capped after %d iterations", cb.maxIter)
		}
		var kSpace *basis.Space
		// term H_{k-i}·ψ_i for i = 0..k-1, evaluated right to left as
		// the numeric recursion does
		for i := k - 1; i >= 0; i-- {
			rs := cb.apply(k-i, spaces[i], k < cb.order, expand)
			if rs == nil {
				continue
			}
			if kSpace == nil {
				kSpace = rs.ToSingle()
			} else {
				kSpace = kSpace.Union(rs.ToSingle())
			}
		}
		spaces[k] = kSpace
	}
	out := make([]*basis.RuleSpace, cb.order)
	for k := 1; k <= cb.order; k++ {
		out[k-1] = cb.memo[k].accum
	}
	return out
}

// flatSpace unions the targets with every coupled space into the total
// space all representations and corrections are indexed over.
func flatSpace(targets *basis.Space, coupled []*basis.RuleSpace) *basis.Space {
	flat := targets.TakeUnique()
	for _, rs := range coupled {
		if rs == nil {
			continue
		}
		flat = flat.Union(rs.TotalSpace())
	}
	return flat
}
