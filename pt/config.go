// config.go --  This file is part of goVPT project.
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
	"govpt/checkpoint"
)

// DegeneracyKind selects how degenerate groups are determined before
// the corrections are computed.
type DegeneracyKind int

const (
	// DegenerateNone treats every target state as its own group.
	DegenerateNone DegeneracyKind = iota
	// DegenerateEnergyCutoff clusters target states whose zero-order
	// energies fall within Cutoff of a group seed. The clustering is a
	// single greedy pass in state order, so near-threshold chains can
	// split differently than a transitive closure would.
	DegenerateEnergyCutoff
	// DegenerateGroups uses the explicitly supplied groups.
	DegenerateGroups
	// DegenerateNT groups states sharing the value of a quantum-number
	// functional, the usual choice for Fermi-resonance polyads.
	DegenerateNT
	// DegenerateCallback delegates grouping entirely to a callback.
	DegenerateCallback
)

// DegeneracySpec is a tagged variant describing the degeneracy
// treatment. Use the constructors rather than filling it directly.
type DegeneracySpec struct {
	Kind     DegeneracyKind
	Cutoff   float64
	Groups   []*basis.Space
	NT       func(basis.State) int
	Callback func(states *basis.Space, energies []float64) ([]*basis.Space, error)
}

// NoDegeneracies disables degenerate handling.
func NoDegeneracies() DegeneracySpec {
	return DegeneracySpec{Kind: DegenerateNone}
}

// EnergyCutoff groups target states by zero-order energy proximity.
func EnergyCutoff(cutoff float64) DegeneracySpec {
	return DegeneracySpec{Kind: DegenerateEnergyCutoff, Cutoff: cutoff}
}

// ExplicitGroups uses caller-declared degenerate groups. States not
// covered by any group are treated as singletons.
func ExplicitGroups(groups ...*basis.Space) DegeneracySpec {
	return DegeneracySpec{Kind: DegenerateGroups, Groups: groups}
}

// NTGroups groups states by the value of nt, a functional of the
// quantum numbers (e.g. 2*n_stretch + n_bend for a Fermi polyad).
func NTGroups(nt func(basis.State) int) DegeneracySpec {
	return DegeneracySpec{Kind: DegenerateNT, NT: nt}
}

// CallbackGroups delegates grouping to fn, which receives the target
// space and its zero-order energies and returns the groups.
func CallbackGroups(fn func(states *basis.Space, energies []float64) ([]*basis.Space, error)) DegeneracySpec {
	return DegeneracySpec{Kind: DegenerateCallback, Callback: fn}
}

// EnergyOverride replaces the diagonal zero-order energy of one state.
type EnergyOverride struct {
	State  basis.State
	Energy float64
}

// Options collects everything that shapes a perturbation run beyond
// the Hamiltonian terms and target states themselves. The zero value
// plus an Order is a valid configuration.
type Options struct {
	// Order is the highest correction order to compute. Required.
	Order int

	// CoupledStates, when non-nil, supplies precomputed coupled spaces
	// for orders 1..Order and skips the coupled-space build entirely.
	CoupledStates []*basis.RuleSpace

	// StateSpaceIterations caps the number of rule applications used
	// when expanding coupled spaces. Zero means the order-derived
	// count; a positive value overrides it, trading completeness for
	// memory on big bases.
	StateSpaceIterations int

	// Degeneracies selects the degeneracy treatment.
	Degeneracies DegeneracySpec

	// IgnoreOddOrderEnergies zeroes energy corrections at odd orders,
	// a common approximation when odd-order terms are known to cancel.
	IgnoreOddOrderEnergies bool

	// IntermediateNormalization forces every overlap correction to
	// zero instead of maintaining ⟨ψ|ψ⟩ = 1 order by order. The final
	// normalization check is skipped under this convention.
	IntermediateNormalization bool

	// HandleStrongCouplings enables the post-run scan for strong
	// first-order couplings between groups and the single automatic
	// re-run with the enlarged groups.
	HandleStrongCouplings bool

	// StrongCouplingThreshold is the |H₁(i,j)/ΔE₀| ratio above which
	// two states are considered strongly coupled. Defaults to 0.3.
	StrongCouplingThreshold float64

	// ZeroOrderOverrides replaces individual diagonal zero-order
	// energies before anything else happens, including degeneracy
	// classification.
	ZeroOrderOverrides []EnergyOverride

	// NonzeroCutoff is the magnitude below which wavefunction
	// coefficients are dropped during sparse compaction and below
	// which energy denominators count as degenerate. Defaults to
	// 1e-14.
	NonzeroCutoff float64

	// MemoryConstrained drops the incremental coupled-space memo and
	// recomputes rule applications from scratch each order.
	MemoryConstrained bool

	// Log receives the run narrative. Nil means quiet.
	Log *Loggers

	// Parallel distributes representation assembly and per-state
	// correction loops. Nil means serial.
	Parallel *Parallelizer

	// Checkpoint caches coupled spaces and representations across runs
	// and records results. Nil disables checkpointing.
	Checkpoint checkpoint.Store
}

// withDefaults returns a copy with zero-valued knobs resolved.
func (o Options) withDefaults() Options {
	if o.NonzeroCutoff == 0 {
		o.NonzeroCutoff = 1e-14
	}
	if o.StrongCouplingThreshold == 0 {
		o.StrongCouplingThreshold = 0.3
	}
	if o.Log == nil {
		o.Log = Quiet()
	}
	return o
}

// validate rejects configurations the solver cannot honor.
func (o Options) validate() error {
	if o.Order < 0 {
		return configErrorf("order must be non-negative, got %d", o.Order)
	}
	if o.CoupledStates != nil && len(o.CoupledStates) != o.Order {
		return configErrorf("got %d precomputed coupled spaces for order %d",
			len(o.CoupledStates), o.Order)
	}
	if o.StateSpaceIterations < 0 {
		return configErrorf("state space iterations must be non-negative, got %d",
			o.StateSpaceIterations)
	}
	if o.NonzeroCutoff < 0 {
		return configErrorf("nonzero cutoff must be non-negative, got %g", o.NonzeroCutoff)
	}
	d := o.Degeneracies
	switch d.Kind {
	case DegenerateNone:
	case DegenerateEnergyCutoff:
		if d.Cutoff <= 0 {
			return configErrorf("energy cutoff must be positive, got %g", d.Cutoff)
		}
	case DegenerateGroups:
		if len(d.Groups) == 0 {
			return configErrorf("explicit degenerate groups requested but none given")
		}
		for i, g := range d.Groups {
			if g == nil || g.Len() == 0 {
				return configErrorf("degenerate group %d is empty", i)
			}
		}
	case DegenerateNT:
		if d.NT == nil {
			return configErrorf("NT grouping requested without a functional")
		}
	case DegenerateCallback:
		if d.Callback == nil {
			return configErrorf("callback grouping requested without a callback")
		}
	default:
		return configErrorf("unknown degeneracy kind %d", d.Kind)
	}
	return nil
}
