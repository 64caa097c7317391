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
package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"govpt/basis"
	"govpt/checkpoint"
	"govpt/pt"
)

// Config is the YAML input format for a perturbation run.
type Config struct {
	Title       string    `yaml:"title"`
	Modes       int       `yaml:"modes"`
	Frequencies []float64 `yaml:"frequencies"`
	Order       int       `yaml:"order"`
	States      [][]int   `yaml:"states"`

	Degeneracies  *DegeneracyConfig    `yaml:"degeneracies"`
	Options       OptionsConfig        `yaml:"options"`
	Checkpoint    string               `yaml:"checkpoint"`
	Perturbations []PerturbationConfig `yaml:"perturbations"`
}

// DegeneracyConfig selects the degeneracy treatment. Kind is one of
// none, energy_cutoff, groups, or nt.
type DegeneracyConfig struct {
	Kind   string    `yaml:"kind"`
	Cutoff float64   `yaml:"cutoff"`
	Groups [][][]int `yaml:"groups"`
	// NT holds the coefficients of a linear quantum-number functional;
	// states sharing its value form a polyad.
	NT []int `yaml:"nt"`
}

// OptionsConfig mirrors the solver options expressible from input
// files.
type OptionsConfig struct {
	IgnoreOddOrderEnergies    bool             `yaml:"ignore_odd_order_energies"`
	IntermediateNormalization bool             `yaml:"intermediate_normalization"`
	HandleStrongCouplings     bool             `yaml:"handle_strong_couplings"`
	StrongCouplingThreshold   float64          `yaml:"strong_coupling_threshold"`
	NonzeroCutoff             float64          `yaml:"nonzero_cutoff"`
	MemoryConstrained         bool             `yaml:"memory_constrained"`
	StateSpaceIterations      int              `yaml:"state_space_iterations"`
	ZeroOrderOverrides        []OverrideConfig `yaml:"zero_order_overrides"`
}

// OverrideConfig replaces one diagonal zero-order energy.
type OverrideConfig struct {
	State  []int   `yaml:"state"`
	Energy float64 `yaml:"energy"`
}

// PerturbationConfig tabulates one Hamiltonian term.
type PerturbationConfig struct {
	Order    int             `yaml:"order"`
	Rules    [][]int         `yaml:"rules"`
	Elements []ElementConfig `yaml:"elements"`
}

// ElementConfig is one tabulated matrix element; the mirror element is
// implied.
type ElementConfig struct {
	Bra   []int   `yaml:"bra"`
	Ket   []int   `yaml:"ket"`
	Value float64 `yaml:"value"`
}

// Load parses a YAML config.
func Load(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("model: parse config: %w", err)
	}
	if err := c.check(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadFile parses a YAML config file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("model: read config: %w", err)
	}
	return Load(data)
}

func (c *Config) check() error {
	if c.Modes < 1 {
		return fmt.Errorf("model: modes must be at least 1, got %d", c.Modes)
	}
	if len(c.Frequencies) != c.Modes {
		return fmt.Errorf("model: %d frequencies for %d modes", len(c.Frequencies), c.Modes)
	}
	if c.Order < 1 {
		return fmt.Errorf("model: order must be at least 1, got %d", c.Order)
	}
	if len(c.States) == 0 {
		return fmt.Errorf("model: no target states")
	}
	for i, s := range c.States {
		if len(s) != c.Modes {
			return fmt.Errorf("model: target state %d has %d modes, want %d", i, len(s), c.Modes)
		}
	}
	for _, p := range c.Perturbations {
		if p.Order < 1 || p.Order > c.Order {
			return fmt.Errorf("model: perturbation order %d outside 1..%d", p.Order, c.Order)
		}
		for _, e := range p.Elements {
			if len(e.Bra) != c.Modes || len(e.Ket) != c.Modes {
				return fmt.Errorf("model: element %v|%v does not match %d modes", e.Bra, e.Ket, c.Modes)
			}
		}
	}
	return nil
}

// Build assembles the solver inputs: the basis, the target space, the
// Hamiltonian expansion, and the solver options. The caller owns the
// returned checkpoint store, when one was configured.
func (c *Config) Build(log *pt.Loggers, par *pt.Parallelizer) (*basis.Space, []pt.Perturbation, pt.Options, error) {
	b := basis.NewBasis(c.Modes, nil)

	states := make([]basis.State, len(c.States))
	for i, s := range c.States {
		states[i] = basis.State(s)
	}
	targets := basis.NewSpace(b, states)

	hams := make([]pt.Perturbation, c.Order+1)
	hams[0] = NewHarmonic(c.Frequencies)
	for _, p := range c.Perturbations {
		rules := make(basis.RuleSet, len(p.Rules))
		for i, r := range p.Rules {
			rules[i] = basis.Rule(r)
		}
		op := NewOperator(rules, par)
		for _, e := range p.Elements {
			op.SetStates(b, basis.State(e.Bra), basis.State(e.Ket), e.Value)
		}
		hams[p.Order] = op
	}

	opts := pt.Options{
		Order:                     c.Order,
		IgnoreOddOrderEnergies:    c.Options.IgnoreOddOrderEnergies,
		IntermediateNormalization: c.Options.IntermediateNormalization,
		HandleStrongCouplings:     c.Options.HandleStrongCouplings,
		StrongCouplingThreshold:   c.Options.StrongCouplingThreshold,
		NonzeroCutoff:             c.Options.NonzeroCutoff,
		MemoryConstrained:         c.Options.MemoryConstrained,
		StateSpaceIterations:      c.Options.StateSpaceIterations,
		Log:                       log,
		Parallel:                  par,
	}
	for _, ov := range c.Options.ZeroOrderOverrides {
		opts.ZeroOrderOverrides = append(opts.ZeroOrderOverrides, pt.EnergyOverride{
			State:  basis.State(ov.State),
			Energy: ov.Energy,
		})
	}

	if d := c.Degeneracies; d != nil {
		spec, err := d.spec(b)
		if err != nil {
			return nil, nil, pt.Options{}, err
		}
		opts.Degeneracies = spec
	}

	if c.Checkpoint != "" {
		store, err := checkpoint.OpenBadger(checkpoint.BadgerConfig{
			Path:   c.Checkpoint,
			Logger: log.Info,
		})
		if err != nil {
			return nil, nil, pt.Options{}, err
		}
		opts.Checkpoint = store
	}

	return targets, hams, opts, nil
}

func (d *DegeneracyConfig) spec(b *basis.Basis) (pt.DegeneracySpec, error) {
	switch d.Kind {
	case "", "none":
		return pt.NoDegeneracies(), nil
	case "energy_cutoff":
		return pt.EnergyCutoff(d.Cutoff), nil
	case "groups":
		groups := make([]*basis.Space, len(d.Groups))
		for i, g := range d.Groups {
			states := make([]basis.State, len(g))
			for j, s := range g {
				states[j] = basis.State(s)
			}
			groups[i] = basis.NewSpace(b, states)
		}
		return pt.ExplicitGroups(groups...), nil
	case "nt":
		coeffs := append([]int(nil), d.NT...)
		return pt.NTGroups(func(s basis.State) int {
			v := 0
			for i, c := range coeffs {
				if i < len(s) {
					v += c * s[i]
				}
			}
			return v
		}), nil
	}
	return pt.DegeneracySpec{}, fmt.Errorf("model: unknown degeneracy kind %q", d.Kind)
}
