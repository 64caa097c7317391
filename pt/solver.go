// solver.go --  This file is part of goVPT project.
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
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"hash/fnv"
	"math"
	"time"

	"github.com/google/uuid"

	"govpt/basis"
	"govpt/checkpoint"
	"govpt/sparse"
)

// Checkpoint keys. The first two are caches keyed implicitly by the
// run setup; the last two are diagnostic records of the final run.
const (
	keyCoupledStates   = "coupled_states"
	keyRepresentations = "representations"
	keyCorrections     = "corrections"
	keyDegenerateData  = "degenerate_data"
)

// Solver computes perturbative corrections for a set of target states
// given the Hamiltonian expansion H = H₀ + H₁ + … + H_order. Entries
// of hams beyond H₀ may be nil for legitimately absent orders.
type Solver struct {
	states *basis.Space
	hams   []Perturbation
	opts   Options
}

// NewSolver validates the setup. The requested order defaults to the
// number of supplied perturbation terms; supplying more terms than the
// order could use is a configuration error.
func NewSolver(states *basis.Space, hams []Perturbation, opts Options) (*Solver, error) {
	if states == nil || states.Len() == 0 {
		return nil, configErrorf("no target states")
	}
	if len(hams) == 0 || hams[0] == nil {
		return nil, configErrorf("a zero-order Hamiltonian is required")
	}
	if opts.Order == 0 {
		opts.Order = len(hams) - 1
	}
	if len(hams)-1 > opts.Order {
		return nil, configErrorf("%d perturbation terms supplied but order is %d",
			len(hams)-1, opts.Order)
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Solver{states: states, hams: hams, opts: opts}, nil
}

// Run executes the full pipeline: coupled-space discovery,
// representation assembly, per-state corrections, degenerate
// resolution, and the single strong-coupling re-run when requested.
func (s *Solver) Run() (*Corrections, error) {
	o := s.opts.withDefaults()
	log := o.Log
	order := o.Order
	start := time.Now()
	log.Output.Printf("Applying perturbation theory at order %d to %d states", order, s.states.Len())

	coupled, err := s.coupledSpaces(o)
	if err != nil {
		return nil, err
	}
	flat := flatSpace(s.states, coupled)
	log.Info.Printf("coupled space discovery gave %d total states", flat.Len())

	reps, err := s.representations(o, flat)
	if err != nil {
		return nil, err
	}

	e0 := reps[0].Diag()
	if len(o.ZeroOrderOverrides) > 0 {
		for _, ov := range o.ZeroOrderOverrides {
			p, err := flat.FindState(ov.State)
			if err != nil {
				return nil, configErrorf("zero-order override for %s, which is not in the total space", ov.State)
			}
			e0[p] = ov.Energy
		}
		reps[0] = sparse.Diagonal(e0)
	}

	targetFlat, err := flat.Find(s.states)
	if err != nil {
		return nil, err
	}
	targetEnergies := make([]float64, len(targetFlat))
	for i, p := range targetFlat {
		targetEnergies[i] = e0[p]
	}

	groups, err := classifyDegeneracies(s.states, targetEnergies, o.Degeneracies)
	if err != nil {
		return nil, err
	}

	c, err := s.correctionPass(o, flat, targetFlat, e0, reps, coupled, groups)
	if err != nil {
		return nil, err
	}

	if o.HandleStrongCouplings && order >= 1 {
		// At most one automatic re-run; a second detection on the
		// enlarged groups is not acted on.
		if enlarged := detectStrongCouplings(s.states, targetFlat, e0, reps[1],
			groups, o.StrongCouplingThreshold); enlarged != nil {
			log.Warning.Printf("strong couplings detected, re-running with %d degenerate groups", len(enlarged))
			c, err = s.correctionPass(o, flat, targetFlat, e0, reps, coupled, enlarged)
			if err != nil {
				return nil, err
			}
		}
	}

	s.persistResults(o, c)
	log.Output.Printf("Perturbation theory finished in %v", time.Since(start))
	return c, nil
}

// correctionPass runs the per-state recursion for every group member
// and resolves multi-member groups variationally. States are
// independent, so the loop fans out over the parallelizer; each worker
// writes disjoint rows.
func (s *Solver) correctionPass(o Options, flat *basis.Space, targetFlat []int,
	e0 []float64, reps []*sparse.Matrix, coupled []*basis.RuleSpace,
	groups []*basis.Space) (*Corrections, error) {

	n := s.states.Len()
	order := o.Order

	groupOf := make([][]int, n)
	hasMulti := false
	for _, g := range groups {
		gFlat, err := flat.Find(g)
		if err != nil {
			return nil, err
		}
		tPos, err := s.states.Find(g)
		if err != nil {
			return nil, configErrorf("degenerate group member outside the target states: %v", err)
		}
		for _, t := range tPos {
			groupOf[t] = gFlat
		}
		if g.Len() > 1 {
			hasMulti = true
		}
	}

	energies := make([][]float64, n)
	overlaps := make([][]float64, n)
	wfns := make([][]*sparse.Vector, n)
	errs := make([]error, n)
	flatIdx := flat.Indices()

	o.Parallel.Run(n, func(lo, hi int) {
		for t := lo; t < hi; t++ {
			sc, err := applyEquations(targetFlat[t], groupOf[t], e0, reps,
				order, o, s.states.Index(t), flatIdx)
			if err != nil {
				errs[t] = err
				continue
			}
			energies[t] = sc.energies
			overlaps[t] = sc.overlaps
			rows := make([]*sparse.Vector, order+1)
			for k, w := range sc.wfns {
				rows[k] = sparse.Compress(w, o.NonzeroCutoff)
			}
			wfns[t] = rows
		}
	})
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	flatCoupled := make([]*basis.Space, len(coupled))
	for i, rs := range coupled {
		if rs == nil {
			flatCoupled[i] = basis.EmptySpace(s.states.Basis())
		} else {
			flatCoupled[i] = rs.TotalSpace()
		}
	}

	c := &Corrections{
		RunID:         uuid.NewString(),
		States:        s.states,
		Coupled:       flatCoupled,
		TotalStates:   flat,
		Energies:      energies,
		Overlaps:      overlaps,
		Wavefunctions: wfns,
		Hamiltonians:  reps,
	}

	if hasMulti {
		dd, err := applyPostPT(c, groups, o.Log)
		if err != nil {
			return nil, err
		}
		c.Degenerate = dd
	}
	return c, nil
}

// rulesFingerprint hashes the selection rules of the expansion. The
// coupled spaces depend on nothing but the rules besides targets and
// order, so this completes the validity key for the coupled cache.
func (s *Solver) rulesFingerprint() uint64 {
	h := fnv.New64a()
	buf := make([]byte, 8)
	put := func(v int64) {
		binary.LittleEndian.PutUint64(buf, uint64(v))
		h.Write(buf)
	}
	put(int64(len(s.hams)))
	for k, ham := range s.hams {
		put(int64(k))
		if ham == nil {
			put(-1)
			continue
		}
		rules := ham.SelectionRules()
		put(int64(len(rules)))
		for _, r := range rules {
			put(int64(len(r)))
			for _, v := range r {
				put(int64(v))
			}
		}
	}
	return h.Sum64()
}

// opsFingerprint extends the rules fingerprint with the operator
// content, so the representation cache also misses when matrix
// elements change. Terms implementing Fingerprinter summarize
// themselves; the rest are probed on the target rows of the flat
// space, a cheap block compared to the flat square being cached.
func (s *Solver) opsFingerprint(flat *basis.Space) (uint64, error) {
	h := fnv.New64a()
	buf := make([]byte, 8)
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf, v)
		h.Write(buf)
	}
	put(s.rulesFingerprint())
	for k, ham := range s.hams {
		if ham == nil {
			continue
		}
		put(uint64(k))
		if fp, ok := ham.(Fingerprinter); ok {
			put(fp.Fingerprint())
			continue
		}
		m, err := ham.RepresentationMatrix(s.states, flat, k == 0)
		if err != nil {
			return 0, err
		}
		for _, e := range m.Entries() {
			put(uint64(e.Row))
			put(uint64(e.Col))
			put(math.Float64bits(e.Val))
		}
	}
	return h.Sum64(), nil
}

// coupledArchive is the checkpoint form of the coupled spaces,
// validated against the run setup before reuse.
type coupledArchive struct {
	Modes   int
	Order   int
	Targets []int // scalar indices
	Rules   uint64
	Present []bool
	Sources [][]int   // per order, scalar indices
	Reaches [][][]int // per order, per source, scalar indices
}

func (s *Solver) coupledSpaces(o Options) ([]*basis.RuleSpace, error) {
	if o.CoupledStates != nil {
		return o.CoupledStates, nil
	}
	b := s.states.Basis()
	if cached := s.loadCoupled(o, b); cached != nil {
		o.Log.Info.Printf("coupled spaces restored from checkpoint")
		return cached, nil
	}

	t := time.Now()
	coupled := newCoupledBuilder(b, s.hams, o.Order, o).build(s.states)
	o.Log.Info.Printf("coupled space build took %v", time.Since(t))

	if o.Checkpoint != nil {
		a := coupledArchive{
			Modes:   b.Modes(),
			Order:   o.Order,
			Targets: s.states.Indices(),
			Rules:   s.rulesFingerprint(),
			Present: make([]bool, len(coupled)),
			Sources: make([][]int, len(coupled)),
			Reaches: make([][][]int, len(coupled)),
		}
		for i, rs := range coupled {
			if rs == nil {
				continue
			}
			a.Present[i] = true
			a.Sources[i] = rs.Source().Indices()
			a.Reaches[i] = make([][]int, rs.Len())
			for j := 0; j < rs.Len(); j++ {
				a.Reaches[i][j] = rs.Reach(j).Indices()
			}
		}
		s.persist(o, keyCoupledStates, &a)
	}
	return coupled, nil
}

func (s *Solver) loadCoupled(o Options, b *basis.Basis) []*basis.RuleSpace {
	var a coupledArchive
	if !s.load(o, keyCoupledStates, &a) {
		return nil
	}
	if a.Modes != b.Modes() || a.Order != o.Order ||
		!equalInts(a.Targets, s.states.Indices()) || a.Rules != s.rulesFingerprint() {
		return nil
	}
	out := make([]*basis.RuleSpace, len(a.Sources))
	for i := range a.Sources {
		if !a.Present[i] {
			continue
		}
		src := basis.SpaceFromIndices(b, a.Sources[i])
		reach := make([]*basis.Space, len(a.Reaches[i]))
		for j, inds := range a.Reaches[i] {
			reach[j] = basis.SpaceFromIndices(b, inds)
		}
		out[i] = basis.NewRuleSpace(src, reach)
	}
	return out
}

// repsArchive is the checkpoint form of the representation matrices,
// keyed by the flat space they were computed over.
type repsArchive struct {
	Flat    []int
	Ops     uint64
	Hams    []sparse.Matrix
	Present []bool
}

func (s *Solver) representations(o Options, flat *basis.Space) ([]*sparse.Matrix, error) {
	order := o.Order
	flatIdx := flat.Indices()

	var ops uint64
	if o.Checkpoint != nil {
		var err error
		ops, err = s.opsFingerprint(flat)
		if err != nil {
			return nil, err
		}
	}

	var a repsArchive
	if s.load(o, keyRepresentations, &a) &&
		equalInts(a.Flat, flatIdx) && a.Ops == ops && len(a.Hams) == order+1 {
		o.Log.Info.Printf("representations restored from checkpoint")
		reps := make([]*sparse.Matrix, order+1)
		for i := range a.Hams {
			if a.Present[i] {
				h := a.Hams[i]
				reps[i] = &h
			}
		}
		return reps, nil
	}

	reps := make([]*sparse.Matrix, order+1)
	for k := 0; k <= order && k < len(s.hams); k++ {
		if s.hams[k] == nil {
			continue
		}
		t := time.Now()
		m, err := s.hams[k].RepresentationMatrix(flat, flat, k == 0)
		if err != nil {
			return nil, err
		}
		reps[k] = m
		o.Log.Info.Printf("order %d representation over %d states took %v (%d nonzero)",
			k, flat.Len(), time.Since(t), m.NNZ())
	}

	if o.Checkpoint != nil {
		a := repsArchive{
			Flat:    flatIdx,
			Ops:     ops,
			Hams:    make([]sparse.Matrix, order+1),
			Present: make([]bool, order+1),
		}
		for i, m := range reps {
			if m != nil {
				a.Hams[i] = *m
				a.Present[i] = true
			}
		}
		s.persist(o, keyRepresentations, &a)
	}
	return reps, nil
}

// degenerateArchive is the diagnostics record written alongside the
// corrections when degeneracies were resolved.
type degenerateArchive struct {
	RunID    string
	Groups   [][][]int
	EffHams  []archiveDense
	Rotation sparse.Matrix
	Energies []float64
}

// persistResults records the final corrections and degenerate data.
// Failure to persist is never fatal.
func (s *Solver) persistResults(o Options, c *Corrections) {
	if o.Checkpoint == nil {
		return
	}
	var buf bytes.Buffer
	if err := c.Encode(&buf); err != nil {
		o.Log.Warning.Printf("could not encode corrections record: %v", err)
	} else if err := o.Checkpoint.Set(keyCorrections, buf.Bytes()); err != nil {
		o.Log.Warning.Printf("could not persist corrections record: %v", err)
	}

	if d := c.Degenerate; d != nil {
		a := degenerateArchive{
			RunID:    c.RunID,
			Groups:   make([][][]int, len(d.Groups)),
			EffHams:  make([]archiveDense, len(d.EffectiveHamiltonians)),
			Rotation: *d.Rotation,
			Energies: d.Energies,
		}
		for i, g := range d.Groups {
			a.Groups[i] = spaceVectors(g)
		}
		for i, h := range d.EffectiveHamiltonians {
			if h == nil {
				continue
			}
			r, cl := h.Dims()
			data := make([]float64, 0, r*cl)
			for ri := 0; ri < r; ri++ {
				data = append(data, h.RawRowView(ri)...)
			}
			a.EffHams[i] = archiveDense{Rows: r, Cols: cl, Data: data}
		}
		s.persist(o, keyDegenerateData, &a)
	}
}

// persist gob-encodes v under key, swallowing failures.
func (s *Solver) persist(o Options, key string, v interface{}) {
	if o.Checkpoint == nil {
		return
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		o.Log.Warning.Printf("could not encode %s: %v", key, err)
		return
	}
	if err := o.Checkpoint.Set(key, buf.Bytes()); err != nil {
		o.Log.Warning.Printf("could not persist %s: %v", key, err)
	}
}

// load gob-decodes key into v, reporting whether it was found intact.
func (s *Solver) load(o Options, key string, v interface{}) bool {
	if o.Checkpoint == nil {
		return false
	}
	blob, err := o.Checkpoint.Get(key)
	if err != nil {
		if !errors.Is(err, checkpoint.ErrKeyNotFound) {
			o.Log.Warning.Printf("checkpoint read of %s failed: %v", key, err)
		}
		return false
	}
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(v); err != nil {
		o.Log.Warning.Printf("checkpoint record %s is corrupt: %v", key, err)
		return false
	}
	return true
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
