// errors.go --  This file is part of goVPT project.
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

import "fmt"

// DegeneracyError reports resolvent denominators that fell below the
// configured cutoff outside the declared degenerate group. The caller
// is expected to resubmit with a degeneracy specification covering the
// offending states; the solver never retries this on its own.
type DegeneracyError struct {
	// Group holds the flat-space positions of the declared degenerate
	// group for the state being corrected.
	Group []int
	// Offending holds the flat-space positions whose zero-order energy
	// collided with the target state's.
	Offending []int
	// MeanEnergy and StdDev summarize the colliding energies.
	MeanEnergy float64
	StdDev     float64
}

func (e *DegeneracyError) Error() string {
	return fmt.Sprintf(
		"degeneracies encountered: states %v and %v are degenerate (average energy: %g stddev: %g)",
		e.Group, e.Offending, e.MeanEnergy, e.StdDev,
	)
}

// OverlapError reports a wavefunction coefficient inside the
// degenerate group that the resolvent should have zeroed but did not.
type OverlapError struct {
	State int // target-state basis index
	Order int
	Value float64
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf(
		"state %d: projected-out coefficient nonzero at order %d (got %g, expected 0)",
		e.State, e.Order, e.Value,
	)
}

// NormalizationError reports a corrected state whose cumulative norm
// drifted from 1 beyond the documented 0.005 tolerance.
type NormalizationError struct {
	State   int // target-state basis index
	Overlap float64
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("state %d isn't normalized (overlap = %g)", e.State, e.Overlap)
}

// ConfigError reports a malformed solver configuration. It is raised
// at setup, before any numeric work begins.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return "pt: " + e.Msg }

func configErrorf(format string, args ...interface{}) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}
