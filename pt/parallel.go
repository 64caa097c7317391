// parallel.go --  This file is part of goVPT project.
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
	"runtime"
	"sync"
)

// Parallelizer fans index ranges out over a fixed number of goroutines.
// Workers receive contiguous blocks, so per-block writes into disjoint
// slices need no locking.
type Parallelizer struct {
	Procs int
}

// NewParallelizer returns a parallelizer over GOMAXPROCS workers.
func NewParallelizer() *Parallelizer {
	return &Parallelizer{Procs: runtime.GOMAXPROCS(0)}
}

// Run splits [0, total) into contiguous blocks and calls fn(lo, hi)
// for each block on its own goroutine, then waits. A nil receiver or a
// single proc runs fn(0, total) inline.
func (p *Parallelizer) Run(total int, fn func(lo, hi int)) {
	if total <= 0 {
		return
	}
	procs := 1
	if p != nil {
		procs = p.Procs
	}
	if procs > total {
		procs = total
	}
	if procs <= 1 {
		fn(0, total)
		return
	}
	block := total / procs
	rem := total % procs
	var wg sync.WaitGroup
	lo := 0
	for w := 0; w < procs; w++ {
		hi := lo + block
		if w < rem {
			hi++
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			fn(lo, hi)
		}(lo, hi)
		lo = hi
	}
	wg.Wait()
}
