// log.go --  This file is part of goVPT project.
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
	"io"
	"log"
)

// Loggers bundles the named loggers the solver writes through. Output
// carries the calculation narrative with no prefix; the others carry
// the usual leveled prefixes.
type Loggers struct {
	Info    *log.Logger
	Warning *log.Logger
	Error   *log.Logger
	Output  *log.Logger
}

// NewLoggers builds the standard logger set over a single writer.
func NewLoggers(w io.Writer) *Loggers {
	return &Loggers{
		Info:    log.New(w, "INFO: ", log.Ldate|log.Ltime),
		Warning: log.New(w, "WARNING: ", log.Ldate|log.Ltime),
		Error:   log.New(w, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile),
		Output:  log.New(w, "", 0),
	}
}

// Quiet returns loggers that discard everything; the default for
// library use.
func Quiet() *Loggers {
	return NewLoggers(io.Discard)
}
