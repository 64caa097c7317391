// checkpoint.go --  This file is part of goVPT project.
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

// Package checkpoint provides the key-value blob store the solver uses
// to cache representation matrices and coupled-state spaces and to
// record results. A missing key is a cache miss, not an error
// condition; callers treat failed writes as non-fatal.
package checkpoint

import "errors"

// ErrKeyNotFound reports a missing checkpoint key.
var ErrKeyNotFound = errors.New("checkpoint: key not found")

// ErrReadOnly reports a write against a read-only store.
var ErrReadOnly = errors.New("checkpoint: store is read-only")

// Store is a flat key-value blob store.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, blob []byte) error
	Close() error
}

// Memory is an in-process store, mostly for tests and one-shot runs.
type Memory struct {
	blobs    map[string][]byte
	ReadOnly bool
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

// Get returns the blob for key or ErrKeyNotFound.
func (m *Memory) Get(key string) ([]byte, error) {
	b, ok := m.blobs[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp, nil
}

// Set stores a copy of blob under key.
func (m *Memory) Set(key string, blob []byte) error {
	if m.ReadOnly {
		return ErrReadOnly
	}
	cp := make([]byte, len(blob))
	copy(cp, blob)
	m.blobs[key] = cp
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

// Len returns the number of stored keys.
func (m *Memory) Len() int { return len(m.blobs) }
