// checkpoint_test.go --  This file is part of goVPT project.
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
package checkpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeContract exercises the behavior every Store must share.
func storeContract(t *testing.T, s Store) {
	t.Helper()

	_, err := s.Get("absent")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, s.Set("k", []byte("v1")))
	got, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	require.NoError(t, s.Set("k", []byte("v2")))
	got, err = s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
}

func TestMemoryContract(t *testing.T) {
	s := NewMemory()
	storeContract(t, s)
	assert.NoError(t, s.Close())
}

func TestMemoryCopies(t *testing.T) {
	s := NewMemory()
	blob := []byte{1, 2, 3}
	require.NoError(t, s.Set("k", blob))
	blob[0] = 9
	got, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got)
	got[1] = 9
	again, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, again)
}

func TestMemoryReadOnly(t *testing.T) {
	s := NewMemory()
	require.NoError(t, s.Set("k", []byte("v")))
	s.ReadOnly = true
	assert.ErrorIs(t, s.Set("k", []byte("w")), ErrReadOnly)
	got, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
	assert.Equal(t, 1, s.Len())
}

func TestBadgerInMemoryContract(t *testing.T) {
	s, err := OpenBadger(BadgerConfig{InMemory: true})
	require.NoError(t, err)
	defer s.Close()
	storeContract(t, s)
}

func TestBadgerPersistent(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenBadger(BadgerConfig{Path: dir + "/db"})
	require.NoError(t, err)
	require.NoError(t, s.Set("k", []byte("v")))
	require.NoError(t, s.Close())

	s, err = OpenBadger(BadgerConfig{Path: dir + "/db"})
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestBadgerRequiresPath(t *testing.T) {
	_, err := OpenBadger(BadgerConfig{})
	assert.Error(t, err)
}
