// badger.go --  This file is part of goVPT project.
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
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// BadgerConfig configures the embedded BadgerDB store.
type BadgerConfig struct {
	// Path is the directory for the database files. Created when
	// missing. Ignored when InMemory is set.
	Path string

	// InMemory keeps everything in RAM; useful for tests.
	InMemory bool

	// SyncWrites forces durable writes. Checkpoints are caches, so
	// this defaults off.
	SyncWrites bool

	// Logger receives BadgerDB's own messages; nil silences them.
	Logger *log.Logger
}

// Badger is a checkpoint store backed by an embedded BadgerDB.
type Badger struct {
	db *badger.DB
}

type badgerLogger struct {
	l *log.Logger
}

func (b badgerLogger) Errorf(f string, args ...interface{})   { b.l.Printf("ERROR: "+f, args...) }
func (b badgerLogger) Warningf(f string, args ...interface{}) { b.l.Printf("WARNING: "+f, args...) }
func (b badgerLogger) Infof(f string, args ...interface{})    { b.l.Printf(f, args...) }
func (b badgerLogger) Debugf(f string, args ...interface{})   {}

// OpenBadger opens (or creates) a BadgerDB-backed store.
func OpenBadger(cfg BadgerConfig) (*Badger, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("checkpoint: path is required for a persistent store")
		}
		if err := os.MkdirAll(cfg.Path, 0755); err != nil {
			return nil, fmt.Errorf("checkpoint: create %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	if cfg.Logger != nil {
		opts = opts.WithLogger(badgerLogger{l: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open badger: %w", err)
	}
	return &Badger{db: db}, nil
}

// Get returns the blob for key or ErrKeyNotFound.
func (b *Badger) Get(key string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Set stores blob under key.
func (b *Badger) Set(key string, blob []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), blob)
	})
}

// Close closes the database.
func (b *Badger) Close() error { return b.db.Close() }
