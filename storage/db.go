package storage

import (
	"errors"

	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/ethdb"
	ethleveldb "github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/ethereum/go-ethereum/triedb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("storage: key not found")

// Database is a generic interface for a key-value store.
// This allows the node to use any database backend (in-memory or persistent).
// TrieDB exposes the node database the state trie commits into; it shares
// the same disk handle as Put/Get.
type Database interface {
	Put(key []byte, value []byte) error
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	TrieDB() *triedb.Database
	Close() // A way to gracefully shut down the database connection.
}

type ethBacked struct {
	disk   ethdb.Database
	trieDB *triedb.Database
}

func newEthBacked(disk ethdb.Database) ethBacked {
	return ethBacked{disk: disk, trieDB: triedb.NewDatabase(disk, triedb.HashDefaults)}
}

func (b ethBacked) Put(key []byte, value []byte) error {
	return b.disk.Put(key, value)
}

func (b ethBacked) Get(key []byte) ([]byte, error) {
	ok, err := b.disk.Has(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return b.disk.Get(key)
}

func (b ethBacked) Has(key []byte) (bool, error) {
	return b.disk.Has(key)
}

func (b ethBacked) TrieDB() *triedb.Database {
	return b.trieDB
}

func (b ethBacked) close() {
	_ = b.trieDB.Close()
	_ = b.disk.Close()
}

// --- In-Memory DB (for testing) ---

type MemDB struct {
	ethBacked
}

func NewMemDB() *MemDB {
	return &MemDB{ethBacked: newEthBacked(rawdb.NewMemoryDatabase())}
}

// Close satisfies the Database interface for MemDB.
func (db *MemDB) Close() {
	db.close()
}

// --- Persistent DB ---

// LevelDB is a persistent key-value store using LevelDB.
type LevelDB struct {
	ethBacked
}

// LevelDBOptions tunes the LevelDB handle. Zero values use defaults.
type LevelDBOptions struct {
	CacheMiB     int
	OpenFiles    int
	ReadOnly     bool
	NoWriteMerge bool
}

// NewLevelDB creates or opens a LevelDB database at the specified path.
func NewLevelDB(path string) (*LevelDB, error) {
	return NewLevelDBWithOptions(path, LevelDBOptions{})
}

// NewLevelDBWithOptions opens path with the supplied tuning knobs.
func NewLevelDBWithOptions(path string, opts LevelDBOptions) (*LevelDB, error) {
	cache := opts.CacheMiB
	if cache <= 0 {
		cache = 16
	}
	handles := opts.OpenFiles
	if handles <= 0 {
		handles = 64
	}
	ldb, err := ethleveldb.NewCustom(path, "vine/db/", func(o *opt.Options) {
		o.OpenFilesCacheCapacity = handles
		o.BlockCacheCapacity = cache / 2 * opt.MiB
		o.WriteBuffer = cache / 4 * opt.MiB
		o.ReadOnly = opts.ReadOnly
		o.NoWriteMerge = opts.NoWriteMerge
	})
	if err != nil {
		return nil, err
	}
	return &LevelDB{ethBacked: newEthBacked(rawdb.NewDatabase(ldb))}, nil
}

// Close closes the database connection.
func (ldb *LevelDB) Close() {
	ldb.close()
}
